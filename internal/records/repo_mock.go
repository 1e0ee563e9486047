package records

import (
	"context"
	"sync"
)

var _ cacheableRepo = (*repoMock)(nil)

type repoMock struct {
	mutex       sync.Mutex
	Definitions map[string][]Definition // user id -> definitions
	Events      map[EventID]Event

	SeedCalls       int
	GetActiveCalls  int
	UpsertEventErr  error
	OverwriteErr    error
	ScopeOverwrites int
}

func newRepoMock() *repoMock {
	return &repoMock{
		Definitions: make(map[string][]Definition),
		Events:      make(map[EventID]Event),
	}
}

func (r *repoMock) GetActiveDefinitions(_ context.Context, userID string) ([]Definition, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.GetActiveCalls++

	active := make([]Definition, 0)
	for _, d := range r.Definitions[userID] {
		if d.IsActive {
			active = append(active, d)
		}
	}
	return active, nil
}

func (r *repoMock) SeedDefaultDefinitions(_ context.Context, userID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.SeedCalls++

	if len(r.Definitions[userID]) == 0 {
		r.Definitions[userID] = DefaultDefinitions(userID)
	}
	return nil
}

func (r *repoMock) ProcessedResultIDs(_ context.Context, userID string) (map[int64]bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	resultIDs := make(map[int64]bool)
	for id, e := range r.Events {
		if e.UserID == userID {
			resultIDs[id.ResultsID] = true
		}
	}
	return resultIDs, nil
}

func (r *repoMock) UpsertEvent(_ context.Context, event Event) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.UpsertEventErr != nil {
		return false, r.UpsertEventErr
	}

	if _, exists := r.Events[event.ID()]; exists {
		return false, nil
	}
	r.Events[event.ID()] = event
	return true, nil
}

func (r *repoMock) ListEventsByActivity(_ context.Context, userID, activityKey string) ([]Event, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	events := make([]Event, 0)
	for _, e := range r.Events {
		if e.UserID == userID && e.ActivityKey == activityKey {
			events = append(events, e)
		}
	}
	return events, nil
}

func (r *repoMock) OverwriteScopes(_ context.Context, events []Event) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.OverwriteErr != nil {
		return r.OverwriteErr
	}

	for _, e := range events {
		stored, exists := r.Events[e.ID()]
		if !exists {
			continue
		}
		stored.Scopes = e.Scopes
		r.Events[e.ID()] = stored
	}
	r.ScopeOverwrites++
	return nil
}

func (r *repoMock) ListCurrentRecords(_ context.Context, userID string) ([]Event, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	events := make([]Event, 0)
	for _, e := range r.Events {
		if e.UserID == userID && len(e.Scopes) > 0 {
			events = append(events, e)
		}
	}
	return events, nil
}

func (r *repoMock) eventByID(id EventID) (Event, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	e, ok := r.Events[id]
	return e, ok
}
