package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	definitionsCacheKeyPrefix = "pr-definitions||"
	definitionsCacheTTL       = 300 // seconds
)

// cacheableRepo is the full repo surface the cache decorator wraps: the
// processing operations plus the record board read.
type cacheableRepo interface {
	processorRepo
	ListCurrentRecords(ctx context.Context, userID string) ([]Event, error)
}

// CachedRepo decorates the records repo with an in-process cache of the
// active definitions catalog. The catalog is read on every processing
// run but changes almost never, so even a short TTL removes most of the
// reads. All other repo operations pass through untouched.
type CachedRepo struct {
	cacheableRepo
	cache *freecache.Cache
}

func NewCachedRepo(repo cacheableRepo, cacheSizeBytes int) *CachedRepo {
	return &CachedRepo{
		cacheableRepo: repo,
		cache:         freecache.NewCache(cacheSizeBytes),
	}
}

func (c *CachedRepo) GetActiveDefinitions(ctx context.Context, userID string) ([]Definition, error) {
	cacheKey := []byte(definitionsCacheKeyPrefix + userID)

	if cached, err := c.cache.Get(cacheKey); err == nil {
		var definitions []Definition
		if err := json.Unmarshal(cached, &definitions); err == nil {
			return definitions, nil
		}
		// unreadable cache entry, fall through to the repo
		c.cache.Del(cacheKey)
	}

	definitions, err := c.cacheableRepo.GetActiveDefinitions(ctx, userID)
	if err != nil {
		return nil, err
	}

	definitionsJson, err := json.Marshal(definitions)
	if err != nil {
		return nil, fmt.Errorf("marshal definitions for cache: %w", err)
	}
	if err := c.cache.Set(cacheKey, definitionsJson, definitionsCacheTTL); err != nil {
		log.Warnf("cache active definitions for user %s: %s", userID, err)
	}

	return definitions, nil
}

func (c *CachedRepo) SeedDefaultDefinitions(ctx context.Context, userID string) error {
	// the catalog is about to change, drop the cached one
	c.cache.Del([]byte(definitionsCacheKeyPrefix + userID))
	return c.cacheableRepo.SeedDefaultDefinitions(ctx, userID)
}
