package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/2beens/ergolog/internal/records"

	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	rootBackupsFolderName = "ergolog-backup"
	eventsFileChunkSize   = 500 // number of PR events in one backup file
)

// GoogleDriveBackupService dumps the PR events table to google drive,
// incrementally: each run backs up the events created since the newest
// existing backup file.
type GoogleDriveBackupService struct {
	db              *pgxpool.Pool
	service         *drive.Service
	shareWithEmail  string
	backupsFolderId string
}

func NewGoogleDriveBackupService(
	ctx context.Context,
	credentialsJson []byte,
	db *pgxpool.Pool,
	shareWithEmail string,
) (*GoogleDriveBackupService, error) {
	// https://github.com/googleapis/google-api-go-client/blob/master/drive/v3/drive-gen.go
	driveService, err := drive.NewService(ctx, option.WithCredentialsJSON(credentialsJson))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}

	rootFolderQuery := fmt.Sprintf("mimeType = 'application/vnd.google-apps.folder' and trashed = false and name = '%s'", rootBackupsFolderName)
	rootBackupFolder, err := driveService.
		Files.List().
		Q(rootFolderQuery).
		Fields("files(id, name)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	backupsFolderId := ""
	if len(rootBackupFolder.Files) == 1 {
		rbf := rootBackupFolder.Files[0]
		log.Printf("root backups folder found, %s: %s", rbf.Name, rbf.Id)
		backupsFolderId = rbf.Id
	} else if len(rootBackupFolder.Files) == 0 {
		log.Println("root backups folder not found, will recreate")
	} else {
		rbf := rootBackupFolder.Files[0]
		log.Printf("attention: found %d root backups folders, will take the first one: %s", len(rootBackupFolder.Files), rbf.Id)
		backupsFolderId = rbf.Id
	}

	s := &GoogleDriveBackupService{
		db:             db,
		service:        driveService,
		shareWithEmail: shareWithEmail,
	}

	if backupsFolderId == "" {
		backupsFolderId, err = s.createRootBackupsFolder()
		if err != nil {
			return nil, fmt.Errorf("failed to create root backups folder: %w", err)
		}
		log.Printf("new root backups folder created: %s", backupsFolderId)
	}

	s.backupsFolderId = backupsFolderId

	return s, nil
}

// Reinit drops the whole backup folder and backs everything up from scratch.
func (s *GoogleDriveBackupService) Reinit(ctx context.Context, baseTime time.Time) error {
	log.Println("pr events backup reinit starting ...")

	if err := s.service.Files.
		Delete(s.backupsFolderId).
		Do(); err != nil {
		return err
	}

	backupsFolderId, err := s.createRootBackupsFolder()
	if err != nil {
		return fmt.Errorf("failed to create root backups folder: %w", err)
	}

	log.Printf("new root backups folder created: %s", backupsFolderId)

	s.backupsFolderId = backupsFolderId

	return s.DoBackup(ctx, baseTime)
}

func (s *GoogleDriveBackupService) DoBackup(ctx context.Context, baseTime time.Time) error {
	currentAllBackupFiles, err := s.getBackupFiles(s.backupsFolderId)
	if err != nil {
		return err
	}

	if len(currentAllBackupFiles) == 0 {
		log.Println("backups empty, creating initial backup file ...")
		if err := s.createInitialBackupFile(ctx, baseTime); err != nil {
			return err
		}
		log.Println("initial backup files created!")
		return nil
	}

	log.Println("current backup files:")
	lastCreatedAt := time.Time{}
	for _, file := range currentAllBackupFiles {
		createdAt, err := time.Parse(time.RFC3339, file.CreatedTime)
		if err != nil {
			log.Printf(" ---> error parsing created at for file %s: %s", file.Name, err)
			continue
		}
		log.Printf(" -- [%v]: %s (%s)\n", createdAt, file.Name, file.Id)

		if createdAt.After(lastCreatedAt) {
			lastCreatedAt = createdAt
		}
	}

	eventsToBackup, err := s.getEvents(ctx, &lastCreatedAt)
	if err != nil {
		return fmt.Errorf("failed to get next backup events: %w", err)
	}

	if len(eventsToBackup) == 0 {
		log.Println("no new pr events to backup, done")
		return nil
	}

	log.Printf(" ---- backing up %d pr events since %v", len(eventsToBackup), lastCreatedAt)

	nextBackupFileName := fmt.Sprintf("pr-events-%d-%d-%d", baseTime.Day(), baseTime.Month(), baseTime.Year())
	fileCounter := 1
	for {
		nameExists := false
		for _, file := range currentAllBackupFiles {
			if file.Name == (nextBackupFileName + "_1.json") {
				nameExists = true
				break
			}
		}
		if nameExists {
			fileCounter++
			nextBackupFileName = fmt.Sprintf("%s_%d", nextBackupFileName, fileCounter)
		} else {
			break
		}
	}

	if err := s.backupEvents(eventsToBackup, nextBackupFileName); err != nil {
		return fmt.Errorf("failed to backup events: %w", err)
	}

	log.Printf("next backup since %v successfully saved: %s", lastCreatedAt, nextBackupFileName)

	return nil
}

func (s *GoogleDriveBackupService) createRootBackupsFolder() (string, error) {
	backupsFolderMeta := &drive.File{
		Name:     rootBackupsFolderName,
		MimeType: "application/vnd.google-apps.folder",
	}

	bfRes, err := s.service.
		Files.Create(backupsFolderMeta).
		Fields("id").
		Do()
	if err != nil {
		return "", err
	}

	if pId, err := s.updateFilePermission(bfRes.Id); err != nil {
		return bfRes.Id, fmt.Errorf("failed to create additional permission for root backup folder: %s", err)
	} else {
		log.Printf("permission %s created for root backup folder %s", pId, bfRes.Id)
	}

	return bfRes.Id, nil
}

func (s *GoogleDriveBackupService) createInitialBackupFile(ctx context.Context, baseTime time.Time) error {
	events, err := s.getEvents(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to get pr events from db: %w", err)
	}

	log.Printf("initial backup of %d pr events starting ...", len(events))

	baseFileName := fmt.Sprintf("initial-%d-%d-%d", baseTime.Day(), baseTime.Month(), baseTime.Year())
	if err := s.backupEvents(events, baseFileName); err != nil {
		return fmt.Errorf("failed to backup events: %w", err)
	}

	return nil
}

func (s *GoogleDriveBackupService) backupEvents(events []records.Event, baseFileName string) error {
	chunks := len(events) / eventsFileChunkSize
	fromIndex, toIndex := 0, eventsFileChunkSize
	if len(events)%eventsFileChunkSize > 0 {
		chunks++
	}

	if len(events) < eventsFileChunkSize {
		toIndex = len(events)
	}

	for i := 1; i <= chunks; i++ {
		nextFileName := fmt.Sprintf("%s_%d.json", baseFileName, i)
		nextEvents := events[fromIndex:toIndex]

		log.Printf("%s: create backup file with %d pr events [from %d to %d] ...", nextFileName, len(nextEvents), fromIndex, toIndex)

		nextEventsJson, err := json.Marshal(nextEvents)
		if err != nil {
			return fmt.Errorf("%s failed to marshal pr events: %w", nextFileName, err)
		}

		log.Printf("%s: creating file on google drive ...", nextFileName)
		fileMeta := &drive.File{
			Name: nextFileName,
			// https://developers.google.com/drive/api/v3/mime-types
			MimeType: "application/vnd.google-apps.file",
			Parents:  []string{s.backupsFolderId},
		}

		nextBackupChunkFile, err := s.service.
			Files.Create(fileMeta).
			Fields("id, parents").
			Media(bytes.NewReader(nextEventsJson)).
			Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create events backups file: %w", nextFileName, err)
		}

		permissionId, err := s.updateFilePermission(nextBackupChunkFile.Id)
		if err != nil {
			return fmt.Errorf("%s: failed to create additional permission: %s", nextFileName, err)
		}

		log.Printf("%s: backup file [%s] [permission %s] saved: %s", nextFileName, fileMeta.Name, permissionId, nextBackupChunkFile.Id)

		fromIndex = toIndex
		toIndex = toIndex + eventsFileChunkSize
		if toIndex >= len(events) {
			toIndex = len(events)
		}
	}

	return nil
}

func (s *GoogleDriveBackupService) updateFilePermission(fileId string) (string, error) {
	permission := &drive.Permission{
		EmailAddress: s.shareWithEmail,
		Type:         "user",
		Role:         "reader",
	}

	createdPermission, err := s.service.Permissions.
		Create(fileId, permission).
		Do()
	if err != nil {
		return "", err
	}

	return createdPermission.Id, nil
}

func (s *GoogleDriveBackupService) getBackupFiles(backupFolderId string) ([]*drive.File, error) {
	bQuery := fmt.Sprintf("'%s' in parents and mimeType != 'application/vnd.google-apps.folder' and trashed = false", backupFolderId)
	backups, err := s.service.
		Files.List().
		Q(bQuery).
		Fields("files(id, name, createdTime)").
		Do()
	if err != nil {
		return nil, err
	}

	return backups.Files, nil
}

// getEvents loads the events of all users created after the given
// moment, oldest first. A nil moment loads the full table.
func (s *GoogleDriveBackupService) getEvents(ctx context.Context, createdAfter *time.Time) ([]records.Event, error) {
	query := `
		SELECT user_id, results_id, activity_key, metric_type, metric_value, achieved_at, season_identifier, pr_scope, created_at, updated_at
		FROM pr_event`
	var args []any
	if createdAfter != nil {
		query += ` WHERE created_at > $1`
		args = append(args, *createdAfter)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pr events: %w", err)
	}
	defer rows.Close()

	events := make([]records.Event, 0)
	for rows.Next() {
		var e records.Event
		if err := rows.Scan(
			&e.UserID, &e.ResultsID, &e.ActivityKey, &e.MetricType, &e.MetricValue,
			&e.AchievedAt, &e.SeasonIdentifier, &e.Scopes, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pr event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
