package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/2beens/ergolog/internal/records/backup"
	"github.com/2beens/ergolog/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/natefinch/lumberjack.v2"
)

// pr events google drive backup cmd

func main() {
	credentialsFile := flag.String(
		"gd-creds",
		"./ergolog-drive-credentials.json",
		"google drive service account credentials json",
	)
	shareWithEmail := flag.String(
		"share-with",
		"",
		"email address to share the backup files with",
	)
	logsPath := flag.String("logs-path", "/var/log/ergolog-backend/records-backup.log", "logs file path (empty for stdout)")
	reinit := flag.Bool("reinit", false, "reinitialize all again")

	dbHost := flag.String("db-host", "localhost", "postgres host")
	dbPort := flag.String("db-port", "5432", "postgres port")
	dbName := flag.String("db-name", "ergolog", "postgres database name")

	flag.Parse()

	loggingSetup(*logsPath)

	log.Println("starting pr events backup ...")

	if *credentialsFile == "" {
		log.Fatalln("google drive credentials json not specified")
	}
	if *shareWithEmail == "" {
		log.Fatalln("share-with email not specified")
	}
	if *reinit {
		log.Println("!! attention: will reinitialize all again...")
	}

	credsFileFound, err := pkg.PathExists(*credentialsFile, false)
	if err != nil {
		log.Fatalf("unable to check credentials file: %v", err)
	}
	if !credsFileFound {
		log.Fatalf("credentials file [%s] not found", *credentialsFile)
	}

	credentialsFileBytes, err := os.ReadFile(*credentialsFile)
	if err != nil {
		log.Fatalf("unable to read credentials file: %v", err)
	}

	ctx := context.Background()

	db, err := pgxpool.New(ctx, fmt.Sprintf(
		"postgres://postgres@%s:%s/%s",
		*dbHost, *dbPort, *dbName,
	))
	if err != nil {
		log.Fatalf("failed to create db pool: %s", err)
	}
	defer db.Close()

	s, err := backup.NewGoogleDriveBackupService(ctx, credentialsFileBytes, db, *shareWithEmail)
	if err != nil {
		log.Fatalf("failed to create google drive backup service: %s", err)
	}

	baseTime := time.Now()

	if *reinit {
		if err := s.Reinit(ctx, baseTime); err != nil {
			log.Fatalf("reinit failed: %s", err)
		}
		log.Println("reinit done")
		return
	}

	if err := s.DoBackup(ctx, baseTime); err != nil {
		log.Fatalf("%+v", err)
	}
}

func loggingSetup(logFileName string) {
	if logFileName == "" {
		log.SetOutput(os.Stdout)
		return
	}

	if !strings.HasSuffix(logFileName, ".log") {
		logFileName += ".log"
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:  logFileName,
		MaxSize:   50,    // megabytes
		LocalTime: false, // false -> use UTC
		Compress:  true,  // disabled by default
	})
}
