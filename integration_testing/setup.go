package integration_testing

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/2beens/ergolog/internal"
	"github.com/2beens/ergolog/internal/config"
	"github.com/2beens/ergolog/pkg"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	serverPort = 9000
	serverHost = "localhost"

	adminUsername = "adminUsername"
	adminPassword = "test-pass"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

type Suite struct {
	DB         *sql.DB
	dockerPool *dockertest.Pool
	server     *internal.Server
	teardown   []func()
}

func newSuite(ctx context.Context) *Suite {
	var err error
	suite := &Suite{
		teardown: make([]func(), 0),
	}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	suite.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}

	// uses pool to try to connect to Docker
	if err = suite.dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}

	redisPort, err := suite.redisSetup()
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup redis: %s", err.Error())
	}

	pgPort, err := suite.postgresSetup()
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup postgres: %s", err)
	}

	adminPasswordHash, err := pkg.HashPassword(adminPassword)
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to hash admin password: %s", err)
	}

	cfg := getTestConfig(redisPort, pgPort)
	suite.server, err = internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             "test-version-info",
			AdminUsername:           adminUsername,
			AdminPasswordHash:       adminPasswordHash,
			RedisPassword:           "",
			LogbookClientID:         "test",
			LogbookClientSecret:     "test",
			HoneycombTracingEnabled: false,
		},
	)
	if err != nil {
		suite.cleanup()
		log.Fatalf("new server: %s", err)
	}

	suite.server.Serve(ctx, cfg.Host, cfg.Port)

	return suite
}

func (s *Suite) cleanup() {
	if s.DB != nil {
		s.DB.Close()
	}
	for _, teardown := range s.teardown {
		teardown()
	}
	if s.server != nil {
		s.server.GracefulShutdown()
	}
}

func getTestConfig(redisPort, postgresPort string) *config.Config {
	return &config.Config{
		Host:                        serverHost,
		Port:                        serverPort,
		LogToStdout:                 true,
		LogLevel:                    "trace",
		RedisHost:                   "localhost",
		RedisPort:                   redisPort,
		PostgresHost:                "localhost",
		PostgresPort:                postgresPort,
		PostgresDBName:              "ergolog",
		PrometheusMetricsHost:       "localhost",
		PrometheusMetricsPort:       "9001",
		LoginRateLimitAllowedPerMin: 100,
		LogbookBaseURL:              "http://localhost:1",
		LogbookRedirectURL:          "http://localhost:9000/fitness/auth/redirect",
		DefinitionsCacheSize:        1024 * 1024,
	}
}

func (s *Suite) redisSetup() (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		redisResource.Close()
	})

	redisPort := redisResource.GetPort("6379/tcp")
	return redisPort, nil
}

func (s *Suite) postgresSetup() (string, error) {
	pgResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "12",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_HOST_AUTH_METHOD=trust",
			"POSTGRES_DB=ergolog",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		pgResource.Close()
	})

	pgPort := pgResource.GetPort("5432/tcp")
	dsn := fmt.Sprintf("postgres://postgres@localhost:%s/ergolog?sslmode=disable", pgPort)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return "", fmt.Errorf("open db conn: %s", err)
	}
	s.DB = db

	// the container needs a moment before accepting connections
	if err := s.dockerPool.Retry(func() error {
		return db.Ping()
	}); err != nil {
		return "", fmt.Errorf("ping db: %s", err)
	}

	if _, err := db.Exec(initSQL); err != nil {
		return "", fmt.Errorf("run init script: %s", err)
	}

	return pgPort, nil
}

const initSQL = `
CREATE TABLE public.pr_definition
(
    id              SERIAL PRIMARY KEY,
    user_id         TEXT    NOT NULL,
    activity_key    TEXT    NOT NULL,
    sport           TEXT    NOT NULL,
    metric_type     TEXT    NOT NULL,
    target_distance INTEGER,
    target_time     DOUBLE PRECISION,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    display_order   INTEGER NOT NULL DEFAULT 0,
    UNIQUE (user_id, activity_key)
);

ALTER TABLE public.pr_definition OWNER TO postgres;

CREATE TABLE public.workout_result
(
    id         BIGINT  NOT NULL,
    user_id    TEXT    NOT NULL,
    sport      TEXT    NOT NULL,
    distance   INTEGER NOT NULL,
    time       DOUBLE PRECISION NOT NULL,
    date       TIMESTAMP WITHOUT TIME ZONE NOT NULL,
    created_at TIMESTAMP WITHOUT TIME ZONE NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, id)
);

ALTER TABLE public.workout_result OWNER TO postgres;
CREATE INDEX ix_workout_result_date ON public.workout_result USING btree (user_id, date);

CREATE TABLE public.pr_event
(
    user_id           TEXT   NOT NULL,
    results_id        BIGINT NOT NULL,
    activity_key      TEXT   NOT NULL,
    metric_type       TEXT   NOT NULL,
    metric_value      DOUBLE PRECISION NOT NULL,
    achieved_at       TIMESTAMP WITHOUT TIME ZONE NOT NULL,
    season_identifier TEXT   NOT NULL,
    pr_scope          TEXT[] NOT NULL DEFAULT '{}',
    created_at        TIMESTAMP WITHOUT TIME ZONE NOT NULL DEFAULT now(),
    updated_at        TIMESTAMP WITHOUT TIME ZONE NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, results_id, activity_key)
);

ALTER TABLE public.pr_event OWNER TO postgres;
CREATE INDEX ix_pr_event_activity ON public.pr_event USING btree (user_id, activity_key);
`
