//go:build integration

package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var pgDSN string

// TestMain starts a throwaway Postgres container for the integration suite.
func TestMain(m *testing.M) {
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true") //nolint:errcheck

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "dnx",
				"POSTGRES_PASSWORD": "dnx",
				"POSTGRES_DB":       "dnx",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start Postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}
	pgDSN = fmt.Sprintf("postgres://dnx:dnx@%s:%s/dnx?sslmode=disable", host, port.Port())

	code := m.Run()

	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newTestPostgres(t *testing.T) Store {
	t.Helper()
	ctx := context.Background()
	s, err := NewPostgres(ctx, pgDSN, &PoolConfig{MaxConns: 4, MinConns: 1})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { s.Close() }) //nolint:errcheck

	if _, err := s.Pool().Exec(ctx, `DROP TABLE IF EXISTS officers, person_details, company_details, leads, extraction_jobs CASCADE`); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestPostgresStore_Integration(t *testing.T) {
	storeTestSuite(t, newTestPostgres)
}
