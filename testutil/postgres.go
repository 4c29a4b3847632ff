// Package testutil provides shared test utilities for supaextract
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log"
	"net/url"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var suppressedLogger = log.New(io.Discard, "", 0)

// SupabaseRoles are the roles the setup script grants EXECUTE to. A plain
// PostgreSQL image does not have them.
var SupabaseRoles = []string{"authenticated", "service_role"}

// getPostgresVersion returns the PostgreSQL version to use for testing.
// It reads from the SUPAEXTRACT_POSTGRES_VERSION environment variable,
// defaulting to "17" if not set.
func getPostgresVersion() string {
	if version := os.Getenv("SUPAEXTRACT_POSTGRES_VERSION"); version != "" {
		return version
	}
	return "17"
}

// ContainerInfo holds PostgreSQL container connection details
type ContainerInfo struct {
	Container testcontainers.Container
	DSN       string
	Conn      *sql.DB
}

// URL returns the DSN as a postgres:// URL.
func (ci *ContainerInfo) URL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(ci.DSN)
	if err != nil {
		t.Fatalf("Failed to parse container DSN: %v", err)
	}
	return u
}

// SetupPostgresContainer starts a PostgreSQL test container that looks
// enough like a Supabase database for the setup script to apply: the
// grantee roles exist.
func SetupPostgresContainer(ctx context.Context, t *testing.T) *ContainerInfo {
	t.Helper()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:"+getPostgresVersion()+"-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(suppressedLogger),
	)
	if err != nil {
		t.Fatalf("Failed to start container: %v", err)
	}

	testDSN, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	conn, err := sql.Open("pgx", testDSN)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	ci := &ContainerInfo{
		Container: postgresContainer,
		DSN:       testDSN,
		Conn:      conn,
	}
	for _, role := range SupabaseRoles {
		if _, err := conn.ExecContext(ctx, "CREATE ROLE "+role+" NOLOGIN"); err != nil {
			ci.Terminate(ctx, t)
			t.Fatalf("Failed to create role %s: %v", role, err)
		}
	}
	return ci
}

// Terminate cleans up the container and connection
func (ci *ContainerInfo) Terminate(ctx context.Context, t *testing.T) {
	ci.Conn.Close()
	if err := ci.Container.Terminate(ctx); err != nil {
		t.Logf("Failed to terminate container: %v", err)
	}
}
