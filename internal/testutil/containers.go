// Package testutil starts the throwaway Postgres and S3 containers used by
// integration and e2e tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cloo-solutions/notesqa/internal/database"
)

const (
	postgresImage = "pgvector/pgvector:0.8.1-pg18"
	postgresCreds = "notesqa"

	rustFSImage = "rustfs/rustfs:latest"
	// RustFSAccessKey doubles as the secret key.
	RustFSAccessKey = "rustfsadmin"
)

// container is a started container and the host address of its one port.
type container struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

// Terminate stops and removes the container.
func (c *container) Terminate(ctx context.Context) error {
	return testcontainers.TerminateContainer(c.Container)
}

func startContainer(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest) container {
	t.Helper()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start %s: %v", req.Image, err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host for %s: %v", req.Image, err)
	}

	port, err := c.MappedPort(ctx, nat.Port(req.ExposedPorts[0]))
	if err != nil {
		t.Fatalf("failed to get port for %s: %v", req.Image, err)
	}

	return container{Container: c, Host: host, Port: port.Port()}
}

// PostgresContainer runs pgvector-enabled Postgres.
type PostgresContainer struct {
	container
}

// NewPostgresContainer starts Postgres with the vector extension available.
func NewPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	c := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresCreds,
			"POSTGRES_PASSWORD": postgresCreds,
			"POSTGRES_DB":       postgresCreds,
		},
		// The server logs "ready" once for the init run and again for the real start.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(60 * time.Second),
	})
	return &PostgresContainer{container: c}
}

// ConnectionString returns a postgres:// URL for the container.
func (pc *PostgresContainer) ConnectionString() string {
	return fmt.Sprintf("postgres://%[1]s:%[1]s@%s:%s/%[1]s?sslmode=disable", postgresCreds, pc.Host, pc.Port)
}

// RustFSContainer runs an S3-compatible object store.
type RustFSContainer struct {
	container
}

// NewRustFSContainer starts RustFS with RustFSAccessKey credentials.
func NewRustFSContainer(ctx context.Context, t *testing.T) *RustFSContainer {
	c := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        rustFSImage,
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"RUSTFS_ACCESS_KEY": RustFSAccessKey,
			"RUSTFS_SECRET_KEY": RustFSAccessKey,
		},
		WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(30 * time.Second),
	})
	return &RustFSContainer{container: c}
}

// Endpoint returns the S3 endpoint URL.
func (rc *RustFSContainer) Endpoint() string {
	return fmt.Sprintf("http://%s:%s", rc.Host, rc.Port)
}

// NewTestPool migrates the container's database with the same migrator the
// daemon uses, then returns a pool on it. The pool is closed on test cleanup.
func NewTestPool(ctx context.Context, t *testing.T, pc *PostgresContainer, migrationsDir string) *pgxpool.Pool {
	t.Helper()

	var (
		pool *pgxpool.Pool
		err  error
	)
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = database.NewPool(ctx, database.Config{URL: pc.ConnectionString()})
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	m, err := database.NewMigrator(pc.ConnectionString(), migrationsDir)
	if err != nil {
		t.Fatalf("failed to open migrator: %v", err)
	}
	defer m.Close()

	if _, _, err := m.Up(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return pool
}
