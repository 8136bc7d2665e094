package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/ClauseLens/internal/config"
)

// StartPostgres launches a disposable PostgreSQL container and returns a
// DatabaseConfig pointing at it.  The container is terminated when the test
// finishes.
func StartPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "clauselens",
				"POSTGRES_PASSWORD": "clauselens",
				"POSTGRES_DB":       "clauselens_test",
			},
			// Postgres restarts once during initdb, so wait for the second
			// readiness line.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, port := containerEndpoint(t, container, "5432/tcp")
	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     "clauselens",
		Password: "clauselens",
		DBName:   "clauselens_test",
		SSLMode:  "disable",
		MaxConns: 5,
	}
}

// StartRedis launches a disposable Redis container and returns its address.
func StartRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	host, port := containerEndpoint(t, container, "6379/tcp")
	return host + ":" + strconv.Itoa(port)
}

// StartMinIO launches a disposable MinIO container and returns a MinIOConfig
// pointing at it.
func StartMinIO(t *testing.T) config.MinIOConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:RELEASE.2024-01-16T16-07-38Z",
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "clauselens",
				"MINIO_ROOT_PASSWORD": "clauselens-secret",
			},
			WaitingFor: wait.ForHTTP("/minio/health/ready").
				WithPort("9000/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start minio container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate minio container: %v", err)
		}
	})

	host, port := containerEndpoint(t, container, "9000/tcp")
	return config.MinIOConfig{
		Endpoint:      host + ":" + strconv.Itoa(port),
		AccessKey:     "clauselens",
		SecretKey:     "clauselens-secret",
		Bucket:        "clauselens-test",
		UseSSL:        false,
		PresignExpiry: time.Hour,
	}
}

func containerEndpoint(t *testing.T, container testcontainers.Container, port nat.Port) (string, int) {
	t.Helper()
	ctx := context.Background()

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("container mapped port: %v", err)
	}
	return host, mapped.Int()
}
