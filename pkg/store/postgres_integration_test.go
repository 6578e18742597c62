//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Sternrassler/user-directory/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a Postgres container and returns its DSN.
func setupPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "userdir",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/userdir?sslmode=disable", host, port.Port())
}

func TestPostgres_Drivers(t *testing.T) {
	dsn := setupPostgres(t)

	for _, driver := range []string{"pgx", "postgres"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()

			p, err := Open(ctx, driver, dsn, DefaultOptions())
			require.NoError(t, err)
			defer p.Close()

			require.NoError(t, p.EnsureSchema(ctx))
			_, err = p.db.ExecContext(ctx, `TRUNCATE users RESTART IDENTITY`)
			require.NoError(t, err)

			n, err := p.CreateUsers(ctx, alphabeticNames(27))
			require.NoError(t, err)
			assert.Equal(t, 27, n)

			page1, err := p.ListUsers(ctx, Query{Offset: 0, Limit: 10})
			require.NoError(t, err)
			assert.Len(t, page1, 10)

			page3, err := p.ListUsers(ctx, Query{Offset: 20, Limit: 10})
			require.NoError(t, err)
			assert.Len(t, page3, 7)

			page4, err := p.ListUsers(ctx, Query{Offset: 30, Limit: 10})
			require.NoError(t, err)
			assert.Empty(t, page4)

			created, err := p.CreateUser(ctx, "bianca")
			require.NoError(t, err)
			assert.NotZero(t, created.ID)
			assert.False(t, created.CreatedAt.IsZero())

			byB, err := p.ListUsers(ctx, Query{Limit: 10, Letter: "B"})
			require.NoError(t, err)
			require.NotEmpty(t, byB)
			for _, u := range byB {
				assert.Equal(t, "B", u.Initial(), "unexpected user %q", u.Name)
			}
			assert.Contains(t, namesOf(byB), "bianca", "letter filter is case-insensitive")

			require.NoError(t, p.Ping(ctx))
		})
	}
}

func TestPostgres_MixedCaseOrderMatchesMemory(t *testing.T) {
	dsn := setupPostgres(t)
	ctx := context.Background()
	names := []string{"bob", "Alice", "Carl", "alice", "Émile", "zoe", "Bob"}

	p, err := Open(ctx, "pgx", dsn, DefaultOptions())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.EnsureSchema(ctx))
	_, err = p.db.ExecContext(ctx, `TRUNCATE users RESTART IDENTITY`)
	require.NoError(t, err)
	_, err = p.CreateUsers(ctx, names)
	require.NoError(t, err)

	mem := NewMemory(nil)
	_, err = mem.CreateUsers(ctx, names)
	require.NoError(t, err)

	for _, q := range []Query{{Limit: 10}, {Limit: 10, Letter: "B"}, {Offset: 2, Limit: 3}} {
		fromPostgres, err := p.ListUsers(ctx, q)
		require.NoError(t, err)
		fromMemory, err := mem.ListUsers(ctx, q)
		require.NoError(t, err)

		assert.Equal(t, namesOf(fromMemory), namesOf(fromPostgres), "query %+v", q)
		assert.Equal(t, idsOf(fromMemory), idsOf(fromPostgres), "query %+v", q)
	}
}

func idsOf(list []users.User) []int64 {
	out := make([]int64, len(list))
	for i, u := range list {
		out[i] = u.ID
	}
	return out
}
