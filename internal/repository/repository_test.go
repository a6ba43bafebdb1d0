//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	tutorme "github.com/set-night/tutorme"
	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/repository"
	"github.com/set-night/tutorme/internal/storage"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "tutorme",
				"POSTGRES_PASSWORD": "tutorme",
				"POSTGRES_DB":       "tutorme",
			},
			// postgres restarts once after initdb, so wait for the second line
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("container port: %v", err)
	}
	databaseURL := fmt.Sprintf("postgres://tutorme:tutorme@%s:%s/tutorme?sslmode=disable", host, port.Port())

	migrationsFS, err := fs.Sub(tutorme.MigrationsFS, "migrations")
	if err != nil {
		log.Fatalf("migrations fs: %v", err)
	}
	if err := repository.RunMigrations(databaseURL, migrationsFS); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	testPool, err = repository.NewPool(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}

	code := m.Run()

	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestConversationRepo(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepo(testPool)

	first, err := repo.Create(ctx)
	require.NoError(t, err)
	assert.True(t, first.TotalCost.IsZero())

	second, err := repo.Create(ctx)
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 2)
	assert.Equal(t, second.ID, list[0].ID, "newest conversation first")

	_, err = repo.AddMessage(ctx, first.ID, domain.RoleUser, "What is a fraction?")
	require.NoError(t, err)
	reply, err := repo.AddMessage(ctx, first.ID, domain.RoleModel, "A part of a whole.")
	require.NoError(t, err)
	assert.Equal(t, first.ID, reply.ConversationID)

	messages, err := repo.ListMessages(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.RoleUser, messages[0].Role)
	assert.Equal(t, "A part of a whole.", messages[1].Content)

	empty, err := repo.ListMessages(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.AddCost(ctx, first.ID, decimal.RequireFromString("0.0015")))
	require.NoError(t, repo.AddCost(ctx, first.ID, decimal.RequireFromString("0.0005")))
	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalCost.Equal(decimal.RequireFromString("0.002")), got.TotalCost.String())
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestConversationRepo_Unknown(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepo(testPool)

	_, err := repo.Get(ctx, 999999)
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	_, err = repo.AddMessage(ctx, 999999, domain.RoleUser, "hi")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	_, err = repo.ListMessages(ctx, 999999)
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	assert.ErrorIs(t, repo.AddCost(ctx, 999999, decimal.NewFromInt(1)), domain.ErrConversationNotFound)
}

func TestPostgresKV(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewPostgresKV(testPool)

	_, ok, err := kv.Get(ctx, "chatTabs")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "chatTabs", `[{"id":"a"}]`))
	require.NoError(t, kv.Set(ctx, "chatTabs", `[{"id":"b"}]`))
	v, ok, err := kv.Get(ctx, "chatTabs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"b"}]`, v)

	tabs := storage.NewTabAdapter(storage.Namespace(kv, "chat:42:"))
	require.NoError(t, tabs.Save(ctx, []domain.Tab{{ID: "t1", Title: "PSLE Science"}, {ID: "t1", Title: "dup"}}))
	loaded := tabs.Load(ctx)
	require.Len(t, loaded, 1)
	assert.Equal(t, "PSLE Science", loaded[0].Title)

	require.NoError(t, kv.Delete(ctx, "chatTabs"))
	_, ok, err = kv.Get(ctx, "chatTabs")
	require.NoError(t, err)
	assert.False(t, ok)
}
