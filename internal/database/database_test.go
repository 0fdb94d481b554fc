package database_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"clawgram/internal/database"
	"clawgram/internal/domain"
	"clawgram/internal/session"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storageContract(t *testing.T, storage session.Storage) {
	t.Helper()

	ctx := context.Background()

	_, found, err := storage.Get(ctx, 1, domain.KeyAuth)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, storage.Set(ctx, 1, domain.KeyAuth, "token-1"))
	require.NoError(t, storage.Set(ctx, 1, domain.KeyAuth, "token-2"))
	require.NoError(t, storage.Set(ctx, 2, domain.KeyAuth, "token-3"))

	value, found, err := storage.Get(ctx, 1, domain.KeyAuth)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "token-2", value)

	require.NoError(t, storage.Delete(ctx, 1, domain.KeyAuth))
	require.NoError(t, storage.Delete(ctx, 1, domain.KeyAuth))

	_, found, err = storage.Get(ctx, 1, domain.KeyAuth)
	require.NoError(t, err)
	assert.False(t, found)

	value, found, err = storage.Get(ctx, 2, domain.KeyAuth)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "token-3", value)

	require.NoError(t, storage.Set(ctx, 30, domain.KeyDigest, domain.DigestOn))
	require.NoError(t, storage.Set(ctx, 10, domain.KeyDigest, domain.DigestOn))
	require.NoError(t, storage.Set(ctx, 20, domain.KeyDigest, "off"))

	chatIDs, err := storage.ChatsWith(ctx, domain.KeyDigest, domain.DigestOn)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 30}, chatIDs)

	assert.Error(t, storage.Set(ctx, 1, " ", "value"))
}

func TestMemoryStorage(t *testing.T) {
	storageContract(t, database.NewMemory())
}

func TestSQLiteStorage(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")

	db, err := database.New(ctx, dbPath, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	storageContract(t, db)
}

func TestSQLiteStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")

	db, err := database.New(ctx, dbPath, log)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, 7, domain.KeyCurrentUsername, "alice"))
	require.NoError(t, db.Close())

	reopened, err := database.New(ctx, dbPath, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	value, found, err := reopened.Get(ctx, 7, domain.KeyCurrentUsername)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alice", value)
}

func TestPostgresStorage(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(ctx) })

	db, err := database.NewPostgres(ctx, dsn, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = conn.Exec(ctx, "truncate table storage")
	require.NoError(t, err)

	storageContract(t, db)
}

func newTestRedis(t *testing.T) (*database.Redis, *redis.Client) {
	t.Helper()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}

	ctx := context.Background()

	options, err := redis.ParseURL(redisURL)
	require.NoError(t, err)

	raw := redis.NewClient(options)
	t.Cleanup(func() { _ = raw.Close() })
	require.NoError(t, raw.FlushDB(ctx).Err())

	db, err := database.NewRedis(ctx, redisURL, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, raw
}

func TestRedisStorage(t *testing.T) {
	db, _ := newTestRedis(t)

	storageContract(t, db)
}

func TestRedisKeepsValuesOutOfKeyNames(t *testing.T) {
	ctx := context.Background()
	db, raw := newTestRedis(t)

	require.NoError(t, db.Set(ctx, 1, domain.KeyAuth, "secret-token"))
	require.NoError(t, db.Set(ctx, 1, domain.KeyDigest, domain.DigestOn))

	keys, err := raw.Keys(ctx, "*").Result()
	require.NoError(t, err)
	for _, key := range keys {
		assert.NotContains(t, key, "secret-token")
	}

	chatIDs, err := db.ChatsWith(ctx, domain.KeyAuth, "secret-token")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, chatIDs)
}
