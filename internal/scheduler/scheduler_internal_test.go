package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"clawgram/internal/database"
	"clawgram/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu    sync.Mutex
	chats []int64
}

func (r *recordingSender) SendDigest(_ context.Context, chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chats = append(r.chats, chatID)

	return chatID != 3
}

type failingSubscribers struct{}

func (failingSubscribers) ChatsWith(context.Context, string, string) ([]int64, error) {
	return nil, errors.New("storage is down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendDigestsOnlyToSubscribers(t *testing.T) {
	ctx := context.Background()
	storage := database.NewMemory()
	require.NoError(t, storage.Set(ctx, 1, domain.KeyDigest, domain.DigestOn))
	require.NoError(t, storage.Set(ctx, 3, domain.KeyDigest, domain.DigestOn))
	require.NoError(t, storage.Set(ctx, 2, domain.KeyTheme, "light"))

	sender := &recordingSender{}
	s := New(ctx, "", nil, storage, sender, discardLogger())

	s.sendDigests()

	assert.Equal(t, []int64{1, 3}, sender.chats)
}

func TestSendDigestsSkipsOnStorageError(t *testing.T) {
	sender := &recordingSender{}
	s := New(context.Background(), "", nil, failingSubscribers{}, sender, discardLogger())

	s.sendDigests()

	assert.Empty(t, sender.chats)
}

func TestSendDigestsStopsWhenContextIsDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	storage := database.NewMemory()
	require.NoError(t, storage.Set(context.Background(), 1, domain.KeyDigest, domain.DigestOn))

	sender := &recordingSender{}
	New(ctx, "", nil, storage, sender, discardLogger()).sendDigests()

	assert.Empty(t, sender.chats)
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := New(context.Background(), "not a spec", time.UTC, database.NewMemory(), &recordingSender{}, discardLogger())

	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := New(context.Background(), "@every 1h", time.UTC, database.NewMemory(), &recordingSender{}, discardLogger())

	require.NoError(t, s.Start())
	s.Stop()
}
