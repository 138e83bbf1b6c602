package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatbox/internal/model"
)

// memStore is an in-memory MessageStore double. Insert assigns ids and
// strictly increasing timestamps so ordering assertions are deterministic.
type memStore struct {
	mu        sync.Mutex
	messages  []model.Message
	connected bool
	failing   bool
	clock     time.Time
}

func newMemStore() *memStore {
	return &memStore{
		connected: true,
		clock:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) Insert(_ context.Context, msg model.Message) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing {
		return model.Message{}, errors.New("connection refused")
	}

	s.clock = s.clock.Add(time.Millisecond)
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = s.clock
	msg.UpdatedAt = s.clock
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *memStore) List(_ context.Context) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing {
		return nil, errors.New("connection refused")
	}

	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memStore) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func newTestRepository(store *memStore, opts Options) *Repository {
	return New(store, slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
}

func TestCreateTrimsAndEchoesStoredRecord(t *testing.T) {
	store := newMemStore()
	repo := newTestRepository(store, Options{RequireUser: true})

	msg, err := repo.Create(context.Background(), "  hello  ", " alice ")
	require.NoError(t, err)

	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, "alice", msg.User)
	assert.False(t, msg.ID.IsZero(), "id should be store-assigned")
	assert.False(t, msg.CreatedAt.IsZero(), "createdAt should be store-assigned")
	assert.Equal(t, msg.CreatedAt, msg.UpdatedAt)
	assert.Equal(t, 1, store.count())
}

func TestCreateMissingFields(t *testing.T) {
	tests := []struct {
		name string
		text string
		user string
	}{
		{"missing text", "", "alice"},
		{"missing user", "hello", ""},
		{"missing both", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			repo := newTestRepository(store, Options{RequireUser: true})

			_, err := repo.Create(context.Background(), tt.text, tt.user)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "Both text and user fields are required", verr.Reason)
			assert.Equal(t, 0, store.count(), "no record should be persisted")
		})
	}
}

func TestCreateBlankFieldsAfterTrimming(t *testing.T) {
	tests := []struct {
		name string
		text string
		user string
	}{
		{"whitespace text", "   ", "bob"},
		{"whitespace user", "hello", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			repo := newTestRepository(store, Options{RequireUser: true})

			_, err := repo.Create(context.Background(), tt.text, tt.user)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "Text and user cannot be empty", verr.Reason)
			assert.Equal(t, 0, store.count())
		})
	}
}

func TestCreateLengthBounds(t *testing.T) {
	store := newMemStore()
	repo := newTestRepository(store, Options{RequireUser: true})

	// 境界値ちょうどは通る
	_, err := repo.Create(context.Background(), strings.Repeat("a", model.MaxTextLength), "alice")
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), "hello", strings.Repeat("u", model.MaxUserLength))
	require.NoError(t, err)

	before := store.count()

	var verr *ValidationError
	_, err = repo.Create(context.Background(), strings.Repeat("a", model.MaxTextLength+1), "alice")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Text must be at most 500 characters", verr.Reason)

	_, err = repo.Create(context.Background(), "hello", strings.Repeat("u", model.MaxUserLength+1))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "User must be at most 20 characters", verr.Reason)

	assert.Equal(t, before, store.count(), "rejected messages must not be persisted")
}

func TestCreateOptionalUserFallsBackToAnonymous(t *testing.T) {
	store := newMemStore()
	repo := newTestRepository(store, Options{RequireUser: false, AnonymousUser: "anonymous"})

	msg, err := repo.Create(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", msg.User)

	msg, err = repo.Create(context.Background(), "hello", "   ")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", msg.User)
}

func TestListNewestFirst(t *testing.T) {
	store := newMemStore()
	repo := newTestRepository(store, Options{RequireUser: true})

	for _, text := range []string{"first", "second", "third"} {
		_, err := repo.Create(context.Background(), text, "alice")
		require.NoError(t, err)
	}

	msgs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, "third", msgs[0].Text)
	assert.Equal(t, "second", msgs[1].Text)
	assert.Equal(t, "first", msgs[2].Text)
	for i := 1; i < len(msgs); i++ {
		assert.True(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt),
			"messages must be ordered by createdAt descending")
	}
}

func TestListIdempotentWithoutWrites(t *testing.T) {
	store := newMemStore()
	repo := newTestRepository(store, Options{RequireUser: true})

	for _, text := range []string{"a", "b"} {
		_, err := repo.Create(context.Background(), text, "alice")
		require.NoError(t, err)
	}

	first, err := repo.List(context.Background())
	require.NoError(t, err)
	second, err := repo.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCreatedRecordRoundTrips(t *testing.T) {
	store := newMemStore()
	repo := newTestRepository(store, Options{RequireUser: true})

	created, err := repo.Create(context.Background(), "hello", "alice")
	require.NoError(t, err)

	msgs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, created, msgs[0])
}

func TestListEmptyIsNotNil(t *testing.T) {
	repo := newTestRepository(newMemStore(), Options{RequireUser: true})

	msgs, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestStoreUnavailable(t *testing.T) {
	store := newMemStore()
	store.failing = true
	repo := newTestRepository(store, Options{RequireUser: true})

	_, err := repo.Create(context.Background(), "hello", "alice")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = repo.List(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
