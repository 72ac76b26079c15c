package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/pkg/hockey"
)

// ErrPendingNotFound means the id is unknown, already approved or expired
var ErrPendingNotFound = errors.New("pending import not found")

// PendingBatch is an import held back until someone approves it. Either Games or
// GameIDs is set; ids are fetched from the feed once approved.
type PendingBatch struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Games     []hockey.RawGame `json:"games,omitempty"`
	GameIDs   []string         `json:"game_ids,omitempty"`
	Options   Options          `json:"options"`
}

// Size is the number of games the batch would import
func (b PendingBatch) Size() int {
	return len(b.Games) + len(b.GameIDs)
}

// PendingStore keeps batches awaiting approval. Entries expire after the store's TTL.
type PendingStore interface {
	Put(ctx context.Context, batch PendingBatch) error
	// Take returns the batch and removes it, so a batch can only be approved once
	Take(ctx context.Context, id string) (PendingBatch, error)
	// Sweep drops expired entries and returns how many went
	Sweep(ctx context.Context) (int, error)
}

type memEntry struct {
	batch   PendingBatch
	expires time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// MemoryPending is a process local PendingStore
type MemoryPending struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memEntry
	now   func() time.Time
}

// NewMemoryPending keeps batches for ttl. A ttl of zero or less keeps them until taken.
func NewMemoryPending(ttl time.Duration) *MemoryPending {
	return &MemoryPending{ttl: ttl, items: map[string]memEntry{}, now: time.Now}
}

func (s *MemoryPending) Put(_ context.Context, batch PendingBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memEntry{batch: batch}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.items[batch.ID] = e
	return nil
}

func (s *MemoryPending) Take(_ context.Context, id string) (PendingBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return PendingBatch{}, ErrPendingNotFound
	}
	delete(s.items, id)
	if e.expired(s.now()) {
		return PendingBatch{}, ErrPendingNotFound
	}
	return e.batch, nil
}

func (s *MemoryPending) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.items {
		if e.expired(now) {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

// RedisPending shares pending batches between processes. Redis expires the keys, so
// Sweep has nothing to do.
type RedisPending struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

// NewRedisPending connects to the redis url, e.g. redis://localhost:6379/0
func NewRedisPending(url string, ttl time.Duration) (*RedisPending, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisPending{Client: redis.NewClient(opt), TTL: ttl, Prefix: "hockey:pending:"}, nil
}

func (s *RedisPending) Put(ctx context.Context, batch PendingBatch) error {
	b, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode pending batch: %w", err)
	}
	return s.Client.Set(ctx, s.Prefix+batch.ID, b, s.TTL).Err()
}

func (s *RedisPending) Take(ctx context.Context, id string) (PendingBatch, error) {
	b, err := s.Client.GetDel(ctx, s.Prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingBatch{}, ErrPendingNotFound
	}
	if err != nil {
		return PendingBatch{}, err
	}
	var batch PendingBatch
	if err := json.Unmarshal(b, &batch); err != nil {
		return PendingBatch{}, fmt.Errorf("failed to decode pending batch %s: %w", id, err)
	}
	return batch, nil
}

func (s *RedisPending) Sweep(_ context.Context) (int, error) {
	return 0, nil
}

// Close releases the redis connection pool
func (s *RedisPending) Close() error {
	if err := s.Client.Close(); err != nil {
		logger.Warn("Failed to close redis client", err)
		return err
	}
	return nil
}
