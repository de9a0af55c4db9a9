package dedup

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/akozyreva/stockbot-backend/pkg/redis"
)

const telegramScope = "telegram"

// Guard filters webhook deliveries that were already handled. Telegram
// retries a delivery until it gets a 200, so the same update id can arrive
// more than once.
type Guard interface {
	// CheckAndMark reports whether the update was seen before and, if not,
	// marks it as seen.
	CheckAndMark(ctx context.Context, updateID int64) (bool, error)
	// Forget drops the seen mark so a failed update is retried on the next
	// delivery.
	Forget(ctx context.Context, updateID int64) error
}

// Manager tracks processed update ids in Redis using SETNX with a TTL.
// Keys follow the `sb:dedup:telegram:<update_id>` pattern.
type Manager struct {
	store redis.DedupStore
	ttl   time.Duration
}

// NewManager builds a guard that marks updates as seen for the given TTL.
func NewManager(store redis.DedupStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("dedup store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

func (m *Manager) CheckAndMark(ctx context.Context, updateID int64) (bool, error) {
	set, err := m.store.SetNX(ctx, m.key(updateID), "1", m.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

func (m *Manager) Forget(ctx context.Context, updateID int64) error {
	return m.store.Del(ctx, m.key(updateID))
}

func (m *Manager) key(updateID int64) string {
	return m.store.DedupKey(telegramScope, strconv.FormatInt(updateID, 10))
}

// MemoryGuard keeps seen update ids in process memory. Used when Redis is
// not configured; marks do not survive a restart.
type MemoryGuard struct {
	mu   sync.Mutex
	seen map[int64]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryGuard builds an in-process guard with the given TTL.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{
		seen: make(map[int64]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (g *MemoryGuard) CheckAndMark(_ context.Context, updateID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.prune(now)

	if _, ok := g.seen[updateID]; ok {
		return true, nil
	}
	g.seen[updateID] = now
	return false, nil
}

func (g *MemoryGuard) Forget(_ context.Context, updateID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, updateID)
	return nil
}

func (g *MemoryGuard) prune(now time.Time) {
	if g.ttl <= 0 {
		return
	}
	for id, at := range g.seen {
		if now.Sub(at) > g.ttl {
			delete(g.seen, id)
		}
	}
}
