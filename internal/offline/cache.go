package offline

import (
	"context"

	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

const keyPrefix = "savvi-offline-"

// Key is the local storage key holding the snapshot for uid.
func Key(uid string) string { return keyPrefix + uid }

type kvStore interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Remove(ctx context.Context, key string) error
}

// Cache persists one snapshot per user. Writes replace the previous snapshot.
type Cache struct {
	kv kvStore
}

func New(kv kvStore) *Cache {
	return &Cache{kv: kv}
}

// Load returns the cached snapshot for uid. A snapshot that cannot be read is
// treated as absent.
func (c *Cache) Load(ctx context.Context, uid string) (models.Snapshot, bool) {
	var snap models.Snapshot
	ok, err := c.kv.GetJSON(ctx, Key(uid), &snap)
	if err != nil {
		logger.FromContext(ctx).Warn("discarding unreadable offline snapshot", "uid", uid, "error", err)
		return models.Snapshot{}, false
	}
	if !ok {
		return models.Snapshot{}, false
	}
	return normalize(snap), true
}

// Has reports whether a usable snapshot exists for uid.
func (c *Cache) Has(ctx context.Context, uid string) bool {
	_, ok := c.Load(ctx, uid)
	return ok
}

func (c *Cache) Save(ctx context.Context, uid string, snap models.Snapshot) error {
	return c.kv.SetJSON(ctx, Key(uid), normalize(snap))
}

func (c *Cache) Clear(ctx context.Context, uid string) error {
	return c.kv.Remove(ctx, Key(uid))
}

// normalize turns missing collections into empty ones.
func normalize(s models.Snapshot) models.Snapshot {
	if s.Buckets == nil {
		s.Buckets = []models.MoneyBucket{}
	}
	if s.Transactions == nil {
		s.Transactions = []models.Transaction{}
	}
	if s.Goals == nil {
		s.Goals = []models.Goal{}
	}
	if s.Debts == nil {
		s.Debts = []models.Debt{}
	}
	return s
}
