package appstate

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/pkg/helpers"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

// fetch loads the four collections concurrently, each under its own timeout.
// A collection that fails comes back empty and is named in failed.
func (m *Machine) fetch(ctx context.Context, uid string) (models.Snapshot, []string) {
	log := logger.FromContext(ctx)
	snap := models.EmptySnapshot()

	var (
		mu     sync.Mutex
		failed []string
	)
	fail := func(collection string, err error) {
		log.Warn("failed to load collection", "collection", collection, "error", err)
		mu.Lock()
		failed = append(failed, collection)
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		v, err := helpers.Race(ctx, m.opts.FetchTimeout, "buckets", func(ctx context.Context) ([]models.MoneyBucket, error) {
			return m.data.ListBuckets(ctx, uid)
		})
		if err != nil {
			fail(models.CollectionBuckets, err)
		} else if v != nil {
			snap.Buckets = v
		}
		return nil
	})
	g.Go(func() error {
		v, err := helpers.Race(ctx, m.opts.FetchTimeout, "transactions", func(ctx context.Context) ([]models.Transaction, error) {
			return m.data.ListTransactions(ctx, uid)
		})
		if err != nil {
			fail(models.CollectionTransactions, err)
		} else if v != nil {
			snap.Transactions = v
		}
		return nil
	})
	g.Go(func() error {
		v, err := helpers.Race(ctx, m.opts.FetchTimeout, "goals", func(ctx context.Context) ([]models.Goal, error) {
			return m.data.ListGoals(ctx, uid)
		})
		if err != nil {
			fail(models.CollectionGoals, err)
		} else if v != nil {
			snap.Goals = v
		}
		return nil
	})
	g.Go(func() error {
		v, err := helpers.Race(ctx, m.opts.FetchTimeout, "debts", func(ctx context.Context) ([]models.Debt, error) {
			return m.data.ListDebts(ctx, uid)
		})
		if err != nil {
			fail(models.CollectionDebts, err)
		} else if v != nil {
			snap.Debts = v
		}
		return nil
	})
	_ = g.Wait()

	log.Info("data loaded",
		"buckets", len(snap.Buckets),
		"transactions", len(snap.Transactions),
		"goals", len(snap.Goals),
		"debts", len(snap.Debts),
		"failed", len(failed),
	)
	return snap, failed
}

// merge fills the collections named in failed from prior.
func merge(fresh, prior models.Snapshot, failed []string) models.Snapshot {
	for _, c := range failed {
		switch c {
		case models.CollectionBuckets:
			fresh.Buckets = prior.Buckets
		case models.CollectionTransactions:
			fresh.Transactions = prior.Transactions
		case models.CollectionGoals:
			fresh.Goals = prior.Goals
		case models.CollectionDebts:
			fresh.Debts = prior.Debts
		}
	}
	return fresh
}
