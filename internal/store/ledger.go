package store

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/savvi-sync/internal/models"
)

// Ledger is the remote data client over the four collections: the probe and
// list reads the state machine syncs from, and the writes behind them.
type Ledger struct {
	buckets      *bucketStore
	transactions *transactionStore
	goals        *goalStore
	debts        *debtStore
}

func NewLedger(client *firestore.Client) *Ledger {
	return &Ledger{
		buckets:      NewBucketStore(client),
		transactions: NewTransactionStore(client),
		goals:        NewGoalStore(client),
		debts:        NewDebtStore(client),
	}
}

func (l *Ledger) Probe(ctx context.Context, uid string) error {
	return l.buckets.Probe(ctx, uid)
}

func (l *Ledger) ListBuckets(ctx context.Context, uid string) ([]models.MoneyBucket, error) {
	return l.buckets.List(ctx, uid)
}

func (l *Ledger) ListTransactions(ctx context.Context, uid string) ([]models.Transaction, error) {
	return l.transactions.List(ctx, uid)
}

func (l *Ledger) ListGoals(ctx context.Context, uid string) ([]models.Goal, error) {
	return l.goals.List(ctx, uid)
}

func (l *Ledger) ListDebts(ctx context.Context, uid string) ([]models.Debt, error) {
	return l.debts.List(ctx, uid)
}

func (l *Ledger) CreateBucket(ctx context.Context, uid string, b *models.MoneyBucket) error {
	return l.buckets.Create(ctx, uid, b)
}

func (l *Ledger) GetBucket(ctx context.Context, uid, bucketID string) (*models.MoneyBucket, error) {
	return l.buckets.Get(ctx, uid, bucketID)
}

func (l *Ledger) RenameBucket(ctx context.Context, uid, bucketID, name string) (*models.MoneyBucket, error) {
	return l.buckets.Rename(ctx, uid, bucketID, name)
}

func (l *Ledger) DeleteBucket(ctx context.Context, uid, bucketID string) error {
	return l.buckets.Delete(ctx, uid, bucketID)
}

func (l *Ledger) RecordTransaction(ctx context.Context, uid string, t *models.Transaction, apply func(*models.MoneyBucket, *models.Goal) error) error {
	return l.transactions.Record(ctx, uid, t, apply)
}

func (l *Ledger) RemoveTransaction(ctx context.Context, uid, txID string, revert func(*models.Transaction, *models.MoneyBucket) error) error {
	return l.transactions.Remove(ctx, uid, txID, revert)
}

func (l *Ledger) CreateGoal(ctx context.Context, uid string, g *models.Goal) error {
	return l.goals.Create(ctx, uid, g)
}

func (l *Ledger) ModifyGoal(ctx context.Context, uid, goalID string, fn func(*models.Goal) error) (*models.Goal, error) {
	return l.goals.Modify(ctx, uid, goalID, fn)
}

func (l *Ledger) DeleteGoal(ctx context.Context, uid, goalID string) error {
	return l.goals.Delete(ctx, uid, goalID)
}

func (l *Ledger) CreateDebt(ctx context.Context, uid string, d *models.Debt) error {
	return l.debts.Create(ctx, uid, d)
}

func (l *Ledger) ModifyDebt(ctx context.Context, uid, debtID string, fn func(*models.Debt) error) (*models.Debt, error) {
	return l.debts.Modify(ctx, uid, debtID, fn)
}

func (l *Ledger) DeleteDebt(ctx context.Context, uid, debtID string) error {
	return l.debts.Delete(ctx, uid, debtID)
}
