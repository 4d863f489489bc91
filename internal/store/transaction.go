package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

type transactionStore struct {
	client *firestore.Client
}

func NewTransactionStore(client *firestore.Client) *transactionStore {
	return &transactionStore{client: client}
}

func (s *transactionStore) collection() *firestore.CollectionRef {
	return s.client.Collection(models.CollectionTransactions)
}

func (s *transactionStore) bucketRef(id string) *firestore.DocumentRef {
	return s.client.Collection(models.CollectionBuckets).Doc(id)
}

func (s *transactionStore) goalRef(id string) *firestore.DocumentRef {
	return s.client.Collection(models.CollectionGoals).Doc(id)
}

func (s *transactionStore) List(ctx context.Context, uid string) ([]models.Transaction, error) {
	return listOwned[models.Transaction](ctx, s.collection(), uid)
}

// Record stores t and lets apply adjust its bucket (and goal, when t allocates
// to one) in the same Firestore transaction.
func (s *transactionStore) Record(ctx context.Context, uid string, t *models.Transaction, apply func(*models.MoneyBucket, *models.Goal) error) error {
	now := time.Now()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.UserID = uid
	t.CreatedAt = now
	t.UpdatedAt = now

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		bucket, err := getOwnedTx[models.MoneyBucket](tx, s.bucketRef(t.BucketID), uid, "bucket")
		if err != nil {
			return err
		}
		var goal *models.Goal
		if t.GoalID != nil {
			if goal, err = getOwnedTx[models.Goal](tx, s.goalRef(*t.GoalID), uid, "goal"); err != nil {
				return err
			}
		}

		if err := apply(bucket, goal); err != nil {
			return err
		}

		bucket.UpdatedAt = now
		if err := tx.Create(s.collection().Doc(t.ID), t); err != nil {
			return err
		}
		if err := tx.Set(s.bucketRef(bucket.ID), bucket); err != nil {
			return err
		}
		if goal != nil {
			goal.UpdatedAt = now
			return tx.Set(s.goalRef(goal.ID), goal)
		}
		return nil
	})
	if err != nil {
		return writeError("create", "failed to record transaction", err)
	}
	return nil
}

// Remove deletes the transaction and lets revert undo its effect on the bucket.
// A bucket that no longer exists is left alone.
func (s *transactionStore) Remove(ctx context.Context, uid, txID string, revert func(*models.Transaction, *models.MoneyBucket) error) error {
	log := logger.FromContext(ctx)
	ref := s.collection().Doc(txID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		t, err := getOwnedTx[models.Transaction](tx, ref, uid, "transaction")
		if err != nil {
			return err
		}
		bucket, err := getOwnedTx[models.MoneyBucket](tx, s.bucketRef(t.BucketID), uid, "bucket")
		if err != nil {
			log.Warn("transaction bucket missing, deleting without balance change", "transaction_id", txID, "error", err)
			bucket = nil
		}

		if bucket != nil {
			if err := revert(t, bucket); err != nil {
				return err
			}
			bucket.UpdatedAt = time.Now()
			if err := tx.Set(s.bucketRef(bucket.ID), bucket); err != nil {
				return err
			}
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return writeError("delete", "failed to delete transaction", err)
	}
	return nil
}
