package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

type bucketStore struct {
	client *firestore.Client
}

func NewBucketStore(client *firestore.Client) *bucketStore {
	return &bucketStore{client: client}
}

func (s *bucketStore) collection() *firestore.CollectionRef {
	return s.client.Collection(models.CollectionBuckets)
}

func (s *bucketStore) List(ctx context.Context, uid string) ([]models.MoneyBucket, error) {
	return listOwned[models.MoneyBucket](ctx, s.collection(), uid)
}

func (s *bucketStore) Probe(ctx context.Context, uid string) error {
	return probe(ctx, s.collection(), uid)
}

func (s *bucketStore) Get(ctx context.Context, uid, bucketID string) (*models.MoneyBucket, error) {
	return getOwned[models.MoneyBucket](ctx, s.collection().Doc(bucketID), uid, "bucket")
}

func (s *bucketStore) Create(ctx context.Context, uid string, b *models.MoneyBucket) error {
	now := time.Now()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.UserID = uid
	b.CreatedAt = now
	b.UpdatedAt = now
	if _, err := s.collection().Doc(b.ID).Create(ctx, b); err != nil {
		return errs.NewDatabaseError("create", "failed to create bucket", err)
	}
	return nil
}

// Rename changes the bucket name only; balances move through transactions.
func (s *bucketStore) Rename(ctx context.Context, uid, bucketID, name string) (*models.MoneyBucket, error) {
	ref := s.collection().Doc(bucketID)
	var out *models.MoneyBucket
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		b, err := getOwnedTx[models.MoneyBucket](tx, ref, uid, "bucket")
		if err != nil {
			return err
		}
		b.Name = name
		b.UpdatedAt = time.Now()
		out = b
		return tx.Set(ref, b)
	})
	if err != nil {
		return nil, writeError("update", "failed to update bucket", err)
	}
	return out, nil
}

func (s *bucketStore) Delete(ctx context.Context, uid, bucketID string) error {
	if _, err := s.Get(ctx, uid, bucketID); err != nil {
		return err
	}
	if _, err := s.collection().Doc(bucketID).Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete bucket", err)
	}
	return nil
}
