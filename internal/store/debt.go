package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

type debtStore struct {
	client *firestore.Client
}

func NewDebtStore(client *firestore.Client) *debtStore {
	return &debtStore{client: client}
}

func (s *debtStore) collection() *firestore.CollectionRef {
	return s.client.Collection(models.CollectionDebts)
}

func (s *debtStore) List(ctx context.Context, uid string) ([]models.Debt, error) {
	return listOwned[models.Debt](ctx, s.collection(), uid)
}

func (s *debtStore) Get(ctx context.Context, uid, debtID string) (*models.Debt, error) {
	return getOwned[models.Debt](ctx, s.collection().Doc(debtID), uid, "debt")
}

func (s *debtStore) Create(ctx context.Context, uid string, d *models.Debt) error {
	now := time.Now()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.UserID = uid
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.collection().Doc(d.ID).Create(ctx, d); err != nil {
		return errs.NewDatabaseError("create", "failed to create debt", err)
	}
	return nil
}

func (s *debtStore) Modify(ctx context.Context, uid, debtID string, fn func(*models.Debt) error) (*models.Debt, error) {
	ref := s.collection().Doc(debtID)
	var out *models.Debt
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		d, err := getOwnedTx[models.Debt](tx, ref, uid, "debt")
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		d.UpdatedAt = time.Now()
		out = d
		return tx.Set(ref, d)
	})
	if err != nil {
		return nil, writeError("update", "failed to update debt", err)
	}
	return out, nil
}

func (s *debtStore) Delete(ctx context.Context, uid, debtID string) error {
	if _, err := s.Get(ctx, uid, debtID); err != nil {
		return err
	}
	if _, err := s.collection().Doc(debtID).Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete debt", err)
	}
	return nil
}
