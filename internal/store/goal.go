package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

type goalStore struct {
	client *firestore.Client
}

func NewGoalStore(client *firestore.Client) *goalStore {
	return &goalStore{client: client}
}

func (s *goalStore) collection() *firestore.CollectionRef {
	return s.client.Collection(models.CollectionGoals)
}

func (s *goalStore) List(ctx context.Context, uid string) ([]models.Goal, error) {
	return listOwned[models.Goal](ctx, s.collection(), uid)
}

func (s *goalStore) Get(ctx context.Context, uid, goalID string) (*models.Goal, error) {
	return getOwned[models.Goal](ctx, s.collection().Doc(goalID), uid, "goal")
}

func (s *goalStore) Create(ctx context.Context, uid string, g *models.Goal) error {
	now := time.Now()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.UserID = uid
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.collection().Doc(g.ID).Create(ctx, g); err != nil {
		return errs.NewDatabaseError("create", "failed to create goal", err)
	}
	return nil
}

// Modify loads the goal, lets fn change it and writes it back in one transaction.
func (s *goalStore) Modify(ctx context.Context, uid, goalID string, fn func(*models.Goal) error) (*models.Goal, error) {
	ref := s.collection().Doc(goalID)
	var out *models.Goal
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		g, err := getOwnedTx[models.Goal](tx, ref, uid, "goal")
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
		g.UpdatedAt = time.Now()
		out = g
		return tx.Set(ref, g)
	})
	if err != nil {
		return nil, writeError("update", "failed to update goal", err)
	}
	return out, nil
}

func (s *goalStore) Delete(ctx context.Context, uid, goalID string) error {
	if _, err := s.Get(ctx, uid, goalID); err != nil {
		return err
	}
	if _, err := s.collection().Doc(goalID).Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete goal", err)
	}
	return nil
}
