package remote

import (
	"context"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

// Unavailable returns a client whose every call fails as a network error
// wrapping reason. The agent keeps running on it and serves cached data.
func Unavailable(reason error) *Client {
	u := unavailable{err: errs.NewNetworkError("remote service unavailable", reason)}
	return &Client{Identity: u, Data: u, Reason: reason}
}

type unavailable struct {
	err error
}

func (u unavailable) GetSession(context.Context) (*models.Session, error) { return nil, u.err }

func (u unavailable) SignIn(context.Context, string, string) (*dto.AuthResponse, error) {
	return nil, u.err
}

func (u unavailable) SignUp(context.Context, dto.SignUpRequest) (*dto.AuthResponse, error) {
	return nil, u.err
}

func (u unavailable) SignOut(context.Context) error { return u.err }

func (u unavailable) ResetPassword(context.Context, string, string) error { return u.err }

func (u unavailable) UpdateProfile(context.Context, string, string) (*models.User, error) {
	return nil, u.err
}

func (u unavailable) Subscribe(func(dto.AuthEvent)) func() { return func() {} }

func (u unavailable) Probe(context.Context, string) error { return u.err }

func (u unavailable) ListBuckets(context.Context, string) ([]models.MoneyBucket, error) {
	return nil, u.err
}

func (u unavailable) ListTransactions(context.Context, string) ([]models.Transaction, error) {
	return nil, u.err
}

func (u unavailable) ListGoals(context.Context, string) ([]models.Goal, error) { return nil, u.err }

func (u unavailable) ListDebts(context.Context, string) ([]models.Debt, error) { return nil, u.err }

func (u unavailable) CreateBucket(context.Context, string, *models.MoneyBucket) error { return u.err }

func (u unavailable) GetBucket(context.Context, string, string) (*models.MoneyBucket, error) {
	return nil, u.err
}

func (u unavailable) RenameBucket(context.Context, string, string, string) (*models.MoneyBucket, error) {
	return nil, u.err
}

func (u unavailable) DeleteBucket(context.Context, string, string) error { return u.err }

func (u unavailable) RecordTransaction(context.Context, string, *models.Transaction, func(*models.MoneyBucket, *models.Goal) error) error {
	return u.err
}

func (u unavailable) RemoveTransaction(context.Context, string, string, func(*models.Transaction, *models.MoneyBucket) error) error {
	return u.err
}

func (u unavailable) CreateGoal(context.Context, string, *models.Goal) error { return u.err }

func (u unavailable) ModifyGoal(context.Context, string, string, func(*models.Goal) error) (*models.Goal, error) {
	return nil, u.err
}

func (u unavailable) DeleteGoal(context.Context, string, string) error { return u.err }

func (u unavailable) CreateDebt(context.Context, string, *models.Debt) error { return u.err }

func (u unavailable) ModifyDebt(context.Context, string, string, func(*models.Debt) error) (*models.Debt, error) {
	return nil, u.err
}

func (u unavailable) DeleteDebt(context.Context, string, string) error { return u.err }
