package remote

import (
	"context"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

// Identity is the hosted authentication service as the agent uses it.
type Identity interface {
	GetSession(ctx context.Context) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*dto.AuthResponse, error)
	SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email, redirectURL string) error
	UpdateProfile(ctx context.Context, name, avatar string) (*models.User, error)
	Subscribe(fn func(dto.AuthEvent)) func()
}

// Data is the hosted document store holding the four ledger collections.
type Data interface {
	Probe(ctx context.Context, uid string) error
	ListBuckets(ctx context.Context, uid string) ([]models.MoneyBucket, error)
	ListTransactions(ctx context.Context, uid string) ([]models.Transaction, error)
	ListGoals(ctx context.Context, uid string) ([]models.Goal, error)
	ListDebts(ctx context.Context, uid string) ([]models.Debt, error)

	CreateBucket(ctx context.Context, uid string, b *models.MoneyBucket) error
	GetBucket(ctx context.Context, uid, bucketID string) (*models.MoneyBucket, error)
	RenameBucket(ctx context.Context, uid, bucketID, name string) (*models.MoneyBucket, error)
	DeleteBucket(ctx context.Context, uid, bucketID string) error

	RecordTransaction(ctx context.Context, uid string, t *models.Transaction, apply func(*models.MoneyBucket, *models.Goal) error) error
	RemoveTransaction(ctx context.Context, uid, txID string, revert func(*models.Transaction, *models.MoneyBucket) error) error

	CreateGoal(ctx context.Context, uid string, g *models.Goal) error
	ModifyGoal(ctx context.Context, uid, goalID string, fn func(*models.Goal) error) (*models.Goal, error)
	DeleteGoal(ctx context.Context, uid, goalID string) error

	CreateDebt(ctx context.Context, uid string, d *models.Debt) error
	ModifyDebt(ctx context.Context, uid, debtID string, fn func(*models.Debt) error) (*models.Debt, error)
	DeleteDebt(ctx context.Context, uid, debtID string) error
}

// Client is the one remote data client shared by the whole agent.
type Client struct {
	Identity Identity
	Data     Data

	// Reason is set when the client could not be built and every call fails.
	Reason error
}

func New(identity Identity, data Data) *Client {
	return &Client{Identity: identity, Data: data}
}

// Available reports whether the client talks to the real services.
func (c *Client) Available() bool {
	return c.Reason == nil
}
