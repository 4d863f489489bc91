package handlers

import (
	"context"
	"log/slog"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/internal/response"
	"github.com/GregMSThompson/savvi-sync/internal/settings"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	SessionSvc      SessionService
	AppSvc          AppService
	SettingsSvc     SettingsService
	LedgerSvc       LedgerService
	AnalyticsSvc    AnalyticsService
}

type SessionService interface {
	View() dto.SessionView
	SignIn(ctx context.Context, email, password string) dto.AuthResult
	SignUp(ctx context.Context, req dto.SignUpRequest) dto.AuthResult
	ResetPassword(ctx context.Context, email string) dto.AuthResult
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, name, avatar string) (*models.User, error)
}

type AppService interface {
	View() dto.AppView
	Retry(ctx context.Context)
	RefreshData(ctx context.Context)
	EnterOfflineMode(ctx context.Context) error
	SetupComplete(ctx context.Context)
}

type SettingsService interface {
	Get() settings.Settings
	Apply(ctx context.Context, req dto.SettingsUpdate) (settings.Settings, error)
	ToggleDarkMode(ctx context.Context) (bool, error)
	FormatCurrency(amount float64, showSymbol bool) string
}

type LedgerService interface {
	CreateBucket(ctx context.Context, uid string, req dto.BucketRequest) (*models.MoneyBucket, error)
	RenameBucket(ctx context.Context, uid, bucketID string, req dto.BucketRequest) (*models.MoneyBucket, error)
	DeleteBucket(ctx context.Context, uid, bucketID string) error

	CreateTransaction(ctx context.Context, uid string, req dto.CreateTransactionRequest) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, uid, txID string, req dto.CreateTransactionRequest) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, uid, txID string) error

	CreateGoal(ctx context.Context, uid string, req dto.GoalRequest) (*models.Goal, error)
	UpdateGoal(ctx context.Context, uid, goalID string, req dto.GoalRequest) (*models.Goal, error)
	DeleteGoal(ctx context.Context, uid, goalID string) error

	CreateDebt(ctx context.Context, uid string, req dto.DebtRequest) (*models.Debt, error)
	UpdateDebt(ctx context.Context, uid, debtID string, req dto.DebtRequest) (*models.Debt, error)
	ToggleDebtPaid(ctx context.Context, uid, debtID string) (*models.Debt, error)
	DeleteDebt(ctx context.Context, uid, debtID string) error
}

type AnalyticsService interface {
	GetSummary(ctx context.Context) dto.Summary
	GetBreakdown(ctx context.Context, args dto.BreakdownArgs) (dto.BreakdownResult, error)
}
