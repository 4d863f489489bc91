package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/pkg/helpers"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

const dateLayout = "2006-01-02"

type ledgerStore interface {
	CreateBucket(ctx context.Context, uid string, b *models.MoneyBucket) error
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

type snapshotRefresher interface {
	RefreshData(ctx context.Context)
}

// ledgerService is every write the user can make to their data. Bucket balances
// and goal progress only ever change here; each write ends with a refresh of the
// in-memory snapshot.
type ledgerService struct {
	store     ledgerStore
	refresher snapshotRefresher
	clockNow  func() time.Time
}

func NewLedgerService(store ledgerStore, refresher snapshotRefresher) *ledgerService {
	return &ledgerService{
		store:     store,
		refresher: refresher,
		clockNow:  time.Now,
	}
}

func (s *ledgerService) CreateBucket(ctx context.Context, uid string, req dto.BucketRequest) (*models.MoneyBucket, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.NewValidationError("bucket name is required")
	}
	b := &models.MoneyBucket{Name: name, Balance: round2(req.Balance)}
	if err := s.store.CreateBucket(ctx, uid, b); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("bucket created", "bucket_id", b.ID)
	s.refresher.RefreshData(ctx)
	return b, nil
}

func (s *ledgerService) RenameBucket(ctx context.Context, uid, bucketID string, req dto.BucketRequest) (*models.MoneyBucket, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.NewValidationError("bucket name is required")
	}
	b, err := s.store.RenameBucket(ctx, uid, bucketID, name)
	if err != nil {
		return nil, err
	}
	s.refresher.RefreshData(ctx)
	return b, nil
}

func (s *ledgerService) DeleteBucket(ctx context.Context, uid, bucketID string) error {
	if err := s.store.DeleteBucket(ctx, uid, bucketID); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("bucket deleted", "bucket_id", bucketID)
	s.refresher.RefreshData(ctx)
	return nil
}

// CreateTransaction records t and moves its bucket balance: income adds,
// expense subtracts. An allocation to a goal adds to the goal's progress.
func (s *ledgerService) CreateTransaction(ctx context.Context, uid string, req dto.CreateTransactionRequest) (*models.Transaction, error) {
	t, err := s.transactionFrom(req)
	if err != nil {
		return nil, err
	}

	err = s.store.RecordTransaction(ctx, uid, t, func(b *models.MoneyBucket, g *models.Goal) error {
		b.Balance = add(b.Balance, signed(t))
		if g != nil && t.GoalAllocation != nil {
			allocate(g, *t.GoalAllocation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("transaction recorded", "transaction_id", t.ID, "type", t.Type)
	s.refresher.RefreshData(ctx)
	return t, nil
}

// UpdateTransaction replaces a transaction: the old one is reverted and the new
// one applied. A goal keeps only the difference between the two allocations.
func (s *ledgerService) UpdateTransaction(ctx context.Context, uid, txID string, req dto.CreateTransactionRequest) (*models.Transaction, error) {
	log := logger.FromContext(ctx)

	t, err := s.transactionFrom(req)
	if err != nil {
		return nil, err
	}
	t.ID = txID

	var old *models.Transaction
	err = s.store.RemoveTransaction(ctx, uid, txID, func(prev *models.Transaction, b *models.MoneyBucket) error {
		cp := *prev
		old = &cp
		b.Balance = add(b.Balance, -signed(prev))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.store.RecordTransaction(ctx, uid, t, func(b *models.MoneyBucket, g *models.Goal) error {
		b.Balance = add(b.Balance, signed(t))
		if g != nil && t.GoalAllocation != nil {
			amount := *t.GoalAllocation
			if old != nil && old.GoalID != nil && *old.GoalID == g.ID && old.GoalAllocation != nil {
				amount = add(amount, -*old.GoalAllocation)
			}
			allocate(g, amount)
		}
		return nil
	})
	if err != nil {
		log.Error("transaction removed but replacement failed", "transaction_id", txID, "error", err)
		s.refresher.RefreshData(ctx)
		return nil, err
	}

	log.Info("transaction updated", "transaction_id", txID)
	s.refresher.RefreshData(ctx)
	return t, nil
}

// DeleteTransaction removes a transaction and reverses its bucket balance change.
// Goal progress is left as it is.
func (s *ledgerService) DeleteTransaction(ctx context.Context, uid, txID string) error {
	err := s.store.RemoveTransaction(ctx, uid, txID, func(t *models.Transaction, b *models.MoneyBucket) error {
		b.Balance = add(b.Balance, -signed(t))
		return nil
	})
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("transaction deleted", "transaction_id", txID)
	s.refresher.RefreshData(ctx)
	return nil
}

func (s *ledgerService) CreateGoal(ctx context.Context, uid string, req dto.GoalRequest) (*models.Goal, error) {
	if err := validateGoal(req); err != nil {
		return nil, err
	}
	g := &models.Goal{
		Title:         strings.TrimSpace(req.Title),
		TargetAmount:  round2(req.TargetAmount),
		CurrentAmount: round2(helpers.ValueOr(req.CurrentAmount, 0)),
	}
	g.Completed = reached(g)
	if err := s.store.CreateGoal(ctx, uid, g); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("goal created", "goal_id", g.ID)
	s.refresher.RefreshData(ctx)
	return g, nil
}

func (s *ledgerService) UpdateGoal(ctx context.Context, uid, goalID string, req dto.GoalRequest) (*models.Goal, error) {
	if err := validateGoal(req); err != nil {
		return nil, err
	}
	g, err := s.store.ModifyGoal(ctx, uid, goalID, func(g *models.Goal) error {
		g.Title = strings.TrimSpace(req.Title)
		g.TargetAmount = round2(req.TargetAmount)
		if req.CurrentAmount != nil {
			g.CurrentAmount = round2(*req.CurrentAmount)
		}
		g.Completed = reached(g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.refresher.RefreshData(ctx)
	return g, nil
}

func (s *ledgerService) DeleteGoal(ctx context.Context, uid, goalID string) error {
	if err := s.store.DeleteGoal(ctx, uid, goalID); err != nil {
		return err
	}
	s.refresher.RefreshData(ctx)
	return nil
}

func (s *ledgerService) CreateDebt(ctx context.Context, uid string, req dto.DebtRequest) (*models.Debt, error) {
	d := &models.Debt{}
	if err := applyDebt(d, req); err != nil {
		return nil, err
	}
	if err := s.store.CreateDebt(ctx, uid, d); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("debt created", "debt_id", d.ID, "type", d.Type)
	s.refresher.RefreshData(ctx)
	return d, nil
}

func (s *ledgerService) UpdateDebt(ctx context.Context, uid, debtID string, req dto.DebtRequest) (*models.Debt, error) {
	if err := applyDebt(&models.Debt{}, req); err != nil {
		return nil, err
	}
	d, err := s.store.ModifyDebt(ctx, uid, debtID, func(d *models.Debt) error {
		return applyDebt(d, req)
	})
	if err != nil {
		return nil, err
	}
	s.refresher.RefreshData(ctx)
	return d, nil
}

// ToggleDebtPaid flips the paid flag.
func (s *ledgerService) ToggleDebtPaid(ctx context.Context, uid, debtID string) (*models.Debt, error) {
	d, err := s.store.ModifyDebt(ctx, uid, debtID, func(d *models.Debt) error {
		d.Paid = !d.Paid
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("debt paid toggled", "debt_id", debtID, "paid", d.Paid)
	s.refresher.RefreshData(ctx)
	return d, nil
}

func (s *ledgerService) DeleteDebt(ctx context.Context, uid, debtID string) error {
	if err := s.store.DeleteDebt(ctx, uid, debtID); err != nil {
		return err
	}
	s.refresher.RefreshData(ctx)
	return nil
}

func (s *ledgerService) transactionFrom(req dto.CreateTransactionRequest) (*models.Transaction, error) {
	if !req.Type.Valid() {
		return nil, errs.NewValidationError("type must be income or expense")
	}
	if req.Amount < 0 {
		return nil, errs.NewValidationError("amount cannot be negative")
	}
	if strings.TrimSpace(req.BucketID) == "" {
		return nil, errs.NewValidationError("bucket_id is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, errs.NewValidationError("category is required")
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.clockNow().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, errs.NewValidationError("date must be YYYY-MM-DD")
	}

	t := &models.Transaction{
		Amount:      round2(req.Amount),
		Type:        req.Type,
		Category:    strings.TrimSpace(req.Category),
		Description: helpers.NonEmpty(strings.TrimSpace(req.Description)),
		Date:        date,
		BucketID:    req.BucketID,
		GoalID:      helpers.NonEmpty(req.GoalID),
	}
	if t.GoalID != nil && req.GoalAllocation != nil && *req.GoalAllocation != 0 {
		if *req.GoalAllocation < 0 {
			return nil, errs.NewValidationError("goal_allocation cannot be negative")
		}
		t.GoalAllocation = helpers.Ptr(round2(*req.GoalAllocation))
	}
	return t, nil
}

func validateGoal(req dto.GoalRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return errs.NewValidationError("goal title is required")
	}
	if req.TargetAmount <= 0 {
		return errs.NewValidationError("target_amount must be positive")
	}
	if req.CurrentAmount != nil && *req.CurrentAmount < 0 {
		return errs.NewValidationError("current_amount cannot be negative")
	}
	return nil
}

func applyDebt(d *models.Debt, req dto.DebtRequest) error {
	if !req.Type.Valid() {
		return errs.NewValidationError("type must be owed_by_me or owed_to_me")
	}
	if req.Amount <= 0 {
		return errs.NewValidationError("amount must be positive")
	}
	if strings.TrimSpace(req.PersonName) == "" {
		return errs.NewValidationError("person_name is required")
	}
	due := strings.TrimSpace(req.DueDate)
	if due != "" {
		if _, err := time.Parse(dateLayout, due); err != nil {
			return errs.NewValidationError("due_date must be YYYY-MM-DD")
		}
	}

	d.Amount = round2(req.Amount)
	d.PersonName = strings.TrimSpace(req.PersonName)
	d.DueDate = helpers.NonEmpty(due)
	d.Type = req.Type
	return nil
}

// signed is the balance change a transaction causes.
func signed(t *models.Transaction) float64 {
	if t.Type == models.TransactionExpense {
		return -t.Amount
	}
	return t.Amount
}

func allocate(g *models.Goal, amount float64) {
	g.CurrentAmount = add(g.CurrentAmount, amount)
	g.Completed = reached(g)
}

func reached(g *models.Goal) bool {
	return decimal.NewFromFloat(g.CurrentAmount).GreaterThanOrEqual(decimal.NewFromFloat(g.TargetAmount))
}

func add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
