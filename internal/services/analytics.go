package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/pkg/helpers"
)

type snapshotReader interface {
	View() dto.AppView
}

// analyticsService aggregates the in-memory snapshot, so it answers the same
// way online and in offline mode.
type analyticsService struct {
	snapshots snapshotReader
}

func NewAnalyticsService(snapshots snapshotReader) *analyticsService {
	return &analyticsService{snapshots: snapshots}
}

func (s *analyticsService) GetSummary(ctx context.Context) dto.Summary {
	snap := s.snapshots.View().Data

	var out dto.Summary
	for _, b := range snap.Buckets {
		out.TotalBalance = add(out.TotalBalance, b.Balance)
	}
	for _, g := range snap.Goals {
		out.GoalProgress = add(out.GoalProgress, g.CurrentAmount)
		out.GoalTarget = add(out.GoalTarget, g.TargetAmount)
	}
	for _, d := range snap.Debts {
		if d.Paid {
			continue
		}
		switch d.Type {
		case models.DebtOwedByMe:
			out.OwedByMe = add(out.OwedByMe, d.Amount)
		case models.DebtOwedToMe:
			out.OwedToMe = add(out.OwedToMe, d.Amount)
		}
	}

	months := map[string]*dto.MonthSummary{}
	for _, tx := range snap.Transactions {
		key := monthKey(tx.Date)
		if key == "" {
			continue
		}
		m, ok := months[key]
		if !ok {
			m = &dto.MonthSummary{Month: key}
			months[key] = m
		}
		if tx.Type == models.TransactionIncome {
			m.Income = add(m.Income, tx.Amount)
		} else {
			m.Expense = add(m.Expense, tx.Amount)
		}
	}
	out.Monthly = make([]dto.MonthSummary, 0, len(months))
	for _, m := range months {
		out.Monthly = append(out.Monthly, *m)
	}
	sort.Slice(out.Monthly, func(i, j int) bool { return out.Monthly[i].Month < out.Monthly[j].Month })
	return out
}

func (s *analyticsService) GetBreakdown(ctx context.Context, args dto.BreakdownArgs) (dto.BreakdownResult, error) {
	result := dto.BreakdownResult{
		GroupBy: args.GroupBy,
		From:    helpers.ValueOr(args.DateFrom, ""),
		To:      helpers.ValueOr(args.DateTo, ""),
	}
	if err := validateGroupBy(args.GroupBy); err != nil {
		return result, errs.NewValidationError(err.Error())
	}
	for _, d := range []string{result.From, result.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return result, errs.NewValidationError("dates must be YYYY-MM-DD")
		}
	}

	snap := s.snapshots.View().Data
	items := map[string]*dto.BreakdownItem{}
	for _, tx := range snap.Transactions {
		if !matches(tx, args, result.From, result.To) {
			continue
		}
		key := breakdownKey(tx, args.GroupBy)
		if key == "" {
			continue
		}
		item, ok := items[key]
		if !ok {
			item = &dto.BreakdownItem{Key: key}
			items[key] = item
		}
		item.Total = add(item.Total, tx.Amount)
		item.Count++
	}

	result.Items = mapBreakdownItems(items)
	return result, nil
}

func matches(tx models.Transaction, args dto.BreakdownArgs, from, to string) bool {
	if args.Type != nil && tx.Type != *args.Type {
		return false
	}
	if from != "" && tx.Date < from {
		return false
	}
	if to != "" && tx.Date > to {
		return false
	}
	return true
}

func monthKey(date string) string {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return ""
	}
	return d.Format("2006-01")
}

func breakdownKey(tx models.Transaction, groupBy string) string {
	switch groupBy {
	case "category":
		return tx.Category
	case "day":
		return tx.Date
	case "bucket":
		return tx.BucketID
	default:
		return ""
	}
}

// mapBreakdownItems orders items by total, largest first.
func mapBreakdownItems(items map[string]*dto.BreakdownItem) []dto.BreakdownItem {
	out := make([]dto.BreakdownItem, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Key < out[j].Key
	})
	return out
}

var errUnsupportedGroupBy = errors.New("unsupported groupBy")

func validateGroupBy(groupBy string) error {
	switch groupBy {
	case "category", "day", "bucket":
		return nil
	default:
		return errUnsupportedGroupBy
	}
}
