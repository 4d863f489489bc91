package dto

import (
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

// Summary is the dashboard headline: totals over the current snapshot.
type Summary struct {
	TotalBalance float64        `json:"totalBalance"`
	GoalProgress float64        `json:"goalProgress"`
	GoalTarget   float64        `json:"goalTarget"`
	OwedByMe     float64        `json:"owedByMe"`
	OwedToMe     float64        `json:"owedToMe"`
	Monthly      []MonthSummary `json:"monthly"`
}

type MonthSummary struct {
	Month   string  `json:"month"` // YYYY-MM
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type BreakdownArgs struct {
	GroupBy  string                  `json:"groupBy"` // category | day | bucket
	Type     *models.TransactionType `json:"type,omitempty"`
	DateFrom *string                 `json:"dateFrom,omitempty"`
	DateTo   *string                 `json:"dateTo,omitempty"`
}

type BreakdownItem struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

type BreakdownResult struct {
	GroupBy string          `json:"groupBy"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	Items   []BreakdownItem `json:"items"`
}
