package dto

import (
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

type CreateTransactionRequest struct {
	Amount         float64                `json:"amount"`
	Type           models.TransactionType `json:"type"`
	Category       string                 `json:"category"`
	Description    string                 `json:"description,omitempty"`
	Date           string                 `json:"date"`
	BucketID       string                 `json:"bucket_id"`
	GoalID         string                 `json:"goal_id,omitempty"`
	GoalAllocation *float64               `json:"goal_allocation,omitempty"`
}

type BucketRequest struct {
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type GoalRequest struct {
	Title         string   `json:"title"`
	TargetAmount  float64  `json:"target_amount"`
	CurrentAmount *float64 `json:"current_amount,omitempty"`
}

type DebtRequest struct {
	Amount     float64         `json:"amount"`
	PersonName string          `json:"person_name"`
	DueDate    string          `json:"due_date,omitempty"`
	Type       models.DebtType `json:"type"`
}

type SettingsUpdate struct {
	Language *string `json:"language,omitempty"`
	Currency *string `json:"currency,omitempty"`
	DarkMode *bool   `json:"darkMode,omitempty"`
}
