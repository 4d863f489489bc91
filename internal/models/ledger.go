package models

import (
	"time"
)

// Collection names in the remote store.
const (
	CollectionBuckets      = "money_buckets"
	CollectionTransactions = "transactions"
	CollectionGoals        = "goals"
	CollectionDebts        = "debts"
)

type MoneyBucket struct {
	ID        string    `firestore:"id" json:"id"`
	Name      string    `firestore:"name" json:"name"`
	Balance   float64   `firestore:"balance" json:"balance"`
	UserID    string    `firestore:"user_id" json:"user_id"`
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
}

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

type Transaction struct {
	ID             string          `firestore:"id" json:"id"`
	Amount         float64         `firestore:"amount" json:"amount"`
	Type           TransactionType `firestore:"type" json:"type"`
	Category       string          `firestore:"category" json:"category"`
	Description    *string         `firestore:"description,omitempty" json:"description,omitempty"`
	Date           string          `firestore:"date" json:"date"` // YYYY-MM-DD
	BucketID       string          `firestore:"bucket_id" json:"bucket_id"`
	GoalID         *string         `firestore:"goal_id,omitempty" json:"goal_id,omitempty"`
	GoalAllocation *float64        `firestore:"goal_allocation,omitempty" json:"goal_allocation,omitempty"`
	UserID         string          `firestore:"user_id" json:"user_id"`
	CreatedAt      time.Time       `firestore:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `firestore:"updated_at" json:"updated_at"`
}

type Goal struct {
	ID            string    `firestore:"id" json:"id"`
	Title         string    `firestore:"title" json:"title"`
	TargetAmount  float64   `firestore:"target_amount" json:"target_amount"`
	CurrentAmount float64   `firestore:"current_amount" json:"current_amount"`
	Completed     bool      `firestore:"completed" json:"completed"`
	UserID        string    `firestore:"user_id" json:"user_id"`
	CreatedAt     time.Time `firestore:"created_at" json:"created_at"`
	UpdatedAt     time.Time `firestore:"updated_at" json:"updated_at"`
}

type DebtType string

const (
	DebtOwedByMe DebtType = "owed_by_me"
	DebtOwedToMe DebtType = "owed_to_me"
)

func (t DebtType) Valid() bool {
	return t == DebtOwedByMe || t == DebtOwedToMe
}

type Debt struct {
	ID         string    `firestore:"id" json:"id"`
	Amount     float64   `firestore:"amount" json:"amount"`
	PersonName string    `firestore:"person_name" json:"person_name"`
	DueDate    *string   `firestore:"due_date,omitempty" json:"due_date,omitempty"`
	Type       DebtType  `firestore:"type" json:"type"`
	Paid       bool      `firestore:"paid" json:"paid"`
	UserID     string    `firestore:"user_id" json:"user_id"`
	CreatedAt  time.Time `firestore:"created_at" json:"created_at"`
	UpdatedAt  time.Time `firestore:"updated_at" json:"updated_at"`
}

// Snapshot is everything the agent holds for one user; the unit of offline caching.
type Snapshot struct {
	Buckets      []MoneyBucket `json:"buckets"`
	Transactions []Transaction `json:"transactions"`
	Goals        []Goal        `json:"goals"`
	Debts        []Debt        `json:"debts"`
}

// EmptySnapshot has non-nil slices so it serializes as empty arrays.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Buckets:      []MoneyBucket{},
		Transactions: []Transaction{},
		Goals:        []Goal{},
		Debts:        []Debt{},
	}
}
