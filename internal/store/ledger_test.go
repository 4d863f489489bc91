package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/pkg/helpers"
)

func emulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLedgerRecordAndRemoveWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := helpers.TestCtx()
	ledger := NewLedger(client)
	uid := "user-" + t.Name()

	bucket := &models.MoneyBucket{Name: "Wallet", Balance: 100}
	if err := ledger.CreateBucket(ctx, uid, bucket); err != nil {
		t.Fatalf("create bucket: %v", err)
	}

	tx := &models.Transaction{Amount: 40, Type: models.TransactionExpense, Category: "food", Date: "2025-01-10", BucketID: bucket.ID}
	err := ledger.RecordTransaction(ctx, uid, tx, func(b *models.MoneyBucket, g *models.Goal) error {
		if g != nil {
			t.Fatalf("no goal expected")
		}
		b.Balance -= tx.Amount
		return nil
	})
	if err != nil {
		t.Fatalf("record transaction: %v", err)
	}

	got, err := ledger.GetBucket(ctx, uid, bucket.ID)
	if err != nil {
		t.Fatalf("get bucket: %v", err)
	}
	if got.Balance != 60 {
		t.Fatalf("balance = %v, want 60", got.Balance)
	}

	txs, err := ledger.ListTransactions(ctx, uid)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != tx.ID {
		t.Fatalf("unexpected transactions: %+v", txs)
	}

	err = ledger.RemoveTransaction(ctx, uid, tx.ID, func(rec *models.Transaction, b *models.MoneyBucket) error {
		b.Balance += rec.Amount
		return nil
	})
	if err != nil {
		t.Fatalf("remove transaction: %v", err)
	}
	got, _ = ledger.GetBucket(ctx, uid, bucket.ID)
	if got.Balance != 100 {
		t.Fatalf("balance after delete = %v, want 100", got.Balance)
	}
}

func TestLedgerOwnershipWithEmulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := helpers.TestCtx()
	ledger := NewLedger(client)

	goal := &models.Goal{Title: "Bike", TargetAmount: 500}
	if err := ledger.CreateGoal(ctx, "owner", goal); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	_, err := ledger.ModifyGoal(ctx, "intruder", goal.ID, func(*models.Goal) error { return nil })
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found for another user, got %v", err)
	}

	goals, err := ledger.ListGoals(ctx, "intruder")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 0 {
		t.Fatalf("intruder should see no goals, got %d", len(goals))
	}
}
