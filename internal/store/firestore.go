package store

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

// Every collection is top level with a user_id field; list queries filter on it
// and sort on created_at, which needs a composite index per collection.
const (
	fieldOwner     = "user_id"
	fieldCreatedAt = "created_at"
)

func ownedQuery(coll *firestore.CollectionRef, uid string) firestore.Query {
	return coll.Where(fieldOwner, "==", uid).OrderBy(fieldCreatedAt, firestore.Desc)
}

func listOwned[T any](ctx context.Context, coll *firestore.CollectionRef, uid string) ([]T, error) {
	docs, err := ownedQuery(coll, uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, readError(coll.ID, "failed to list "+coll.ID, err)
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.DataTo(&v); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse "+coll.ID+" data", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// probe runs the smallest query the list path runs, so it fails the same way.
func probe(ctx context.Context, coll *firestore.CollectionRef, uid string) error {
	_, err := ownedQuery(coll, uid).Select().Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return readError(coll.ID, "failed to probe "+coll.ID, err)
	}
	return nil
}

type ownedDoc interface {
	models.MoneyBucket | models.Transaction | models.Goal | models.Debt
}

// decodeOwned rejects documents belonging to someone else as not found.
func decodeOwned[T ownedDoc](doc *firestore.DocumentSnapshot, uid, what string) (*T, error) {
	var v T
	if err := doc.DataTo(&v); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse "+what+" data", err)
	}
	if ownerOf(&v) != uid {
		return nil, errs.NewNotFoundError(what + " not found")
	}
	return &v, nil
}

func getOwned[T ownedDoc](ctx context.Context, ref *firestore.DocumentRef, uid, what string) (*T, error) {
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError(what + " not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get "+what, err)
	}
	return decodeOwned[T](doc, uid, what)
}

func getOwnedTx[T ownedDoc](tx *firestore.Transaction, ref *firestore.DocumentRef, uid, what string) (*T, error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError(what + " not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get "+what, err)
	}
	return decodeOwned[T](doc, uid, what)
}

func ownerOf(v any) string {
	switch d := v.(type) {
	case *models.MoneyBucket:
		return d.UserID
	case *models.Transaction:
		return d.UserID
	case *models.Goal:
		return d.UserID
	case *models.Debt:
		return d.UserID
	}
	return ""
}

func readError(collection, message string, err error) error {
	st, ok := status.FromError(err)
	if ok && st.Code() == codes.FailedPrecondition {
		return errs.NewSchemaMissingError(collection, err)
	}
	return errs.NewDatabaseError("read", message, err)
}

// writeError keeps errors we raised ourselves inside a transaction intact.
func writeError(op, message string, err error) error {
	var (
		notFound   *errs.NotFoundError
		validation *errs.ValidationError
	)
	if errors.As(err, &notFound) || errors.As(err, &validation) {
		return err
	}
	return errs.NewDatabaseError(op, message, err)
}
