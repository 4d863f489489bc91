package errs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"deadline", fmt.Errorf("getSession: %w", context.DeadlineExceeded), KindTimeout},
		{"network type", NewNetworkError("remote unavailable", nil), KindNetwork},
		{"fetch message", errors.New("TypeError: Failed to fetch"), KindNetwork},
		{"timeout message", errors.New("Request Timeout"), KindTimeout},
		{"url error", &url.Error{Op: "Post", URL: "https://example.test", Err: errors.New("dial tcp: refused")}, KindNetwork},
		{"grpc unavailable", status.Error(codes.Unavailable, "connection refused"), KindNetwork},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), KindTimeout},
		{"missing index", status.Error(codes.FailedPrecondition, "The query requires an index."), KindSchemaMissing},
		{"wrapped missing index", NewDatabaseError("read", "probe failed", status.Error(codes.FailedPrecondition, "The query requires an index.")), KindSchemaMissing},
		{"wrapped unavailable", fmt.Errorf("list goals: %w", NewDatabaseError("read", "failed to list goals", status.Error(codes.Unavailable, "connection refused"))), KindNetwork},
		{"relation message", errors.New(`relation "public.money_buckets" does not exist`), KindSchemaMissing},
		{"pg code", errors.New("42P01"), KindSchemaMissing},
		{"schema type", NewSchemaMissingError("money_buckets", nil), KindSchemaMissing},
		{"credential", NewCredentialError("INVALID_PASSWORD", "Invalid login credentials"), KindCredential},
		{"googleapi 400", &googleapi.Error{Code: 400, Message: "EMAIL_NOT_FOUND"}, KindCredential},
		{"googleapi 503", &googleapi.Error{Code: 503, Message: "backend"}, KindNetwork},
		{"permission", status.Error(codes.PermissionDenied, "denied"), KindUnauthenticated},
		{"not found type", NewNotFoundError("goal not found"), KindNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsOffline(t *testing.T) {
	if !IsOffline(context.DeadlineExceeded) {
		t.Fatalf("deadline should count as offline")
	}
	if !IsOffline(NewNetworkError("down", nil)) {
		t.Fatalf("network error should count as offline")
	}
	if IsOffline(NewCredentialError("INVALID_PASSWORD", "bad password")) {
		t.Fatalf("credential error should not count as offline")
	}
}
