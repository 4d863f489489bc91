package errs

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is the coarse failure class the session and state machine branch on.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindSchemaMissing
	KindCredential
	KindUnauthenticated
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindSchemaMissing:
		return "schema_missing"
	case KindCredential:
		return "credential"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Fragments that the hosted services put in messages for an unprovisioned relation.
var schemaMissingFragments = []string{"does not exist", "relation", "42P01"}

// Classify maps an error from any layer (SDK, transport, our own types) to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var (
		schemaErr  *SchemaMissingError
		netErr     *NetworkError
		credErr    *CredentialError
		unauthErr  *UnauthenticatedError
		notFound   *NotFoundError
		validation *ValidationError
	)
	switch {
	case errors.As(err, &schemaErr):
		return KindSchemaMissing
	case errors.As(err, &credErr):
		return KindCredential
	case errors.As(err, &unauthErr):
		return KindUnauthenticated
	case errors.As(err, &validation):
		return KindValidation
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &netErr):
		return KindNetwork
	}

	if k, ok := classifyStatus(err); ok {
		return k
	}
	if k, ok := classifyGoogleAPI(err); ok {
		return k
	}

	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return KindNetwork
	}

	msg := err.Error()
	for _, f := range schemaMissingFragments {
		if strings.Contains(msg, f) {
			return KindSchemaMissing
		}
	}
	switch {
	case strings.Contains(msg, "Failed to fetch"), strings.Contains(msg, "NetworkError"):
		return KindNetwork
	case strings.Contains(strings.ToLower(msg), "timeout"):
		return KindTimeout
	}

	if errors.As(err, &notFound) {
		return KindNotFound
	}
	return KindUnknown
}

// classifyStatus reads the gRPC status carried anywhere in err's chain. The
// status's own message is used, not the text of the wrappers around it.
func classifyStatus(err error) (Kind, bool) {
	var carrier interface{ GRPCStatus() *status.Status }
	if !errors.As(err, &carrier) {
		return KindUnknown, false
	}
	st := carrier.GRPCStatus()
	if st == nil || st.Code() == codes.OK || st.Code() == codes.Unknown {
		return KindUnknown, false
	}
	switch st.Code() {
	case codes.Unavailable:
		return KindNetwork, true
	case codes.DeadlineExceeded:
		return KindTimeout, true
	case codes.FailedPrecondition:
		// Firestore answers a query whose composite index was never created this way.
		if strings.Contains(strings.ToLower(st.Message()), "index") {
			return KindSchemaMissing, true
		}
	case codes.Unauthenticated, codes.PermissionDenied:
		return KindUnauthenticated, true
	case codes.NotFound:
		return KindNotFound, true
	case codes.InvalidArgument:
		return KindValidation, true
	}
	return KindUnknown, false
}

func classifyGoogleAPI(err error) (Kind, bool) {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return KindUnknown, false
	}
	switch {
	case gerr.Code == 400 || gerr.Code == 401 || gerr.Code == 403:
		return KindCredential, true
	case gerr.Code == 408 || gerr.Code == 504:
		return KindTimeout, true
	case gerr.Code >= 500:
		return KindNetwork, true
	}
	return KindUnknown, false
}

// IsOffline reports whether err means the remote could not be reached in time.
func IsOffline(err error) bool {
	k := Classify(err)
	return k == KindNetwork || k == KindTimeout
}

func IsSchemaMissing(err error) bool {
	return Classify(err) == KindSchemaMissing
}
