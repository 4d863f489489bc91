package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
	}); err != nil {
		// Use context logger if encoding fails
		log := logger.FromContext(r.Context())
		log.Error("failed to encode error response", "error", err, "status", status, "code", code)
	}
}

func (h *responseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	switch e := rootError(err).(type) {
	case *errs.NotFoundError:
		log.Warn("resource not found", "error", e.Message)
		h.WriteError(w, r, http.StatusNotFound, "not_found", e.Message)

	case *errs.AlreadyExistsError:
		log.Warn("resource already exists", "error", e.Message)
		h.WriteError(w, r, http.StatusConflict, "already_exists", e.Message)

	case *errs.ValidationError:
		log.Warn("validation failed", "error", e.Message)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_input", e.Message)

	case *json.SyntaxError, *json.UnmarshalTypeError:
		log.Warn("malformed request body", "error", err)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_input", "Malformed request body")

	case *errs.UnauthenticatedError:
		log.Warn("no signed-in user")
		h.WriteError(w, r, http.StatusUnauthorized, "unauthenticated", "Sign in first")

	case *errs.CredentialError:
		log.Warn("credentials rejected", "reason", e.Reason)
		h.WriteError(w, r, http.StatusUnauthorized, "invalid_credentials", e.Message)

	case *errs.SchemaMissingError:
		log.Warn("remote collections not provisioned", "collection", e.Collection)
		h.WriteError(w, r, http.StatusConflict, "needs_setup", e.Message)

	case *errs.NetworkError:
		log.Warn("remote unreachable", "error", err)
		h.WriteError(w, r, http.StatusServiceUnavailable, "offline",
			"Remote service unreachable")

	case *errs.DatabaseError:
		log.Error("database error",
			"operation", e.Operation,
			"error", e.Message)
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An error occurred")

	case *errs.ExternalServiceError:
		level := slog.LevelError
		if e.Transient {
			level = slog.LevelWarn
		}
		log.Log(r.Context(), level, "external service error",
			"service", e.Service,
			"transient", e.Transient,
			"error", e.Message)

		status := http.StatusBadGateway
		if e.Transient {
			status = http.StatusServiceUnavailable
		}
		h.WriteError(w, r, status, "service_unavailable",
			"Service temporarily unavailable")

	case *errs.EncryptionError:
		log.Error("encryption error", "error", e.Message)
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An error occurred")

	default:
		if errs.IsOffline(err) {
			log.Warn("remote call did not finish", "error", err)
			h.WriteError(w, r, http.StatusServiceUnavailable, "offline",
				"Remote service unreachable")
			return
		}
		log.Error("unexpected error",
			"error", err,
			"type", fmt.Sprintf("%T", err))
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An unexpected error occurred")
	}
}

// rootError finds the first error in the chain that HandleError knows how to
// answer, so wrapped errors get the same status as bare ones.
func rootError(err error) error {
	var (
		notFound   *errs.NotFoundError
		exists     *errs.AlreadyExistsError
		validation *errs.ValidationError
		syntax     *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		unauth     *errs.UnauthenticatedError
		cred       *errs.CredentialError
		schema     *errs.SchemaMissingError
		network    *errs.NetworkError
		database   *errs.DatabaseError
		external   *errs.ExternalServiceError
		encryption *errs.EncryptionError
	)
	switch {
	case errors.As(err, &notFound):
		return notFound
	case errors.As(err, &exists):
		return exists
	case errors.As(err, &validation):
		return validation
	case errors.As(err, &syntax):
		return syntax
	case errors.As(err, &typeErr):
		return typeErr
	case errors.As(err, &unauth):
		return unauth
	case errors.As(err, &cred):
		return cred
	case errors.As(err, &schema):
		return schema
	case errors.As(err, &network):
		return network
	case errors.As(err, &database):
		return database
	case errors.As(err, &external):
		return external
	case errors.As(err, &encryption):
		return encryption
	}
	return err
}
