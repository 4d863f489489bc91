package errs

import "fmt"

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type AlreadyExistsError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// UnauthenticatedError is returned when an operation needs a signed-in user and there is none.
type UnauthenticatedError struct {
	ErrorMessage
}

// CredentialError is a rejection by the identity provider (bad password, unknown email, unconfirmed account).
type CredentialError struct {
	ErrorMessage
	Reason string
}

// NetworkError marks a failure to reach the remote service at all.
type NetworkError struct {
	ErrorMessage
	Err error
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SchemaMissingError means the remote collections (or the indexes they need) are not provisioned yet.
type SchemaMissingError struct {
	ErrorMessage
	Collection string
	Err        error
}

func (e *SchemaMissingError) Unwrap() error { return e.Err }

type DatabaseError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *DatabaseError) Unwrap() error { return e.Err }

type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
	Err       error
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

type EncryptionError struct {
	ErrorMessage
	Err error
}

func (e *EncryptionError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewUnauthenticatedError() *UnauthenticatedError {
	return &UnauthenticatedError{
		ErrorMessage: ErrorMessage{Message: "not signed in"},
	}
}

func NewCredentialError(reason, message string) *CredentialError {
	return &CredentialError{
		ErrorMessage: ErrorMessage{Message: message},
		Reason:       reason,
	}
}

func NewNetworkError(message string, err error) *NetworkError {
	return &NetworkError{
		ErrorMessage: ErrorMessage{Message: message},
		Err:          err,
	}
}

func NewSchemaMissingError(collection string, err error) *SchemaMissingError {
	return &SchemaMissingError{
		ErrorMessage: ErrorMessage{Message: fmt.Sprintf("collection %q is not provisioned", collection)},
		Collection:   collection,
		Err:          err,
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}

func NewExternalServiceError(service, message string, transient bool, err error) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
		Err:          err,
	}
}

func NewEncryptionError(message string, err error) *EncryptionError {
	return &EncryptionError{
		ErrorMessage: ErrorMessage{Message: message},
		Err:          err,
	}
}
