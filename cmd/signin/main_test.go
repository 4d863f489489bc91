package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
)

type fakeIdentity struct {
	email, password string
	session         *models.Session
	signInErr       error
	signedOut       bool
}

func (f *fakeIdentity) GetSession(ctx context.Context) (*models.Session, error) {
	return f.session, nil
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	f.email, f.password = email, password
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	user := models.User{ID: "u1", Email: email}
	f.session = &models.Session{User: user, AccessToken: "token"}
	return &dto.AuthResponse{User: &user, Session: f.session}, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.signedOut = true
	f.session = nil
	return nil
}

func useIdentity(t *testing.T, id *fakeIdentity) {
	t.Helper()
	prev := connect
	connect = func(context.Context, string) (identity, func(), error) {
		return id, func() {}, nil
	}
	t.Cleanup(func() { connect = prev })
}

func TestRun_SignIn(t *testing.T) {
	id := &fakeIdentity{}
	useIdentity(t, id)
	stdout, stderr, stdin := new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)

	err := run([]string{"-email", "jane@example.com", "-password", "secret"}, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", id.email)
	assert.Equal(t, "secret", id.password)
	assert.Contains(t, stdout.String(), "Signed in as jane@example.com (u1)")
}

func TestRun_InteractivePassword(t *testing.T) {
	id := &fakeIdentity{}
	useIdentity(t, id)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	stdin := bytes.NewBufferString("typed_secret\n")

	err := run([]string{"-email", "jane@example.com"}, stdin, stdout, stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Password: ")
	assert.Equal(t, "typed_secret", id.password)
}

func TestRun_MissingEmail(t *testing.T) {
	useIdentity(t, &fakeIdentity{})
	stdout, stderr, stdin := new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)

	err := run([]string{"-password", "secret"}, stdin, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: email")
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_RejectedCredentials(t *testing.T) {
	useIdentity(t, &fakeIdentity{signInErr: errs.NewCredentialError("INVALID_PASSWORD", "Invalid login credentials")})
	stdout, stderr, stdin := new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)

	err := run([]string{"-email", "jane@example.com", "-password", "wrong"}, stdin, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid login credentials")
}

func TestRun_StatusAndSignOut(t *testing.T) {
	id := &fakeIdentity{session: &models.Session{User: models.User{ID: "u1", Email: "jane@example.com"}}}
	useIdentity(t, id)
	stdout, stderr, stdin := new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)

	require.NoError(t, run([]string{"-status"}, stdin, stdout, stderr))
	assert.Contains(t, stdout.String(), "Signed in as jane@example.com")

	stdout.Reset()
	require.NoError(t, run([]string{"-signout"}, stdin, stdout, stderr))
	assert.True(t, id.signedOut)

	stdout.Reset()
	require.NoError(t, run([]string{"-status"}, stdin, stdout, stderr))
	assert.Contains(t, stdout.String(), "Not signed in")
}
