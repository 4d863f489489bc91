package store

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/savvi-sync/internal/errs"
)

// secretStore reads configuration secrets (the Firebase web API key) from Secret Manager.
type secretStore struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretStore(client *secretmanager.Client, projectID string) *secretStore {
	return &secretStore{client: client, projectID: projectID}
}

// versionName accepts a bare secret id, a secret resource name, or a full version name.
func (s *secretStore) versionName(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.Contains(ref, "/versions/"):
		return ref
	case strings.HasPrefix(ref, "projects/"):
		return ref + "/versions/latest"
	default:
		return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, ref)
	}
}

func (s *secretStore) Resolve(ctx context.Context, ref string) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.versionName(ref),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", errs.NewNotFoundError("secret not found: " + ref)
		}
		return "", errs.NewExternalServiceError("secretmanager", "failed to access secret", status.Code(err) == codes.Unavailable, err)
	}
	return strings.TrimSpace(string(res.Payload.Data)), nil
}
