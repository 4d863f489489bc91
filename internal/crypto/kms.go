package crypto

import (
	"context"
	"encoding/base64"
	"strings"

	gcpkms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/googleapis/gax-go/v2"

	"github.com/GregMSThompson/savvi-sync/internal/errs"
)

// Values sealed with KMS carry this prefix so a later run can tell them from plaintext.
const kmsPrefix = "kms:"

type kmsAPI interface {
	Encrypt(ctx context.Context, req *kmspb.EncryptRequest, opts ...gax.CallOption) (*kmspb.EncryptResponse, error)
	Decrypt(ctx context.Context, req *kmspb.DecryptRequest, opts ...gax.CallOption) (*kmspb.DecryptResponse, error)
}

type kms struct {
	client  kmsAPI
	keyName string
}

func NewKMS(client *gcpkms.KeyManagementClient, keyName string) *kms {
	return &kms{client: client, keyName: keyName}
}

// Seal encrypts plaintext with the configured key.
func (k *kms) Seal(ctx context.Context, plaintext string) (string, error) {
	resp, err := k.client.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:      k.keyName,
		Plaintext: []byte(plaintext),
	})
	if err != nil {
		return "", errs.NewEncryptionError("failed to seal credential", err)
	}
	return kmsPrefix + base64.StdEncoding.EncodeToString(resp.Ciphertext), nil
}

// Open decrypts a sealed value. Unsealed values pass through.
func (k *kms) Open(ctx context.Context, sealed string) (string, error) {
	if !strings.HasPrefix(sealed, kmsPrefix) {
		return sealed, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, kmsPrefix))
	if err != nil {
		return "", errs.NewEncryptionError("sealed credential is not valid base64", err)
	}
	resp, err := k.client.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:       k.keyName,
		Ciphertext: raw,
	})
	if err != nil {
		return "", errs.NewEncryptionError("failed to open credential", err)
	}
	return string(resp.Plaintext), nil
}

type plain struct{}

// NewPlain is used when no KMS key is configured. It cannot open KMS-sealed values.
func NewPlain() plain { return plain{} }

func (plain) Seal(_ context.Context, plaintext string) (string, error) { return plaintext, nil }

func (plain) Open(_ context.Context, sealed string) (string, error) {
	if strings.HasPrefix(sealed, kmsPrefix) {
		return "", errs.NewEncryptionError("credential was sealed with KMS but no key is configured", nil)
	}
	return sealed, nil
}
