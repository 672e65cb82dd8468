package pg

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	auth "github.com/fmitra/passauth"
)

// uniqueViolation is Postgres' error code for a unique constraint failure.
const uniqueViolation = "23505"

// CredentialRepository is an implementation of auth.CredentialRepository.
type CredentialRepository struct {
	client *Client
}

// ByUserID returns a user's credentials, excluding revoked ones. The
// result is ordered by creation for test stability.
func (r *CredentialRepository) ByUserID(ctx context.Context, userID string) ([]*auth.Credential, error) {
	rows, err := r.client.queryContext(ctx, r.client.credentialQ["byUserID"], userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	credentials := make([]*auth.Credential, 0)
	for rows.Next() {
		credential := auth.Credential{}
		if err = scanCredential(rows, &credential); err != nil {
			return nil, err
		}
		credentials = append(credentials, &credential)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return credentials, nil
}

// ByCredentialID retrieves a credential by its authenticator issued
// identifier, excluding revoked ones.
func (r *CredentialRepository) ByCredentialID(ctx context.Context, credentialID []byte) (*auth.Credential, error) {
	credential := auth.Credential{}
	row := r.client.queryRowContext(ctx, r.client.credentialQ["byCredentialID"], credentialID)
	if err := scanCredential(row, &credential); err != nil {
		return nil, err
	}

	return &credential, nil
}

// Create persists a newly registered credential.
func (r *CredentialRepository) Create(ctx context.Context, credential *auth.Credential) error {
	if credential.UserID == "" {
		return auth.ErrInvalidField("credential user ID cannot be empty")
	}
	if len(credential.CredentialID) == 0 {
		return auth.ErrInvalidField("credential ID cannot be empty")
	}
	if len(credential.PublicKey) == 0 {
		return auth.ErrInvalidField("credential public key cannot be empty")
	}

	credentialID, err := ulid.New(ulid.Now(), r.client.entropy)
	if err != nil {
		return errors.Wrap(err, "cannot generate unique credential ID")
	}

	if credential.Transports == nil {
		credential.Transports = []string{}
	}

	credential.ID = credentialID.String()
	row := r.client.queryRowContext(
		ctx,
		r.client.credentialQ["insert"],
		credential.ID,
		credential.UserID,
		credential.CredentialID,
		credential.PublicKey,
		credential.SignCount,
		credential.Name,
		credential.DeviceType,
		credential.IsBackedUp,
		pq.Array(credential.Transports),
		nullableJSON(credential.Metadata),
	)
	err = row.Scan(
		&credential.CreatedAt,
		&credential.UpdatedAt,
	)
	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
		return errors.Wrap(
			auth.ErrInvalidField("credential is already registered"),
			err.Error(),
		)
	}
	return err
}

// UpdateSignCount stores the counter the authenticator reported on a
// successful authentication and stamps last usage.
func (r *CredentialRepository) UpdateSignCount(ctx context.Context, id string, signCount uint32) (*auth.Credential, error) {
	return r.update(ctx, "updateSignCount", id, signCount, time.Now().UTC())
}

// TouchUsage stamps last usage without changing the counter. Used when
// the ceremony engine reports no new counter value.
func (r *CredentialRepository) TouchUsage(ctx context.Context, id string) (*auth.Credential, error) {
	return r.update(ctx, "touchUsage", id, time.Now().UTC())
}

// Revoke soft deletes a credential, stamping the reason into its
// metadata. The row is retained for audit history.
func (r *CredentialRepository) Revoke(ctx context.Context, id, reason string) (*auth.Credential, error) {
	return r.update(ctx, "revoke", id, time.Now().UTC(), reason)
}

func (r *CredentialRepository) update(ctx context.Context, queryKey string, values ...interface{}) (*auth.Credential, error) {
	credential := auth.Credential{}
	row := r.client.queryRowContext(ctx, r.client.credentialQ[queryKey], values...)
	if err := scanCredential(row, &credential); err != nil {
		return nil, err
	}

	return &credential, nil
}

func scanCredential(row rowScanner, credential *auth.Credential) error {
	return row.Scan(
		&credential.ID, &credential.UserID, &credential.CredentialID,
		&credential.PublicKey, &credential.SignCount, &credential.Name,
		&credential.DeviceType, &credential.IsBackedUp,
		pq.Array(&credential.Transports), &credential.Metadata,
		&credential.LastUsedAt, &credential.RevokedAt,
		&credential.CreatedAt, &credential.UpdatedAt,
	)
}
