package pg

import (
	"context"
	"fmt"
	"time"

	auth "github.com/fmitra/passauth"
)

// ChallengeRepository is an implementation of auth.ChallengeRepository.
type ChallengeRepository struct {
	client *Client
}

// Create persists a new single-use challenge.
func (r *ChallengeRepository) Create(ctx context.Context, challenge *auth.Challenge) error {
	if challenge.RequestID == "" {
		return auth.ErrInvalidField("challenge request ID cannot be empty")
	}
	if challenge.Type == "" {
		return auth.ErrInvalidField("challenge type cannot be empty")
	}
	if len(challenge.Challenge) == 0 {
		return auth.ErrInvalidField("challenge bytes cannot be empty")
	}
	if challenge.ExpiresAt.IsZero() {
		return auth.ErrInvalidField("challenge expiry cannot be empty")
	}

	row := r.client.queryRowContext(
		ctx,
		r.client.challengeQ["insert"],
		challenge.RequestID,
		challenge.UserID,
		challenge.Email,
		challenge.Type,
		challenge.Challenge,
		nullableJSON(challenge.Options),
		nullableJSON(challenge.Metadata),
		challenge.ExpiresAt,
	)
	return row.Scan(&challenge.CreatedAt)
}

// ByRequestID retrieves a challenge regardless of its state.
func (r *ChallengeRepository) ByRequestID(ctx context.Context, requestID string) (*auth.Challenge, error) {
	return r.get(ctx, "byRequestID", requestID)
}

// GetActive retrieves a challenge only if it is unconsumed and not
// yet past its deadline. Expiry is evaluated lazily on read; there is
// no background sweep.
func (r *ChallengeRepository) GetActive(ctx context.Context, requestID string) (*auth.Challenge, error) {
	return r.get(ctx, "active", requestID, time.Now().UTC())
}

// GetActiveForUpdate retrieves an active challenge with a row lock so
// a second completion attempt blocks until the first transaction ends.
func (r *ChallengeRepository) GetActiveForUpdate(ctx context.Context, requestID string) (*auth.Challenge, error) {
	if r.client.tx == nil {
		return nil, fmt.Errorf("cannot lock challenge outside of transaction")
	}

	return r.get(ctx, "activeForUpdate", requestID, time.Now().UTC())
}

// Consume stamps a challenge with its terminal state. The write is
// unconditional; callers gate it through GetActiveForUpdate in the
// same transaction.
func (r *ChallengeRepository) Consume(ctx context.Context, requestID string, c auth.Consumption) (*auth.Challenge, error) {
	if c.Reason == "" {
		return nil, auth.ErrInvalidField("consume reason cannot be empty")
	}

	challenge := auth.Challenge{}
	row := r.client.queryRowContext(
		ctx,
		r.client.challengeQ["consume"],
		requestID,
		time.Now().UTC(),
		string(c.Reason),
		nullableString(c.IP),
		nullableString(c.UserAgent),
	)
	if err := scanChallenge(row, &challenge); err != nil {
		return nil, err
	}

	return &challenge, nil
}

func (r *ChallengeRepository) get(ctx context.Context, queryKey string, values ...interface{}) (*auth.Challenge, error) {
	challenge := auth.Challenge{}
	row := r.client.queryRowContext(ctx, r.client.challengeQ[queryKey], values...)
	if err := scanChallenge(row, &challenge); err != nil {
		return nil, err
	}

	return &challenge, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChallenge(row rowScanner, challenge *auth.Challenge) error {
	return row.Scan(
		&challenge.RequestID, &challenge.UserID, &challenge.Email,
		&challenge.Type, &challenge.Challenge, &challenge.Options,
		&challenge.Metadata, &challenge.ExpiresAt, &challenge.ConsumedAt,
		&challenge.ConsumedReason, &challenge.ConsumedIP,
		&challenge.ConsumedUserAgent, &challenge.CreatedAt,
	)
}
