package pg

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	auth "github.com/fmitra/passauth"
)

// UserRepository is an implementation of auth.UserRepository.
type UserRepository struct {
	client *Client
}

// ByIdentity retrieves a User by their email or unique ID.
func (r *UserRepository) ByIdentity(ctx context.Context, attribute, value string) (*auth.User, error) {
	var q string

	switch attribute {
	case "ID":
		q = "byID"
	case "Email":
		q = "byEmail"
	default:
		return nil, fmt.Errorf("%s is not a valid query parameter", attribute)
	}

	user := auth.User{}
	row := r.client.queryRowContext(ctx, r.client.userQ[q], value)
	err := row.Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.IsVerified,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Create persists a new User to local storage.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	userID, err := ulid.New(ulid.Now(), r.client.entropy)
	if err != nil {
		return errors.Wrap(err, "cannot generate unique user ID")
	}

	user.ID = userID.String()
	row := r.client.queryRowContext(
		ctx,
		r.client.userQ["insert"],
		user.ID,
		user.Email,
		user.DisplayName,
		user.IsVerified,
	)
	return row.Scan(
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
