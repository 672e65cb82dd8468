// Package pg provides Postgres repositories for the passauth domain.
package pg

import (
	"context"
	"database/sql"

	"github.com/go-kit/kit/log"
	// pq driver registers itself as being available to the database/sql package.
	_ "github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	auth "github.com/fmitra/passauth"
)

// Client represents a client for PostgreSQL.
type Client struct {
	db      *sql.DB
	tx      *sql.Tx
	entropy ulid.MonotonicReader
	logger  log.Logger

	challengeRepository *ChallengeRepository
	challengeQ          map[string]string

	credentialRepository *CredentialRepository
	credentialQ          map[string]string

	userRepository *UserRepository
	userQ          map[string]string

	auditRepository *AuditRepository
	auditQ          map[string]string
}

// Open connects to PostgreSQL.
func (c *Client) Open(dataSourceName string) error {
	var err error

	c.logger.Log("level", "debug", "msg", "connecting to db")
	if c.db, err = sql.Open("postgres", dataSourceName); err != nil {
		return err
	}
	if err = c.db.Ping(); err != nil {
		return err
	}
	c.logger.Log("level", "debug", "msg", "connected to db")

	return nil
}

// Close closes PostgreSQL connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// NewWithTransaction starts a transaction and returns a client
// with the transaction set.
func (c *Client) NewWithTransaction(ctx context.Context) (auth.RepositoryManager, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	newClient := *c
	newClient.tx = tx
	newClient.challengeRepository = &ChallengeRepository{client: &newClient}
	newClient.credentialRepository = &CredentialRepository{client: &newClient}
	newClient.userRepository = &UserRepository{client: &newClient}
	newClient.auditRepository = &AuditRepository{client: &newClient}
	return &newClient, nil
}

// WithAtomic performs an operation within a transaction. If the operation
// is successful it commits it, otherwise the operation will be rolledback.
func (c *Client) WithAtomic(operation func() (interface{}, error)) (interface{}, error) {
	if c.tx == nil {
		return nil, errors.New("cannot complete operation outside of transaction")
	}

	entity, err := operation()

	defer func() {
		c.tx = nil
	}()

	if err == nil {
		return entity, errors.Wrap(c.tx.Commit(), "commit failed")
	}

	if dbErr := c.tx.Rollback(); dbErr != nil {
		err = errors.Wrap(err, dbErr.Error())
	}

	return nil, err
}

// Challenge returns the ChallengeRepository.
func (c *Client) Challenge() auth.ChallengeRepository {
	return c.challengeRepository
}

// Credential returns the CredentialRepository.
func (c *Client) Credential() auth.CredentialRepository {
	return c.credentialRepository
}

// User returns the UserRepository.
func (c *Client) User() auth.UserRepository {
	return c.userRepository
}

// Audit returns the AuditRepository.
func (c *Client) Audit() auth.AuditRepository {
	return c.auditRepository
}

// queryRowContext runs a query against an open transaction if available,
// falling back to the default DB handle otherwise.
func (c *Client) queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if c.tx != nil {
		return c.tx.QueryRowContext(ctx, query, args...)
	}
	return c.db.QueryRowContext(ctx, query, args...)
}

// queryContext runs a query against an open transaction if available,
// falling back to the default DB handle otherwise.
func (c *Client) queryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if c.tx != nil {
		return c.tx.QueryContext(ctx, query, args...)
	}
	return c.db.QueryContext(ctx, query, args...)
}
