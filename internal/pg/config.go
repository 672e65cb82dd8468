package pg

import (
	"database/sql"

	"github.com/go-kit/kit/log"
	"github.com/oklog/ulid/v2"
)

// NewClient returns a new Postgres client to manage repositories.
func NewClient(options ...ConfigOption) *Client {
	c := Client{
		logger: log.NewNopLogger(),
	}

	for _, opt := range options {
		opt(&c)
	}

	// Each repository has an embedded client to ensure they
	// use the same connection and are able to share transactions.
	c.challengeRepository = &ChallengeRepository{client: &c}
	c.credentialRepository = &CredentialRepository{client: &c}
	c.userRepository = &UserRepository{client: &c}
	c.auditRepository = &AuditRepository{client: &c}

	c.challengeQ = map[string]string{
		"insert": `
			INSERT INTO passkey_challenge (
				request_id, user_id, email, challenge_type, challenge,
				options, metadata, expires_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at;
		`,
		"byRequestID": `
			SELECT request_id, user_id, email, challenge_type, challenge,
				options, metadata, expires_at, consumed_at, consumed_reason,
				consumed_ip, consumed_user_agent, created_at
			FROM passkey_challenge
			WHERE request_id = $1;
		`,
		"active": `
			SELECT request_id, user_id, email, challenge_type, challenge,
				options, metadata, expires_at, consumed_at, consumed_reason,
				consumed_ip, consumed_user_agent, created_at
			FROM passkey_challenge
			WHERE request_id = $1
			AND consumed_at IS NULL
			AND expires_at > $2;
		`,
		"activeForUpdate": `
			SELECT request_id, user_id, email, challenge_type, challenge,
				options, metadata, expires_at, consumed_at, consumed_reason,
				consumed_ip, consumed_user_agent, created_at
			FROM passkey_challenge
			WHERE request_id = $1
			AND consumed_at IS NULL
			AND expires_at > $2
			FOR UPDATE;
		`,
		"consume": `
			UPDATE passkey_challenge
			SET consumed_at=$2, consumed_reason=$3, consumed_ip=$4,
				consumed_user_agent=$5
			WHERE request_id = $1
			RETURNING request_id, user_id, email, challenge_type, challenge,
				options, metadata, expires_at, consumed_at, consumed_reason,
				consumed_ip, consumed_user_agent, created_at;
		`,
	}

	c.credentialQ = map[string]string{
		"insert": `
			INSERT INTO passkey_credential (
				id, user_id, credential_id, public_key, sign_count,
				name, device_type, is_backed_up, transports, metadata
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at;
		`,
		"byUserID": `
			SELECT id, user_id, credential_id, public_key, sign_count,
				name, device_type, is_backed_up, transports, metadata,
				last_used_at, revoked_at, created_at, updated_at
			FROM passkey_credential
			WHERE user_id = $1
			AND revoked_at IS NULL
			ORDER BY created_at, id;
		`,
		"byCredentialID": `
			SELECT id, user_id, credential_id, public_key, sign_count,
				name, device_type, is_backed_up, transports, metadata,
				last_used_at, revoked_at, created_at, updated_at
			FROM passkey_credential
			WHERE credential_id = $1
			AND revoked_at IS NULL;
		`,
		"updateSignCount": `
			UPDATE passkey_credential
			SET sign_count=$2, last_used_at=$3, updated_at=$3
			WHERE id = $1
			AND revoked_at IS NULL
			RETURNING id, user_id, credential_id, public_key, sign_count,
				name, device_type, is_backed_up, transports, metadata,
				last_used_at, revoked_at, created_at, updated_at;
		`,
		"touchUsage": `
			UPDATE passkey_credential
			SET last_used_at=$2, updated_at=$2
			WHERE id = $1
			AND revoked_at IS NULL
			RETURNING id, user_id, credential_id, public_key, sign_count,
				name, device_type, is_backed_up, transports, metadata,
				last_used_at, revoked_at, created_at, updated_at;
		`,
		"revoke": `
			UPDATE passkey_credential
			SET revoked_at=$2, updated_at=$2,
				metadata = COALESCE(metadata, '{}'::jsonb) ||
					jsonb_build_object('revoke_reason', $3::text)
			WHERE id = $1
			AND revoked_at IS NULL
			RETURNING id, user_id, credential_id, public_key, sign_count,
				name, device_type, is_backed_up, transports, metadata,
				last_used_at, revoked_at, created_at, updated_at;
		`,
	}

	c.userQ = map[string]string{
		"insert": `
			INSERT INTO auth_user (
				id, email, display_name, is_verified
			)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at;
		`,
		"byID": `
			SELECT id, email, display_name, is_verified, created_at, updated_at
			FROM auth_user
			WHERE id = $1;
		`,
		"byEmail": `
			SELECT id, email, display_name, is_verified, created_at, updated_at
			FROM auth_user
			WHERE email = $1;
		`,
	}

	c.auditQ = map[string]string{
		"insert": `
			INSERT INTO audit_event (
				id, entity_type, entity_id, event_type, payload, performed_by
			)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at;
		`,
	}

	return &c
}

// ConfigOption configures the Client.
type ConfigOption func(*Client)

// WithLogger configures the client with a Logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithEntropy configures the client with random entropy
// for generating ULIDs. The reader must be safe to use across
// concurrent requests.
func WithEntropy(entropy ulid.MonotonicReader) ConfigOption {
	return func(c *Client) {
		c.entropy = entropy
	}
}

// WithDB configures the client with an open database handle.
func WithDB(db *sql.DB) ConfigOption {
	return func(c *Client) {
		c.db = db
	}
}
