// Package passauth describes the domain of a passkey (WebAuthn)
// authentication service. It provides passwordless registration and
// sign-in through single-use cryptographic challenges and persisted
// authenticator credentials.
package passauth

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

// ChallengeType describes the ceremony a Challenge belongs to.
type ChallengeType string

const (
	// ChallengeRegistration is issued when a user enrolls a new authenticator.
	ChallengeRegistration ChallengeType = "registration"
	// ChallengeAuthentication is issued when a user signs in with
	// a previously registered authenticator.
	ChallengeAuthentication ChallengeType = "authentication"
)

// ConsumeReason describes the terminal state of a consumed Challenge.
type ConsumeReason string

const (
	// ConsumeCompleted marks a challenge completed through a verified
	// authenticator response.
	ConsumeCompleted ConsumeReason = "completed"
	// ConsumeExpired marks a challenge that passed its deadline.
	ConsumeExpired ConsumeReason = "expired"
	// ConsumeFailed marks a challenge invalidated by a failed ceremony.
	ConsumeFailed ConsumeReason = "failed"
	// ConsumeSuperseded marks a challenge replaced by a newer attempt.
	ConsumeSuperseded ConsumeReason = "superseded"
)

// Challenge is a single-use cryptographic challenge backing one ceremony
// attempt. A challenge is active while it is unconsumed and not yet past
// its deadline. Aside from the consumption fields it is immutable.
type Challenge struct {
	// RequestID is an opaque token and the external handle
	// for a ceremony attempt.
	RequestID string `json:"request_id"`
	// UserID references the user a challenge was issued for. It is
	// always set for registration and resolved at authentication start.
	UserID sql.NullString `json:"user_id"`
	// Email is a point in time snapshot for auditability.
	Email sql.NullString `json:"email"`
	// Type is the ceremony the challenge belongs to.
	Type ChallengeType `json:"type"`
	// Challenge is the raw random value issued by the ceremony engine.
	Challenge []byte `json:"-"`
	// Options is the exact option payload returned to the client,
	// retained for fidelity re-checks.
	Options json.RawMessage `json:"options"`
	// Metadata is caller supplied context such as the issuing IP
	// or user agent.
	Metadata json.RawMessage `json:"metadata"`
	// ExpiresAt is the absolute deadline of the attempt.
	ExpiresAt         time.Time      `json:"expires_at"`
	ConsumedAt        sql.NullTime   `json:"consumed_at"`
	ConsumedReason    sql.NullString `json:"consumed_reason"`
	ConsumedIP        sql.NullString `json:"consumed_ip"`
	ConsumedUserAgent sql.NullString `json:"consumed_user_agent"`
	CreatedAt         time.Time      `json:"created_at"`
}

// IsActive reports whether a challenge may still complete its ceremony.
func (c *Challenge) IsActive(now time.Time) bool {
	return !c.ConsumedAt.Valid && c.ExpiresAt.After(now)
}

// Credential is a registered WebAuthn authenticator belonging to a user.
type Credential struct {
	// ID is a surrogate key for the record.
	ID string `json:"id"`
	// UserID is the owning user.
	UserID string `json:"user_id"`
	// CredentialID is the authenticator issued identifier. It is
	// unique across the whole store, not just per user.
	CredentialID []byte `json:"credential_id"`
	// PublicKey is opaque public key material used to verify assertions.
	PublicKey []byte `json:"-"`
	// SignCount is the monotonic usage counter reported by
	// the authenticator.
	SignCount uint32 `json:"sign_count"`
	// Name is a user friendly label for the authenticator.
	Name string `json:"name"`
	// DeviceType reports whether the credential is bound to a single
	// device or synced across devices.
	DeviceType string `json:"device_type"`
	// IsBackedUp reports whether the credential is currently backed up.
	IsBackedUp bool `json:"is_backed_up"`
	// Transports are hints describing how the authenticator communicates.
	Transports []string        `json:"transports"`
	Metadata   json.RawMessage `json:"metadata"`
	LastUsedAt sql.NullTime    `json:"last_used_at"`
	RevokedAt  sql.NullTime    `json:"revoked_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// User is an account record. Accounts are managed outside of this
// service; the passkey domain only resolves them by ID or email.
type User struct {
	ID          string         `json:"id"`
	Email       sql.NullString `json:"email"`
	DisplayName string         `json:"display_name"`
	IsVerified  bool           `json:"is_verified"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Audit is an immutable domain event keyed by entity type and ID.
type Audit struct {
	ID          string          `json:"id"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	PerformedBy sql.NullString  `json:"performed_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Consumption records how and by whom a challenge was consumed.
type Consumption struct {
	Reason    ConsumeReason
	IP        string
	UserAgent string
}

// RequestContext carries transport metadata used for audit trails only,
// never for authorization decisions.
type RequestContext struct {
	IPAddress string
	UserAgent string
}

// RegistrationResult is the verified outcome of a registration ceremony.
type RegistrationResult struct {
	CredentialID []byte
	PublicKey    []byte
	SignCount    uint32
	DeviceType   string
	IsBackedUp   bool
	Transports   []string
}

// AuthenticationResult is the verified outcome of an authentication
// ceremony.
type AuthenticationResult struct {
	CredentialID []byte
	SignCount    uint32
	// CloneWarning is raised when the authenticator reported a sign
	// count at or below the stored value, a signal the credential
	// may have been cloned.
	CloneWarning bool
}

// CeremonyOptions is the payload returned to a client at ceremony start.
type CeremonyOptions struct {
	RequestID string          `json:"request_id"`
	Options   json.RawMessage `json:"options"`
}

// CeremonyResult is returned after a ceremony completes successfully.
type CeremonyResult struct {
	User       *User       `json:"user"`
	Credential *Credential `json:"credential"`
}

// ChallengeRepository manages the lifecycle of single-use challenges.
type ChallengeRepository interface {
	// Create persists a new challenge.
	Create(ctx context.Context, challenge *Challenge) error
	// ByRequestID retrieves a challenge regardless of state.
	ByRequestID(ctx context.Context, requestID string) (*Challenge, error)
	// GetActive retrieves a challenge only if it is unconsumed and
	// not yet expired.
	GetActive(ctx context.Context, requestID string) (*Challenge, error)
	// GetActiveForUpdate retrieves an active challenge with a row lock.
	// It may only be used inside of a transaction.
	GetActiveForUpdate(ctx context.Context, requestID string) (*Challenge, error)
	// Consume stamps a challenge with its terminal state. Callers must
	// have confirmed the row was active under lock in the same
	// transaction to avoid double consumption.
	Consume(ctx context.Context, requestID string, c Consumption) (*Challenge, error)
}

// CredentialRepository manages registered authenticator credentials.
type CredentialRepository interface {
	// ByUserID returns a user's credentials, excluding revoked ones.
	ByUserID(ctx context.Context, userID string) ([]*Credential, error)
	// ByCredentialID retrieves a credential by its authenticator
	// issued identifier, excluding revoked ones.
	ByCredentialID(ctx context.Context, credentialID []byte) (*Credential, error)
	// Create persists a newly registered credential.
	Create(ctx context.Context, credential *Credential) error
	// UpdateSignCount stores a new authenticator counter value and
	// stamps last usage.
	UpdateSignCount(ctx context.Context, id string, signCount uint32) (*Credential, error)
	// TouchUsage stamps last usage without changing the counter.
	TouchUsage(ctx context.Context, id string) (*Credential, error)
	// Revoke soft deletes a credential. The row is retained
	// for audit history.
	Revoke(ctx context.Context, id, reason string) (*Credential, error)
}

// UserRepository resolves account records.
type UserRepository interface {
	// ByIdentity retrieves a User by a unique attribute, either
	// their ID or email address.
	ByIdentity(ctx context.Context, attribute, value string) (*User, error)
	// Create persists a new User.
	Create(ctx context.Context, u *User) error
}

// AuditRepository appends immutable domain events.
type AuditRepository interface {
	Create(ctx context.Context, audit *Audit) error
}

// RepositoryManager manages repositories stored in persistent storage.
type RepositoryManager interface {
	// NewWithTransaction returns a new manager with a transaction set.
	NewWithTransaction(ctx context.Context) (RepositoryManager, error)
	// WithAtomic performs an operation inside of a transaction,
	// committing on success and rolling back on error.
	WithAtomic(operation func() (interface{}, error)) (interface{}, error)
	Challenge() ChallengeRepository
	Credential() CredentialRepository
	User() UserRepository
	Audit() AuditRepository
}

// CeremonyEngine generates WebAuthn option payloads and verifies
// authenticator responses against a challenge. Cryptographic validation
// is deferred to a trusted library behind this interface.
type CeremonyEngine interface {
	// Enabled reports whether a relying party ID and at least one
	// allowed origin are configured.
	Enabled() bool
	// GenerateRegistrationOptions returns the raw challenge and the
	// option payload for a registration ceremony. Credentials in
	// exclusions cannot be registered a second time.
	GenerateRegistrationOptions(ctx context.Context, user *User, exclusions []*Credential) ([]byte, json.RawMessage, error)
	// VerifyRegistrationResponse validates an attestation response
	// against the expected challenge.
	VerifyRegistrationResponse(ctx context.Context, user *User, challenge, response []byte) (*RegistrationResult, error)
	// GenerateAuthenticationOptions returns the raw challenge and the
	// option payload for an authentication ceremony with an allow list
	// built from the user's credentials.
	GenerateAuthenticationOptions(ctx context.Context, user *User, allowed []*Credential) ([]byte, json.RawMessage, error)
	// VerifyAuthenticationResponse validates an assertion response
	// against the expected challenge and a stored credential.
	VerifyAuthenticationResponse(ctx context.Context, user *User, credential *Credential, challenge, response []byte) (*AuthenticationResult, error)
	// AuthenticationCredentialID extracts the credential ID embedded
	// in an assertion response without verifying it.
	AuthenticationCredentialID(response []byte) ([]byte, error)
}

// PasskeyService orchestrates registration and authentication
// ceremonies across challenge and credential storage.
type PasskeyService interface {
	// IssueRegistration starts a registration ceremony for a user.
	IssueRegistration(ctx context.Context, userID string, metadata map[string]string, rc RequestContext) (*CeremonyOptions, error)
	// CompleteRegistration verifies an attestation response and
	// persists the new credential.
	CompleteRegistration(ctx context.Context, requestID string, response []byte, rc RequestContext) (*CeremonyResult, error)
	// IssueAuthentication starts an authentication ceremony for the
	// account matching an email address.
	IssueAuthentication(ctx context.Context, email string, metadata map[string]string, rc RequestContext) (*CeremonyOptions, error)
	// VerifyAuthentication verifies an assertion response and updates
	// credential usage.
	VerifyAuthentication(ctx context.Context, requestID string, response []byte, rc RequestContext) (*CeremonyResult, error)
	// ListCredentials returns a user's active credentials.
	ListCredentials(ctx context.Context, userID string) ([]*Credential, error)
	// RevokeCredential soft deletes one of a user's credentials.
	RevokeCredential(ctx context.Context, userID, credentialID, reason string, rc RequestContext) (*Credential, error)
}

// PasskeyAPI provides HTTP handlers to manage passkey ceremonies.
type PasskeyAPI interface {
	IssueRegistration(w http.ResponseWriter, r *http.Request) (interface{}, error)
	CompleteRegistration(w http.ResponseWriter, r *http.Request) (interface{}, error)
	IssueAuthentication(w http.ResponseWriter, r *http.Request) (interface{}, error)
	VerifyAuthentication(w http.ResponseWriter, r *http.Request) (interface{}, error)
	ListCredentials(w http.ResponseWriter, r *http.Request) (interface{}, error)
	RevokeCredential(w http.ResponseWriter, r *http.Request) (interface{}, error)
}
