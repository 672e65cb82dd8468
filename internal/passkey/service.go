// Package passkey orchestrates WebAuthn registration and
// authentication ceremonies. Each operation runs inside a single
// transaction so a failed ceremony never leaves a consumed challenge
// or a half written credential behind.
package passkey

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/fmitra/passauth"
	"github.com/fmitra/passauth/internal/random"
)

// Audit event types emitted by the service.
const (
	eventRegistrationStarted   = "user.passkey_registration_started"
	eventRegistered            = "user.passkey_registered"
	eventAuthenticationStarted = "user.passkey_authentication_started"
	eventAuthenticated         = "user.passkey_authenticated"
	eventRevoked               = "user.passkey_revoked"
)

// requestIDLength is the number of random bytes backing an opaque
// ceremony request ID.
const requestIDLength = 32

// defaultCredentialName labels credentials registered without a
// caller supplied name.
const defaultCredentialName = "Passkey"

type service struct {
	logger   log.Logger
	repoMngr auth.RepositoryManager
	engine   auth.CeremonyEngine
	ttl      time.Duration
	now      func() time.Time
}

// challengeMetadata is the free form context persisted with a
// challenge for auditability.
type challengeMetadata struct {
	IPAddress string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// IssueRegistration starts a registration ceremony for a user. It
// returns an opaque request ID together with the option payload the
// client forwards to the authenticator.
func (s *service) IssueRegistration(ctx context.Context, userID string, metadata map[string]string, rc auth.RequestContext) (*auth.CeremonyOptions, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}

	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}

	entity, err := client.WithAtomic(func() (interface{}, error) {
		user, err := s.userByID(ctx, client, userID)
		if err != nil {
			return nil, err
		}

		// Existing credentials become an exclusion list so the same
		// authenticator cannot be registered twice.
		credentials, err := client.Credential().ByUserID(ctx, user.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list user credentials")
		}

		challengeBytes, options, err := s.engine.GenerateRegistrationOptions(ctx, user, credentials)
		if err != nil {
			return nil, err
		}

		requestID, err := random.Token(requestIDLength)
		if err != nil {
			return nil, errors.Wrap(err, "cannot generate request ID")
		}

		challenge := &auth.Challenge{
			RequestID: requestID,
			UserID: sql.NullString{
				String: user.ID,
				Valid:  true,
			},
			Email:     user.Email,
			Type:      auth.ChallengeRegistration,
			Challenge: challengeBytes,
			Options:   options,
			Metadata:  s.marshalMetadata(metadata, rc),
			ExpiresAt: s.now().UTC().Add(s.ttl),
		}
		if err = client.Challenge().Create(ctx, challenge); err != nil {
			return nil, err
		}

		s.audit(ctx, client, user.ID, eventRegistrationStarted, map[string]interface{}{
			"request_id":       requestID,
			"credential_count": len(credentials),
		})

		return &auth.CeremonyOptions{
			RequestID: requestID,
			Options:   options,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return entity.(*auth.CeremonyOptions), nil
}

// CompleteRegistration verifies an attestation response against an
// active challenge and persists the new credential.
func (s *service) CompleteRegistration(ctx context.Context, requestID string, response []byte, rc auth.RequestContext) (*auth.CeremonyResult, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}

	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}

	entity, err := client.WithAtomic(func() (interface{}, error) {
		challenge, err := s.activeChallenge(ctx, client, requestID, auth.ChallengeRegistration)
		if err != nil {
			return nil, err
		}

		user, err := s.userByID(ctx, client, challenge.UserID.String)
		if err != nil {
			return nil, err
		}

		result, err := s.engine.VerifyRegistrationResponse(ctx, user, challenge.Challenge, response)
		if err != nil {
			return nil, errors.Wrap(
				auth.ErrVerification("registration response was rejected"),
				err.Error(),
			)
		}

		credential := &auth.Credential{
			UserID:       user.ID,
			CredentialID: result.CredentialID,
			PublicKey:    result.PublicKey,
			SignCount:    result.SignCount,
			Name:         credentialName(challenge),
			DeviceType:   result.DeviceType,
			IsBackedUp:   result.IsBackedUp,
			Transports:   result.Transports,
			Metadata:     challenge.Metadata,
		}
		if err = client.Credential().Create(ctx, credential); err != nil {
			return nil, err
		}

		_, err = client.Challenge().Consume(ctx, requestID, auth.Consumption{
			Reason:    auth.ConsumeCompleted,
			IP:        rc.IPAddress,
			UserAgent: rc.UserAgent,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to consume challenge")
		}

		s.audit(ctx, client, user.ID, eventRegistered, map[string]interface{}{
			"request_id":    requestID,
			"credential_id": base64.RawURLEncoding.EncodeToString(credential.CredentialID),
		})

		return &auth.CeremonyResult{User: user, Credential: credential}, nil
	})
	if err != nil {
		return nil, err
	}

	return entity.(*auth.CeremonyResult), nil
}

// IssueAuthentication starts an authentication ceremony for the
// account matching an email address.
func (s *service) IssueAuthentication(ctx context.Context, email string, metadata map[string]string, rc auth.RequestContext) (*auth.CeremonyOptions, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, auth.ErrInvalidField("email address is required")
	}

	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}

	entity, err := client.WithAtomic(func() (interface{}, error) {
		user, err := client.User().ByIdentity(ctx, "Email", email)
		if err == sql.ErrNoRows {
			return nil, errors.Wrap(
				auth.ErrNotFound("no account matches this email address"),
				err.Error(),
			)
		}
		if err != nil {
			return nil, err
		}

		credentials, err := client.Credential().ByUserID(ctx, user.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list user credentials")
		}
		if len(credentials) == 0 {
			return nil, auth.ErrEnrollmentRequired("no passkeys are registered for this account")
		}

		challengeBytes, options, err := s.engine.GenerateAuthenticationOptions(ctx, user, credentials)
		if err != nil {
			return nil, err
		}

		requestID, err := random.Token(requestIDLength)
		if err != nil {
			return nil, errors.Wrap(err, "cannot generate request ID")
		}

		challenge := &auth.Challenge{
			RequestID: requestID,
			UserID: sql.NullString{
				String: user.ID,
				Valid:  true,
			},
			Email:     user.Email,
			Type:      auth.ChallengeAuthentication,
			Challenge: challengeBytes,
			Options:   options,
			Metadata:  s.marshalMetadata(metadata, rc),
			ExpiresAt: s.now().UTC().Add(s.ttl),
		}
		if err = client.Challenge().Create(ctx, challenge); err != nil {
			return nil, err
		}

		s.audit(ctx, client, user.ID, eventAuthenticationStarted, map[string]interface{}{
			"request_id":       requestID,
			"credential_count": len(credentials),
		})

		return &auth.CeremonyOptions{
			RequestID: requestID,
			Options:   options,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return entity.(*auth.CeremonyOptions), nil
}

// VerifyAuthentication verifies an assertion response against an
// active challenge and updates credential usage.
func (s *service) VerifyAuthentication(ctx context.Context, requestID string, response []byte, rc auth.RequestContext) (*auth.CeremonyResult, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}

	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}

	entity, err := client.WithAtomic(func() (interface{}, error) {
		challenge, err := s.activeChallenge(ctx, client, requestID, auth.ChallengeAuthentication)
		if err != nil {
			return nil, err
		}

		user, err := s.userByID(ctx, client, challenge.UserID.String)
		if err != nil {
			return nil, err
		}

		credentialID, err := s.engine.AuthenticationCredentialID(response)
		if err != nil {
			return nil, errors.Wrap(
				auth.ErrVerification("authentication response was rejected"),
				err.Error(),
			)
		}

		credential, err := client.Credential().ByCredentialID(ctx, credentialID)
		if err == sql.ErrNoRows {
			return nil, errors.Wrap(
				auth.ErrCredentialNotFound("credential is not registered"),
				err.Error(),
			)
		}
		if err != nil {
			return nil, err
		}

		// The credential lookup is global. A credential belonging to
		// another account must not complete this user's challenge.
		if credential.UserID != user.ID {
			return nil, auth.ErrCredentialNotFound("credential is not registered")
		}

		result, err := s.engine.VerifyAuthenticationResponse(ctx, user, credential, challenge.Challenge, response)
		if err != nil {
			return nil, errors.Wrap(
				auth.ErrVerification("authentication response was rejected"),
				err.Error(),
			)
		}

		// A counter below the stored value is a signal the
		// authenticator may have been cloned. We fail the ceremony
		// rather than log and accept. Counter-less authenticators
		// report zero against a stored zero and pass.
		if result.CloneWarning || result.SignCount < credential.SignCount {
			return nil, auth.ErrVerification("authenticator sign count regressed")
		}

		if result.SignCount != credential.SignCount {
			credential, err = client.Credential().UpdateSignCount(ctx, credential.ID, result.SignCount)
		} else {
			credential, err = client.Credential().TouchUsage(ctx, credential.ID)
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to update credential usage")
		}

		_, err = client.Challenge().Consume(ctx, requestID, auth.Consumption{
			Reason:    auth.ConsumeCompleted,
			IP:        rc.IPAddress,
			UserAgent: rc.UserAgent,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to consume challenge")
		}

		s.audit(ctx, client, user.ID, eventAuthenticated, map[string]interface{}{
			"request_id":    requestID,
			"credential_id": base64.RawURLEncoding.EncodeToString(credential.CredentialID),
		})

		return &auth.CeremonyResult{User: user, Credential: credential}, nil
	})
	if err != nil {
		return nil, err
	}

	return entity.(*auth.CeremonyResult), nil
}

// ListCredentials returns a user's active credentials.
func (s *service) ListCredentials(ctx context.Context, userID string) ([]*auth.Credential, error) {
	user, err := s.userByID(ctx, s.repoMngr, userID)
	if err != nil {
		return nil, err
	}

	return s.repoMngr.Credential().ByUserID(ctx, user.ID)
}

// RevokeCredential soft deletes one of a user's credentials. The row
// is retained for audit history.
func (s *service) RevokeCredential(ctx context.Context, userID, credentialID, reason string, rc auth.RequestContext) (*auth.Credential, error) {
	if reason == "" {
		reason = "user requested"
	}

	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}

	entity, err := client.WithAtomic(func() (interface{}, error) {
		user, err := s.userByID(ctx, client, userID)
		if err != nil {
			return nil, err
		}

		credentials, err := client.Credential().ByUserID(ctx, user.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list user credentials")
		}

		var owned *auth.Credential
		for _, c := range credentials {
			if c.ID == credentialID {
				owned = c
				break
			}
		}
		if owned == nil {
			return nil, auth.ErrCredentialNotFound("credential is not registered")
		}

		credential, err := client.Credential().Revoke(ctx, owned.ID, reason)
		if err != nil {
			return nil, errors.Wrap(err, "failed to revoke credential")
		}

		s.audit(ctx, client, user.ID, eventRevoked, map[string]interface{}{
			"credential_id": base64.RawURLEncoding.EncodeToString(credential.CredentialID),
			"reason":        reason,
		})

		return credential, nil
	})
	if err != nil {
		return nil, err
	}

	return entity.(*auth.Credential), nil
}

// enabled fails fast when passkey support is not configured.
func (s *service) enabled() error {
	if s.engine == nil || !s.engine.Enabled() {
		return auth.ErrConfiguration("passkey support is not configured")
	}
	return nil
}

// userByID resolves a user, mapping a missing row to a domain error.
func (s *service) userByID(ctx context.Context, client auth.RepositoryManager, userID string) (*auth.User, error) {
	user, err := client.User().ByIdentity(ctx, "ID", userID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(auth.ErrNotFound("user does not exist"), err.Error())
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// activeChallenge retrieves a challenge under a row lock so a second
// completion attempt for the same request ID blocks until this
// transaction ends. A missing, consumed, expired, or mismatched
// challenge reports the same expiry error; the distinction is not
// security relevant to the caller.
func (s *service) activeChallenge(ctx context.Context, client auth.RepositoryManager, requestID string, challengeType auth.ChallengeType) (*auth.Challenge, error) {
	challenge, err := client.Challenge().GetActiveForUpdate(ctx, requestID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(
			auth.ErrChallengeExpired("challenge is expired or already used"),
			err.Error(),
		)
	}
	if err != nil {
		return nil, err
	}

	if challenge.Type != challengeType || !challenge.IsActive(s.now()) {
		return nil, auth.ErrChallengeExpired("challenge is expired or already used")
	}

	return challenge, nil
}

// audit appends a domain event inside the ceremony's transaction.
// Recording failures are logged but never abort the ceremony.
func (s *service) audit(ctx context.Context, client auth.RepositoryManager, userID, eventType string, payload map[string]interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		level.Info(s.logger).Log(
			"source", "Passkey.audit",
			"message", "failed to marshal audit payload",
			"error", err,
			"event_type", eventType,
		)
		return
	}

	err = client.Audit().Create(ctx, &auth.Audit{
		EntityType: "user",
		EntityID:   userID,
		EventType:  eventType,
		Payload:    b,
		PerformedBy: sql.NullString{
			String: userID,
			Valid:  userID != "",
		},
	})
	if err != nil {
		level.Info(s.logger).Log(
			"source", "Passkey.audit",
			"message", "failed to record audit event",
			"error", err,
			"event_type", eventType,
			"user_id", userID,
		)
	}
}

// marshalMetadata merges caller supplied context with transport
// metadata for the challenge snapshot.
func (s *service) marshalMetadata(metadata map[string]string, rc auth.RequestContext) json.RawMessage {
	m := challengeMetadata{
		IPAddress: rc.IPAddress,
		UserAgent: rc.UserAgent,
		Context:   metadata,
	}

	b, err := json.Marshal(m)
	if err != nil {
		level.Info(s.logger).Log(
			"source", "Passkey.marshalMetadata",
			"message", "failed to marshal challenge metadata",
			"error", err,
		)
		return nil
	}
	return b
}

// credentialName pulls a caller supplied label out of the challenge
// metadata snapshot, falling back to a default.
func credentialName(challenge *auth.Challenge) string {
	if len(challenge.Metadata) == 0 {
		return defaultCredentialName
	}

	var m challengeMetadata
	if err := json.Unmarshal(challenge.Metadata, &m); err != nil {
		return defaultCredentialName
	}
	if name := strings.TrimSpace(m.Context["credential_name"]); name != "" {
		return name
	}
	return defaultCredentialName
}
