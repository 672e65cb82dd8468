// Package webauthn implements a WebAuthn ceremony engine. Under the
// hood it defers cryptographic validation to the go-webauthn library
// and wraps the service's domain entities to provide compatibility
// with the third party library.
package webauthn

import (
	"context"
	"encoding/base64"
	"encoding/json"

	webauthnProto "github.com/go-webauthn/webauthn/protocol"
	webauthnLib "github.com/go-webauthn/webauthn/webauthn"
	"github.com/pkg/errors"

	auth "github.com/fmitra/passauth"
)

// Device type values reported for a registered credential.
const (
	// DeviceSingle marks a credential bound to one authenticator.
	DeviceSingle = "single_device"
	// DeviceMulti marks a credential eligible to sync across devices.
	DeviceMulti = "multi_device"
)

// Webauthner is an interface to go-webauthn.
type Webauthner interface {
	BeginRegistration(user webauthnLib.User, opts ...webauthnLib.RegistrationOption) (*webauthnProto.CredentialCreation, *webauthnLib.SessionData, error)
	CreateCredential(user webauthnLib.User, session webauthnLib.SessionData, response *webauthnProto.ParsedCredentialCreationData) (*webauthnLib.Credential, error)
	BeginLogin(user webauthnLib.User, opts ...webauthnLib.LoginOption) (*webauthnProto.CredentialAssertion, *webauthnLib.SessionData, error)
	ValidateLogin(user webauthnLib.User, session webauthnLib.SessionData, response *webauthnProto.ParsedCredentialAssertionData) (*webauthnLib.Credential, error)
}

// Engine implements the WebAuthn ceremony protocol. Challenge state is
// reconstructed from persisted challenge bytes on verification; the
// engine itself holds no session storage.
type Engine struct {
	// relyingPartyID is the domain credentials are bound to.
	relyingPartyID string
	// relyingPartyName is the site display name.
	relyingPartyName string
	// origins are the request origins accepted during verification.
	origins []string
	// lib is the underlying WebAuthn library used by this adapter.
	lib Webauthner
}

// Enabled reports whether passkey ceremonies may run. A missing
// relying party ID or an empty origin list disables the subsystem.
func (e *Engine) Enabled() bool {
	return e.relyingPartyID != "" && len(e.origins) > 0 && e.lib != nil
}

// GenerateRegistrationOptions returns the raw challenge and option
// payload to enroll a new authenticator. Credentials in exclusions
// cannot be registered a second time.
func (e *Engine) GenerateRegistrationOptions(ctx context.Context, user *auth.User, exclusions []*auth.Credential) ([]byte, json.RawMessage, error) {
	wu := User{User: user, Credentials: exclusions}

	var opts []webauthnLib.RegistrationOption
	{
		opts = append(opts, webauthnLib.WithAuthenticatorSelection(
			webauthnProto.AuthenticatorSelection{
				ResidentKey:      webauthnProto.ResidentKeyRequirementPreferred,
				UserVerification: webauthnProto.VerificationRequired,
			},
		))
		if len(exclusions) > 0 {
			opts = append(opts, webauthnLib.WithExclusions(toDescriptors(exclusions)))
		}
	}

	creation, session, err := e.lib.BeginRegistration(&wu, opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize webauthn registration")
	}

	return e.finishGenerate(session, creation)
}

// VerifyRegistrationResponse validates an attestation response against
// the expected challenge and returns the verified credential material.
func (e *Engine) VerifyRegistrationResponse(ctx context.Context, user *auth.User, challenge, response []byte) (*auth.RegistrationResult, error) {
	wu := User{User: user}

	parsed, err := webauthnProto.ParseCredentialCreationResponseBytes(response)
	if err != nil {
		return nil, errors.Wrap(err, "cannot parse attestation response")
	}

	credential, err := e.lib.CreateCredential(&wu, e.newSession(&wu, challenge, nil), parsed)
	if err != nil {
		return nil, errors.Wrap(err, "webauthn registration failed")
	}

	return &auth.RegistrationResult{
		CredentialID: credential.ID,
		PublicKey:    credential.PublicKey,
		SignCount:    credential.Authenticator.SignCount,
		DeviceType:   deviceType(credential),
		IsBackedUp:   credential.Flags.BackupState,
		Transports:   fromLibTransports(credential.Transport),
	}, nil
}

// GenerateAuthenticationOptions returns the raw challenge and option
// payload to sign in with a registered authenticator.
func (e *Engine) GenerateAuthenticationOptions(ctx context.Context, user *auth.User, allowed []*auth.Credential) ([]byte, json.RawMessage, error) {
	wu := User{User: user, Credentials: allowed}

	assertion, session, err := e.lib.BeginLogin(
		&wu,
		webauthnLib.WithUserVerification(webauthnProto.VerificationRequired),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize webauthn login")
	}

	return e.finishGenerate(session, assertion)
}

// VerifyAuthenticationResponse validates an assertion response against
// the expected challenge and a stored credential.
func (e *Engine) VerifyAuthenticationResponse(ctx context.Context, user *auth.User, credential *auth.Credential, challenge, response []byte) (*auth.AuthenticationResult, error) {
	wu := User{User: user, Credentials: []*auth.Credential{credential}}

	parsed, err := webauthnProto.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return nil, errors.Wrap(err, "cannot parse assertion response")
	}

	session := e.newSession(&wu, challenge, [][]byte{credential.CredentialID})
	validated, err := e.lib.ValidateLogin(&wu, session, parsed)
	if err != nil {
		return nil, errors.Wrap(err, "webauthn login failed")
	}

	return &auth.AuthenticationResult{
		CredentialID: validated.ID,
		SignCount:    validated.Authenticator.SignCount,
		CloneWarning: validated.Authenticator.CloneWarning,
	}, nil
}

// AuthenticationCredentialID extracts the credential ID embedded in an
// assertion response without verifying the response.
func (e *Engine) AuthenticationCredentialID(response []byte) ([]byte, error) {
	parsed, err := webauthnProto.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return nil, errors.Wrap(err, "cannot parse assertion response")
	}

	return parsed.RawID, nil
}

// finishGenerate extracts the raw challenge from the library session
// and snapshots the option payload returned to the client.
func (e *Engine) finishGenerate(session *webauthnLib.SessionData, options interface{}) ([]byte, json.RawMessage, error) {
	challenge, err := base64.RawURLEncoding.DecodeString(session.Challenge)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to decode webauthn challenge")
	}

	optionBytes, err := json.Marshal(options)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to marshal webauthn options")
	}

	return challenge, optionBytes, nil
}

// newSession rebuilds library session data from a persisted challenge.
func (e *Engine) newSession(user webauthnLib.User, challenge []byte, allowedIDs [][]byte) webauthnLib.SessionData {
	return webauthnLib.SessionData{
		Challenge:            base64.RawURLEncoding.EncodeToString(challenge),
		UserID:               user.WebAuthnID(),
		AllowedCredentialIDs: allowedIDs,
		UserVerification:     webauthnProto.VerificationRequired,
	}
}

func deviceType(credential *webauthnLib.Credential) string {
	if credential.Flags.BackupEligible {
		return DeviceMulti
	}
	return DeviceSingle
}

func toLibCredential(c *auth.Credential) webauthnLib.Credential {
	return webauthnLib.Credential{
		ID:        c.CredentialID,
		PublicKey: c.PublicKey,
		Transport: toLibTransports(c.Transports),
		Flags: webauthnLib.CredentialFlags{
			UserPresent:    true,
			UserVerified:   true,
			BackupEligible: c.DeviceType == DeviceMulti,
			BackupState:    c.IsBackedUp,
		},
		Authenticator: webauthnLib.Authenticator{
			SignCount: c.SignCount,
		},
	}
}

func toDescriptors(credentials []*auth.Credential) []webauthnProto.CredentialDescriptor {
	descriptors := make([]webauthnProto.CredentialDescriptor, 0, len(credentials))
	for _, c := range credentials {
		descriptors = append(descriptors, webauthnProto.CredentialDescriptor{
			Type:         webauthnProto.PublicKeyCredentialType,
			CredentialID: c.CredentialID,
			Transport:    toLibTransports(c.Transports),
		})
	}
	return descriptors
}

func toLibTransports(transports []string) []webauthnProto.AuthenticatorTransport {
	libTransports := make([]webauthnProto.AuthenticatorTransport, 0, len(transports))
	for _, t := range transports {
		libTransports = append(libTransports, webauthnProto.AuthenticatorTransport(t))
	}
	return libTransports
}

func fromLibTransports(transports []webauthnProto.AuthenticatorTransport) []string {
	names := make([]string, 0, len(transports))
	for _, t := range transports {
		names = append(names, string(t))
	}
	return names
}
