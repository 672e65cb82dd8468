package test

import (
	webauthnProto "github.com/go-webauthn/webauthn/protocol"
	webauthnLib "github.com/go-webauthn/webauthn/webauthn"
	"github.com/pkg/errors"
)

// WebAuthnLib mocks the go-webauthn library.
type WebAuthnLib struct {
	BeginRegistrationFn func() (*webauthnProto.CredentialCreation, *webauthnLib.SessionData, error)
	CreateCredentialFn  func() (*webauthnLib.Credential, error)
	BeginLoginFn        func() (*webauthnProto.CredentialAssertion, *webauthnLib.SessionData, error)
	ValidateLoginFn     func() (*webauthnLib.Credential, error)
	Calls               struct {
		BeginRegistration int
		CreateCredential  int
		BeginLogin        int
		ValidateLogin     int
	}
}

// BeginRegistration mock.
func (m *WebAuthnLib) BeginRegistration(user webauthnLib.User, opts ...webauthnLib.RegistrationOption) (*webauthnProto.CredentialCreation, *webauthnLib.SessionData, error) {
	m.Calls.BeginRegistration++
	if m.BeginRegistrationFn != nil {
		return m.BeginRegistrationFn()
	}
	return nil, nil, errors.New("failed to begin registration")
}

// CreateCredential mock.
func (m *WebAuthnLib) CreateCredential(user webauthnLib.User, session webauthnLib.SessionData, response *webauthnProto.ParsedCredentialCreationData) (*webauthnLib.Credential, error) {
	m.Calls.CreateCredential++
	if m.CreateCredentialFn != nil {
		return m.CreateCredentialFn()
	}
	return nil, errors.New("failed to create credential")
}

// BeginLogin mock.
func (m *WebAuthnLib) BeginLogin(user webauthnLib.User, opts ...webauthnLib.LoginOption) (*webauthnProto.CredentialAssertion, *webauthnLib.SessionData, error) {
	m.Calls.BeginLogin++
	if m.BeginLoginFn != nil {
		return m.BeginLoginFn()
	}
	return nil, nil, errors.New("failed to begin login")
}

// ValidateLogin mock.
func (m *WebAuthnLib) ValidateLogin(user webauthnLib.User, session webauthnLib.SessionData, response *webauthnProto.ParsedCredentialAssertionData) (*webauthnLib.Credential, error) {
	m.Calls.ValidateLogin++
	if m.ValidateLoginFn != nil {
		return m.ValidateLoginFn()
	}
	return nil, errors.New("failed to validate login")
}
