// Package test provides hand rolled mocks for the passauth domain.
package test

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	auth "github.com/fmitra/passauth"
)

// RepositoryManager mocks auth.RepositoryManager.
type RepositoryManager struct {
	NewWithTransactionFn func() (auth.RepositoryManager, error)
	WithAtomicFn         func(operation func() (interface{}, error)) (interface{}, error)
	ChallengeFn          func() auth.ChallengeRepository
	CredentialFn         func() auth.CredentialRepository
	UserFn               func() auth.UserRepository
	AuditFn              func() auth.AuditRepository
	Calls                struct {
		NewWithTransaction int
		WithAtomic         int
		Challenge          int
		Credential         int
		User               int
		Audit              int
	}

	ChallengeRepository  ChallengeRepository
	CredentialRepository CredentialRepository
	UserRepository       UserRepository
	AuditRepository      AuditRepository
}

// NewWithTransaction mock.
func (m *RepositoryManager) NewWithTransaction(ctx context.Context) (auth.RepositoryManager, error) {
	m.Calls.NewWithTransaction++
	if m.NewWithTransactionFn != nil {
		return m.NewWithTransactionFn()
	}
	return m, nil
}

// WithAtomic mock. By default it runs the operation without any
// transactional wrapping.
func (m *RepositoryManager) WithAtomic(operation func() (interface{}, error)) (interface{}, error) {
	m.Calls.WithAtomic++
	if m.WithAtomicFn != nil {
		return m.WithAtomicFn(operation)
	}
	return operation()
}

// Challenge mock.
func (m *RepositoryManager) Challenge() auth.ChallengeRepository {
	m.Calls.Challenge++
	if m.ChallengeFn != nil {
		return m.ChallengeFn()
	}
	return &m.ChallengeRepository
}

// Credential mock.
func (m *RepositoryManager) Credential() auth.CredentialRepository {
	m.Calls.Credential++
	if m.CredentialFn != nil {
		return m.CredentialFn()
	}
	return &m.CredentialRepository
}

// User mock.
func (m *RepositoryManager) User() auth.UserRepository {
	m.Calls.User++
	if m.UserFn != nil {
		return m.UserFn()
	}
	return &m.UserRepository
}

// Audit mock.
func (m *RepositoryManager) Audit() auth.AuditRepository {
	m.Calls.Audit++
	if m.AuditFn != nil {
		return m.AuditFn()
	}
	return &m.AuditRepository
}

// ChallengeRepository mocks auth.ChallengeRepository.
type ChallengeRepository struct {
	CreateFn             func(challenge *auth.Challenge) error
	ByRequestIDFn        func() (*auth.Challenge, error)
	GetActiveFn          func() (*auth.Challenge, error)
	GetActiveForUpdateFn func(requestID string) (*auth.Challenge, error)
	ConsumeFn            func(requestID string, c auth.Consumption) (*auth.Challenge, error)
	Calls                struct {
		Create             int
		ByRequestID        int
		GetActive          int
		GetActiveForUpdate int
		Consume            int
	}
}

// Create mock.
func (m *ChallengeRepository) Create(ctx context.Context, challenge *auth.Challenge) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn(challenge)
	}
	return nil
}

// ByRequestID mock.
func (m *ChallengeRepository) ByRequestID(ctx context.Context, requestID string) (*auth.Challenge, error) {
	m.Calls.ByRequestID++
	if m.ByRequestIDFn != nil {
		return m.ByRequestIDFn()
	}
	return &auth.Challenge{RequestID: requestID}, nil
}

// GetActive mock.
func (m *ChallengeRepository) GetActive(ctx context.Context, requestID string) (*auth.Challenge, error) {
	m.Calls.GetActive++
	if m.GetActiveFn != nil {
		return m.GetActiveFn()
	}
	return &auth.Challenge{RequestID: requestID}, nil
}

// GetActiveForUpdate mock.
func (m *ChallengeRepository) GetActiveForUpdate(ctx context.Context, requestID string) (*auth.Challenge, error) {
	m.Calls.GetActiveForUpdate++
	if m.GetActiveForUpdateFn != nil {
		return m.GetActiveForUpdateFn(requestID)
	}
	return &auth.Challenge{RequestID: requestID}, nil
}

// Consume mock.
func (m *ChallengeRepository) Consume(ctx context.Context, requestID string, c auth.Consumption) (*auth.Challenge, error) {
	m.Calls.Consume++
	if m.ConsumeFn != nil {
		return m.ConsumeFn(requestID, c)
	}
	return &auth.Challenge{RequestID: requestID}, nil
}

// CredentialRepository mocks auth.CredentialRepository.
type CredentialRepository struct {
	ByUserIDFn        func() ([]*auth.Credential, error)
	ByCredentialIDFn  func(credentialID []byte) (*auth.Credential, error)
	CreateFn          func(credential *auth.Credential) error
	UpdateSignCountFn func(id string, signCount uint32) (*auth.Credential, error)
	TouchUsageFn      func(id string) (*auth.Credential, error)
	RevokeFn          func(id, reason string) (*auth.Credential, error)
	Calls             struct {
		ByUserID        int
		ByCredentialID  int
		Create          int
		UpdateSignCount int
		TouchUsage      int
		Revoke          int
	}
}

// ByUserID mock.
func (m *CredentialRepository) ByUserID(ctx context.Context, userID string) ([]*auth.Credential, error) {
	m.Calls.ByUserID++
	if m.ByUserIDFn != nil {
		return m.ByUserIDFn()
	}
	return []*auth.Credential{}, nil
}

// ByCredentialID mock.
func (m *CredentialRepository) ByCredentialID(ctx context.Context, credentialID []byte) (*auth.Credential, error) {
	m.Calls.ByCredentialID++
	if m.ByCredentialIDFn != nil {
		return m.ByCredentialIDFn(credentialID)
	}
	return &auth.Credential{CredentialID: credentialID}, nil
}

// Create mock.
func (m *CredentialRepository) Create(ctx context.Context, credential *auth.Credential) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn(credential)
	}
	return nil
}

// UpdateSignCount mock.
func (m *CredentialRepository) UpdateSignCount(ctx context.Context, id string, signCount uint32) (*auth.Credential, error) {
	m.Calls.UpdateSignCount++
	if m.UpdateSignCountFn != nil {
		return m.UpdateSignCountFn(id, signCount)
	}
	return &auth.Credential{ID: id, SignCount: signCount}, nil
}

// TouchUsage mock.
func (m *CredentialRepository) TouchUsage(ctx context.Context, id string) (*auth.Credential, error) {
	m.Calls.TouchUsage++
	if m.TouchUsageFn != nil {
		return m.TouchUsageFn(id)
	}
	return &auth.Credential{ID: id}, nil
}

// Revoke mock.
func (m *CredentialRepository) Revoke(ctx context.Context, id, reason string) (*auth.Credential, error) {
	m.Calls.Revoke++
	if m.RevokeFn != nil {
		return m.RevokeFn(id, reason)
	}
	return &auth.Credential{ID: id}, nil
}

// UserRepository mocks auth.UserRepository.
type UserRepository struct {
	ByIdentityFn func(attribute, value string) (*auth.User, error)
	CreateFn     func() error
	Calls        struct {
		ByIdentity int
		Create     int
	}
}

// ByIdentity mock.
func (m *UserRepository) ByIdentity(ctx context.Context, attribute, value string) (*auth.User, error) {
	m.Calls.ByIdentity++
	if m.ByIdentityFn != nil {
		return m.ByIdentityFn(attribute, value)
	}
	return &auth.User{ID: value}, nil
}

// Create mock.
func (m *UserRepository) Create(ctx context.Context, u *auth.User) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn()
	}
	return nil
}

// AuditRepository mocks auth.AuditRepository.
type AuditRepository struct {
	CreateFn func(audit *auth.Audit) error
	Created  []*auth.Audit
	Calls    struct {
		Create int
	}
}

// Create mock.
func (m *AuditRepository) Create(ctx context.Context, audit *auth.Audit) error {
	m.Calls.Create++
	m.Created = append(m.Created, audit)
	if m.CreateFn != nil {
		return m.CreateFn(audit)
	}
	return nil
}

// CeremonyEngine mocks auth.CeremonyEngine.
type CeremonyEngine struct {
	EnabledFn                       func() bool
	GenerateRegistrationOptionsFn   func() ([]byte, json.RawMessage, error)
	VerifyRegistrationResponseFn    func() (*auth.RegistrationResult, error)
	GenerateAuthenticationOptionsFn func() ([]byte, json.RawMessage, error)
	VerifyAuthenticationResponseFn  func(credential *auth.Credential) (*auth.AuthenticationResult, error)
	AuthenticationCredentialIDFn    func(response []byte) ([]byte, error)
	Calls                           struct {
		Enabled                       int
		GenerateRegistrationOptions   int
		VerifyRegistrationResponse    int
		GenerateAuthenticationOptions int
		VerifyAuthenticationResponse  int
		AuthenticationCredentialID    int
	}
}

// Enabled mock. Defaults to an enabled subsystem.
func (m *CeremonyEngine) Enabled() bool {
	m.Calls.Enabled++
	if m.EnabledFn != nil {
		return m.EnabledFn()
	}
	return true
}

// GenerateRegistrationOptions mock.
func (m *CeremonyEngine) GenerateRegistrationOptions(ctx context.Context, user *auth.User, exclusions []*auth.Credential) ([]byte, json.RawMessage, error) {
	m.Calls.GenerateRegistrationOptions++
	if m.GenerateRegistrationOptionsFn != nil {
		return m.GenerateRegistrationOptionsFn()
	}
	return []byte("challenge"), json.RawMessage(`{"publicKey":{}}`), nil
}

// VerifyRegistrationResponse mock.
func (m *CeremonyEngine) VerifyRegistrationResponse(ctx context.Context, user *auth.User, challenge, response []byte) (*auth.RegistrationResult, error) {
	m.Calls.VerifyRegistrationResponse++
	if m.VerifyRegistrationResponseFn != nil {
		return m.VerifyRegistrationResponseFn()
	}
	return nil, errors.New("failed to verify registration")
}

// GenerateAuthenticationOptions mock.
func (m *CeremonyEngine) GenerateAuthenticationOptions(ctx context.Context, user *auth.User, allowed []*auth.Credential) ([]byte, json.RawMessage, error) {
	m.Calls.GenerateAuthenticationOptions++
	if m.GenerateAuthenticationOptionsFn != nil {
		return m.GenerateAuthenticationOptionsFn()
	}
	return []byte("challenge"), json.RawMessage(`{"publicKey":{}}`), nil
}

// VerifyAuthenticationResponse mock.
func (m *CeremonyEngine) VerifyAuthenticationResponse(ctx context.Context, user *auth.User, credential *auth.Credential, challenge, response []byte) (*auth.AuthenticationResult, error) {
	m.Calls.VerifyAuthenticationResponse++
	if m.VerifyAuthenticationResponseFn != nil {
		return m.VerifyAuthenticationResponseFn(credential)
	}
	return nil, errors.New("failed to verify authentication")
}

// AuthenticationCredentialID mock.
func (m *CeremonyEngine) AuthenticationCredentialID(response []byte) ([]byte, error) {
	m.Calls.AuthenticationCredentialID++
	if m.AuthenticationCredentialIDFn != nil {
		return m.AuthenticationCredentialIDFn(response)
	}
	return []byte("credential-id"), nil
}

// PasskeyService mocks auth.PasskeyService.
type PasskeyService struct {
	IssueRegistrationFn    func(userID string, metadata map[string]string) (*auth.CeremonyOptions, error)
	CompleteRegistrationFn func(requestID string, response []byte) (*auth.CeremonyResult, error)
	IssueAuthenticationFn  func(email string, metadata map[string]string) (*auth.CeremonyOptions, error)
	VerifyAuthenticationFn func(requestID string, response []byte) (*auth.CeremonyResult, error)
	ListCredentialsFn      func(userID string) ([]*auth.Credential, error)
	RevokeCredentialFn     func(userID, credentialID, reason string) (*auth.Credential, error)
	Calls                  struct {
		IssueRegistration    int
		CompleteRegistration int
		IssueAuthentication  int
		VerifyAuthentication int
		ListCredentials      int
		RevokeCredential     int
	}
}

// IssueRegistration mock.
func (m *PasskeyService) IssueRegistration(ctx context.Context, userID string, metadata map[string]string, rc auth.RequestContext) (*auth.CeremonyOptions, error) {
	m.Calls.IssueRegistration++
	if m.IssueRegistrationFn != nil {
		return m.IssueRegistrationFn(userID, metadata)
	}
	return &auth.CeremonyOptions{
		RequestID: "request-id",
		Options:   json.RawMessage(`{"publicKey":{}}`),
	}, nil
}

// CompleteRegistration mock.
func (m *PasskeyService) CompleteRegistration(ctx context.Context, requestID string, response []byte, rc auth.RequestContext) (*auth.CeremonyResult, error) {
	m.Calls.CompleteRegistration++
	if m.CompleteRegistrationFn != nil {
		return m.CompleteRegistrationFn(requestID, response)
	}
	return &auth.CeremonyResult{
		User:       &auth.User{ID: "user-id"},
		Credential: &auth.Credential{ID: "credential-id"},
	}, nil
}

// IssueAuthentication mock.
func (m *PasskeyService) IssueAuthentication(ctx context.Context, email string, metadata map[string]string, rc auth.RequestContext) (*auth.CeremonyOptions, error) {
	m.Calls.IssueAuthentication++
	if m.IssueAuthenticationFn != nil {
		return m.IssueAuthenticationFn(email, metadata)
	}
	return &auth.CeremonyOptions{
		RequestID: "request-id",
		Options:   json.RawMessage(`{"publicKey":{}}`),
	}, nil
}

// VerifyAuthentication mock.
func (m *PasskeyService) VerifyAuthentication(ctx context.Context, requestID string, response []byte, rc auth.RequestContext) (*auth.CeremonyResult, error) {
	m.Calls.VerifyAuthentication++
	if m.VerifyAuthenticationFn != nil {
		return m.VerifyAuthenticationFn(requestID, response)
	}
	return &auth.CeremonyResult{
		User:       &auth.User{ID: "user-id"},
		Credential: &auth.Credential{ID: "credential-id"},
	}, nil
}

// ListCredentials mock.
func (m *PasskeyService) ListCredentials(ctx context.Context, userID string) ([]*auth.Credential, error) {
	m.Calls.ListCredentials++
	if m.ListCredentialsFn != nil {
		return m.ListCredentialsFn(userID)
	}
	return []*auth.Credential{}, nil
}

// RevokeCredential mock.
func (m *PasskeyService) RevokeCredential(ctx context.Context, userID, credentialID, reason string, rc auth.RequestContext) (*auth.Credential, error) {
	m.Calls.RevokeCredential++
	if m.RevokeCredentialFn != nil {
		return m.RevokeCredentialFn(userID, credentialID, reason)
	}
	return &auth.Credential{ID: credentialID}, nil
}
