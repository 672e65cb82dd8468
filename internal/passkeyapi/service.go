// Package passkeyapi provides an HTTP API for passkey ceremonies.
package passkeyapi

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	auth "github.com/fmitra/passauth"
	"github.com/fmitra/passauth/internal/httpapi"
)

type service struct {
	logger  log.Logger
	passkey auth.PasskeyService
}

// IssueRegistration starts a registration ceremony for a user.
func (s *service) IssueRegistration(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeRegistrationRequest(r)
	if err != nil {
		return nil, err
	}

	options, err := s.passkey.IssueRegistration(ctx, req.UserID, req.Metadata, requestContext(r))
	if err != nil {
		return nil, err
	}

	return newCeremonyResponse(options), nil
}

// CompleteRegistration verifies an attestation response and returns
// the newly registered credential.
func (s *service) CompleteRegistration(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeVerificationRequest(r)
	if err != nil {
		return nil, err
	}

	result, err := s.passkey.CompleteRegistration(ctx, req.RequestID, req.Response, requestContext(r))
	if err != nil {
		return nil, err
	}

	return newResultResponse(result), nil
}

// IssueAuthentication starts an authentication ceremony for the
// account matching an email address.
func (s *service) IssueAuthentication(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeAuthenticationRequest(r)
	if err != nil {
		return nil, err
	}

	options, err := s.passkey.IssueAuthentication(ctx, req.Email, req.Metadata, requestContext(r))
	if err != nil {
		return nil, err
	}

	return newCeremonyResponse(options), nil
}

// VerifyAuthentication verifies an assertion response and returns the
// authenticated user.
func (s *service) VerifyAuthentication(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeVerificationRequest(r)
	if err != nil {
		return nil, err
	}

	result, err := s.passkey.VerifyAuthentication(ctx, req.RequestID, req.Response, requestContext(r))
	if err != nil {
		return nil, err
	}

	return newResultResponse(result), nil
}

// ListCredentials returns a user's active credentials.
func (s *service) ListCredentials(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	userID := mux.Vars(r)["userID"]

	credentials, err := s.passkey.ListCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	resp.Create(credentials)
	return &resp, nil
}

// RevokeCredential soft deletes one of a user's credentials.
func (s *service) RevokeCredential(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	vars := mux.Vars(r)

	reason, err := decodeRevocationReason(r)
	if err != nil {
		return nil, err
	}

	credential, err := s.passkey.RevokeCredential(
		ctx,
		vars["userID"],
		vars["credentialID"],
		reason,
		requestContext(r),
	)
	if err != nil {
		return nil, err
	}

	var resp singleResponse
	resp.Create(credential)
	return &resp, nil
}

// requestContext extracts transport metadata for audit trails.
func requestContext(r *http.Request) auth.RequestContext {
	return auth.RequestContext{
		IPAddress: httpapi.GetIP(r),
		UserAgent: r.UserAgent(),
	}
}
