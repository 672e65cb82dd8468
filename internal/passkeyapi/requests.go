package passkeyapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	auth "github.com/fmitra/passauth"
)

type registrationRequest struct {
	UserID   string            `json:"user_id"`
	Metadata map[string]string `json:"metadata"`
}

type authenticationRequest struct {
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata"`
}

type verificationRequest struct {
	RequestID string `json:"request_id"`
	// Response is the raw authenticator response, passed through to
	// the ceremony engine unmodified.
	Response json.RawMessage `json:"response"`
}

type revocationRequest struct {
	Reason string `json:"reason"`
}

func decodeRegistrationRequest(r *http.Request) (*registrationRequest, error) {
	var req registrationRequest

	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return nil, auth.ErrInvalidField("user_id cannot be blank")
	}

	return &req, nil
}

func decodeAuthenticationRequest(r *http.Request) (*authenticationRequest, error) {
	var req authenticationRequest

	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return nil, auth.ErrInvalidField("email cannot be blank")
	}

	return &req, nil
}

func decodeVerificationRequest(r *http.Request) (*verificationRequest, error) {
	var req verificationRequest

	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	req.RequestID = strings.TrimSpace(req.RequestID)
	if req.RequestID == "" {
		return nil, auth.ErrInvalidField("request_id cannot be blank")
	}
	if len(req.Response) == 0 {
		return nil, auth.ErrInvalidField("response cannot be blank")
	}

	return &req, nil
}

// decodeRevocationReason tolerates an empty body; revocation works
// without a stated reason.
func decodeRevocationReason(r *http.Request) (string, error) {
	if r == nil || r.Body == nil || r.ContentLength == 0 {
		return "", nil
	}

	var req revocationRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, auth.ErrInvalidField("invalid JSON request"))
	}

	return strings.TrimSpace(req.Reason), nil
}

func decodeBody(r *http.Request, v interface{}) error {
	if r == nil || r.Body == nil {
		return auth.ErrInvalidField("no request body received")
	}

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		return fmt.Errorf("%v: %w", err, auth.ErrInvalidField("invalid JSON request"))
	}

	return nil
}
