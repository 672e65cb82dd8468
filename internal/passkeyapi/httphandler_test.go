package passkeyapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	auth "github.com/fmitra/passauth"
	"github.com/fmitra/passauth/internal/httpapi"
	"github.com/fmitra/passauth/internal/test"
)

func newTestServer(passkeySvc *test.PasskeyService) *httptest.Server {
	router := mux.NewRouter()
	svc := NewService(
		WithLogger(log.NewNopLogger()),
		WithPasskeyService(passkeySvc),
	)
	SetupHTTPHandler(svc, router, log.NewNopLogger(), &httpapi.MockLimiterFactory{})
	return httptest.NewServer(router)
}

func TestPasskeyAPI_IssueRegistration(t *testing.T) {
	tt := []struct {
		name       string
		reqBody    []byte
		statusCode int
		errMessage string
		issueFn    func(userID string, metadata map[string]string) (*auth.CeremonyOptions, error)
	}{
		{
			name:       "Invalid request error",
			reqBody:    []byte(`{"user_id":""}`),
			statusCode: http.StatusBadRequest,
			errMessage: "user_id cannot be blank",
		},
		{
			name:       "Missing user error",
			reqBody:    []byte(`{"user_id":"user-id"}`),
			statusCode: http.StatusNotFound,
			errMessage: "user does not exist",
			issueFn: func(userID string, metadata map[string]string) (*auth.CeremonyOptions, error) {
				return nil, auth.ErrNotFound("user does not exist")
			},
		},
		{
			name:       "Disabled subsystem error",
			reqBody:    []byte(`{"user_id":"user-id"}`),
			statusCode: http.StatusServiceUnavailable,
			errMessage: "passkey support is not configured",
			issueFn: func(userID string, metadata map[string]string) (*auth.CeremonyOptions, error) {
				return nil, auth.ErrConfiguration("passkey support is not configured")
			},
		},
		{
			name:       "Non domain error",
			reqBody:    []byte(`{"user_id":"user-id"}`),
			statusCode: http.StatusInternalServerError,
			errMessage: "An internal error occurred",
			issueFn: func(userID string, metadata map[string]string) (*auth.CeremonyOptions, error) {
				return nil, errors.New("whoops")
			},
		},
		{
			name:       "Successful request",
			reqBody:    []byte(`{"user_id":"user-id","metadata":{"credential_name":"Work laptop"}}`),
			statusCode: http.StatusOK,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			passkeySvc := &test.PasskeyService{
				IssueRegistrationFn: tc.issueFn,
			}
			srv := newTestServer(passkeySvc)
			defer srv.Close()

			res, err := http.Post(
				srv.URL+"/api/v1/passkey/register",
				"application/json",
				bytes.NewBuffer(tc.reqBody),
			)
			if err != nil {
				t.Fatal("failed to make request:", err)
			}
			defer res.Body.Close()

			if res.StatusCode != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v",
					tc.statusCode, res.StatusCode)
			}

			if tc.errMessage != "" {
				var errBody bytes.Buffer
				if _, err = errBody.ReadFrom(res.Body); err != nil {
					t.Fatal("failed to read body:", err)
				}
				if err = test.ValidateErrMessage(tc.errMessage, &errBody); err != nil {
					t.Error("error message does not match:", err)
				}
				return
			}

			var body ceremonyResponse
			if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
				t.Fatal("failed to decode response:", err)
			}
			if body.RequestID != "request-id" {
				t.Errorf("incorrect request ID: %s", body.RequestID)
			}
		})
	}
}

func TestPasskeyAPI_CompleteRegistration(t *testing.T) {
	tt := []struct {
		name       string
		reqBody    []byte
		statusCode int
		errMessage string
		verifyFn   func(requestID string, response []byte) (*auth.CeremonyResult, error)
	}{
		{
			name:       "Invalid request error",
			reqBody:    []byte(`{"request_id":"request-id"}`),
			statusCode: http.StatusBadRequest,
			errMessage: "response cannot be blank",
		},
		{
			name:       "Expired challenge error",
			reqBody:    []byte(`{"request_id":"request-id","response":{}}`),
			statusCode: http.StatusGone,
			errMessage: "challenge is expired or already used",
			verifyFn: func(requestID string, response []byte) (*auth.CeremonyResult, error) {
				return nil, auth.ErrChallengeExpired("challenge is expired or already used")
			},
		},
		{
			name:       "Verification error",
			reqBody:    []byte(`{"request_id":"request-id","response":{}}`),
			statusCode: http.StatusBadRequest,
			errMessage: "registration response was rejected",
			verifyFn: func(requestID string, response []byte) (*auth.CeremonyResult, error) {
				return nil, auth.ErrVerification("registration response was rejected")
			},
		},
		{
			name:       "Successful request",
			reqBody:    []byte(`{"request_id":"request-id","response":{"id":"credential-id"}}`),
			statusCode: http.StatusCreated,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			passkeySvc := &test.PasskeyService{
				CompleteRegistrationFn: tc.verifyFn,
			}
			srv := newTestServer(passkeySvc)
			defer srv.Close()

			res, err := http.Post(
				srv.URL+"/api/v1/passkey/register/verify",
				"application/json",
				bytes.NewBuffer(tc.reqBody),
			)
			if err != nil {
				t.Fatal("failed to make request:", err)
			}
			defer res.Body.Close()

			if res.StatusCode != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v",
					tc.statusCode, res.StatusCode)
			}

			if tc.errMessage != "" {
				var errBody bytes.Buffer
				if _, err = errBody.ReadFrom(res.Body); err != nil {
					t.Fatal("failed to read body:", err)
				}
				if err = test.ValidateErrMessage(tc.errMessage, &errBody); err != nil {
					t.Error("error message does not match:", err)
				}
				return
			}

			var body resultResponse
			if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
				t.Fatal("failed to decode response:", err)
			}
			if body.User.ID != "user-id" {
				t.Errorf("incorrect user ID: %s", body.User.ID)
			}
			if body.Credential.ID != "credential-id" {
				t.Errorf("incorrect credential ID: %s", body.Credential.ID)
			}
		})
	}
}

func TestPasskeyAPI_IssueAuthentication(t *testing.T) {
	tt := []struct {
		name       string
		reqBody    []byte
		statusCode int
		errMessage string
		issueFn    func(email string, metadata map[string]string) (*auth.CeremonyOptions, error)
	}{
		{
			name:       "Invalid request error",
			reqBody:    []byte(`{"email":" "}`),
			statusCode: http.StatusBadRequest,
			errMessage: "email cannot be blank",
		},
		{
			name:       "Enrollment error",
			reqBody:    []byte(`{"email":"jane@example.com"}`),
			statusCode: http.StatusPreconditionFailed,
			errMessage: "no passkeys are registered for this account",
			issueFn: func(email string, metadata map[string]string) (*auth.CeremonyOptions, error) {
				return nil, auth.ErrEnrollmentRequired("no passkeys are registered for this account")
			},
		},
		{
			name:       "Successful request",
			reqBody:    []byte(`{"email":"jane@example.com"}`),
			statusCode: http.StatusOK,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			passkeySvc := &test.PasskeyService{
				IssueAuthenticationFn: tc.issueFn,
			}
			srv := newTestServer(passkeySvc)
			defer srv.Close()

			res, err := http.Post(
				srv.URL+"/api/v1/passkey/login",
				"application/json",
				bytes.NewBuffer(tc.reqBody),
			)
			if err != nil {
				t.Fatal("failed to make request:", err)
			}
			defer res.Body.Close()

			if res.StatusCode != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v",
					tc.statusCode, res.StatusCode)
			}

			if tc.errMessage != "" {
				var errBody bytes.Buffer
				if _, err = errBody.ReadFrom(res.Body); err != nil {
					t.Fatal("failed to read body:", err)
				}
				if err = test.ValidateErrMessage(tc.errMessage, &errBody); err != nil {
					t.Error("error message does not match:", err)
				}
			}
		})
	}
}

func TestPasskeyAPI_VerifyAuthentication(t *testing.T) {
	tt := []struct {
		name       string
		reqBody    []byte
		statusCode int
		errMessage string
		verifyFn   func(requestID string, response []byte) (*auth.CeremonyResult, error)
	}{
		{
			name:       "Unknown credential error",
			reqBody:    []byte(`{"request_id":"request-id","response":{}}`),
			statusCode: http.StatusUnauthorized,
			errMessage: "credential is not registered",
			verifyFn: func(requestID string, response []byte) (*auth.CeremonyResult, error) {
				return nil, auth.ErrCredentialNotFound("credential is not registered")
			},
		},
		{
			name:       "Successful request",
			reqBody:    []byte(`{"request_id":"request-id","response":{"id":"credential-id"}}`),
			statusCode: http.StatusOK,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			passkeySvc := &test.PasskeyService{
				VerifyAuthenticationFn: tc.verifyFn,
			}
			srv := newTestServer(passkeySvc)
			defer srv.Close()

			res, err := http.Post(
				srv.URL+"/api/v1/passkey/login/verify",
				"application/json",
				bytes.NewBuffer(tc.reqBody),
			)
			if err != nil {
				t.Fatal("failed to make request:", err)
			}
			defer res.Body.Close()

			if res.StatusCode != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v",
					tc.statusCode, res.StatusCode)
			}

			if tc.errMessage != "" {
				var errBody bytes.Buffer
				if _, err = errBody.ReadFrom(res.Body); err != nil {
					t.Fatal("failed to read body:", err)
				}
				if err = test.ValidateErrMessage(tc.errMessage, &errBody); err != nil {
					t.Error("error message does not match:", err)
				}
			}
		})
	}
}

func TestPasskeyAPI_ListCredentials(t *testing.T) {
	passkeySvc := &test.PasskeyService{
		ListCredentialsFn: func(userID string) ([]*auth.Credential, error) {
			return []*auth.Credential{
				{
					ID:           "credential-1",
					UserID:       userID,
					CredentialID: []byte("credential-id"),
					Name:         "Work laptop",
					Transports:   []string{"internal"},
				},
			}, nil
		},
	}
	srv := newTestServer(passkeySvc)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/v1/passkey/user/user-id/credential")
	if err != nil {
		t.Fatal("failed to make request:", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("incorrect status code, want %v got %v",
			http.StatusOK, res.StatusCode)
	}

	var body listResponse
	if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatal("failed to decode response:", err)
	}
	if len(body.Credentials) != 1 {
		t.Fatalf("incorrect credential count, want 1 got %v", len(body.Credentials))
	}
	if body.Credentials[0].Name != "Work laptop" {
		t.Errorf("incorrect credential name: %s", body.Credentials[0].Name)
	}
}

func TestPasskeyAPI_RevokeCredential(t *testing.T) {
	var revoked struct {
		userID       string
		credentialID string
		reason       string
	}
	passkeySvc := &test.PasskeyService{
		RevokeCredentialFn: func(userID, credentialID, reason string) (*auth.Credential, error) {
			revoked.userID = userID
			revoked.credentialID = credentialID
			revoked.reason = reason
			return &auth.Credential{ID: credentialID}, nil
		},
	}
	srv := newTestServer(passkeySvc)
	defer srv.Close()

	req, err := http.NewRequest(
		"DELETE",
		srv.URL+"/api/v1/passkey/user/user-id/credential/credential-1",
		bytes.NewBuffer([]byte(`{"reason":"device lost"}`)),
	)
	if err != nil {
		t.Fatal("failed to create request:", err)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal("failed to make request:", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("incorrect status code, want %v got %v",
			http.StatusOK, res.StatusCode)
	}

	if revoked.userID != "user-id" {
		t.Errorf("incorrect user ID: %s", revoked.userID)
	}
	if revoked.credentialID != "credential-1" {
		t.Errorf("incorrect credential ID: %s", revoked.credentialID)
	}
	if revoked.reason != "device lost" {
		t.Errorf("incorrect reason: %s", revoked.reason)
	}
}
