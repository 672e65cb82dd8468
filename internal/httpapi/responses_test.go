package httpapi

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	auth "github.com/fmitra/passauth"
	"github.com/fmitra/passauth/internal/test"
)

func TestHTTPAPI_JSONResponse(t *testing.T) {
	tt := []struct {
		name      string
		response  interface{}
		result    string
		statusIn  int
		statusOut int
	}{
		{
			name:      "Handles nil response",
			response:  nil,
			result:    `{}`,
			statusIn:  http.StatusOK,
			statusOut: http.StatusOK,
		},
		{
			name:      "Handles byte response",
			response:  []byte(`{"foo": "bar"}`),
			result:    `{"foo": "bar"}`,
			statusIn:  http.StatusOK,
			statusOut: http.StatusOK,
		},
		{
			name: "Handles struct response",
			response: struct {
				Name string `json:"name"`
			}{
				Name: "Jane",
			},
			result:    `{"name":"Jane"}`,
			statusIn:  http.StatusOK,
			statusOut: http.StatusOK,
		},
		{
			name:      "Handles marshal error",
			response:  func() {},
			result:    "An internal error occurred",
			statusIn:  http.StatusOK,
			statusOut: http.StatusInternalServerError,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSONResponse(w, tc.response, tc.statusIn)

			resp := w.Result()
			defer resp.Body.Close()

			body, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				t.Fatal("failed to read body:", err)
			}

			if resp.StatusCode != tc.statusOut {
				t.Errorf("incorrect status code returned, want %v got %v",
					tc.statusOut, resp.StatusCode)
			}
			if tc.statusOut == http.StatusOK && string(body) != tc.result {
				t.Errorf("incorrect response, want '%s' got '%s'",
					tc.result, string(body))
			}

			err = test.ValidateErrMessage(tc.result, bytes.NewBuffer(body))
			if tc.statusOut != http.StatusOK && err != nil {
				t.Error("error message does not match", err)
			}
		})
	}
}

func TestHTTPAPI_ErrorResponse(t *testing.T) {
	tt := []struct {
		name       string
		err        error
		message    string
		statusCode int
	}{
		{
			name:       "Handles configuration error",
			err:        auth.ErrConfiguration("passkey support is not configured"),
			message:    "passkey support is not configured",
			statusCode: http.StatusServiceUnavailable,
		},
		{
			name:       "Handles validation error",
			err:        auth.ErrInvalidField("email address is required"),
			message:    "email address is required",
			statusCode: http.StatusBadRequest,
		},
		{
			name:       "Handles missing entity error",
			err:        auth.ErrNotFound("user does not exist"),
			message:    "user does not exist",
			statusCode: http.StatusNotFound,
		},
		{
			name:       "Handles expired challenge error",
			err:        auth.ErrChallengeExpired("challenge is expired or already used"),
			message:    "challenge is expired or already used",
			statusCode: http.StatusGone,
		},
		{
			name:       "Handles enrollment error",
			err:        auth.ErrEnrollmentRequired("no passkeys are registered for this account"),
			message:    "no passkeys are registered for this account",
			statusCode: http.StatusPreconditionFailed,
		},
		{
			name:       "Handles unknown credential error",
			err:        auth.ErrCredentialNotFound("credential is not registered"),
			message:    "credential is not registered",
			statusCode: http.StatusUnauthorized,
		},
		{
			name:       "Handles verification error",
			err:        auth.ErrVerification("authentication response was rejected"),
			message:    "authentication response was rejected",
			statusCode: http.StatusBadRequest,
		},
		{
			name:       "Handles throttled request",
			err:        auth.ErrThrottle("requests are throttled, try again later"),
			message:    "requests are throttled, try again later",
			statusCode: http.StatusTooManyRequests,
		},
		{
			name:       "Handles internal error",
			err:        fmt.Errorf("whoops"),
			message:    "An internal error occurred",
			statusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(w, tc.err)

			resp := w.Result()
			defer resp.Body.Close()

			body, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				t.Fatal("failed to read body:", err)
			}

			if resp.StatusCode != tc.statusCode {
				t.Errorf("incorrect status code returned, want %v got %v",
					tc.statusCode, resp.StatusCode)
			}

			err = test.ValidateErrMessage(tc.message, bytes.NewBuffer(body))
			if err != nil {
				t.Error("error message does not match:", err)
			}
		})
	}
}
