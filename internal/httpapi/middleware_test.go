package httpapi

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/passauth"
)

func TestHTTPAPI_ErrorLoggingMiddleware(t *testing.T) {
	tt := []struct {
		name     string
		err      error
		isLogged bool
		response interface{}
	}{
		{
			name:     "Logs handler errors",
			err:      auth.ErrInvalidField("email address is required"),
			isLogged: true,
		},
		{
			name:     "Passes responses through",
			response: []byte(`{"foo":"bar"}`),
			isLogged: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.NewJSONLogger(&buf)

			handler := func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
				return tc.response, tc.err
			}

			r, err := http.NewRequest("POST", "", bytes.NewBuffer([]byte("{}")))
			if err != nil {
				t.Fatal("failed to create mock request:", err)
			}

			h := ErrorLoggingMiddleware(handler, "Test.Handler", logger)
			v, err := h(nil, r)

			if tc.err == nil && err != nil {
				t.Error("expected nil error:", err)
			}
			if tc.err != nil && err == nil {
				t.Error("expected error, not nil")
			}
			if tc.isLogged && buf.Len() == 0 {
				t.Error("error was not logged")
			}
			if !tc.isLogged && buf.Len() != 0 {
				t.Errorf("unexpected log output: %s", buf.String())
			}

			if tc.response != nil {
				b, ok := v.([]byte)
				if !ok {
					t.Fatal("unexpected response type")
				}
				if !bytes.Equal(b, tc.response.([]byte)) {
					t.Errorf("response does not match, want '%s' got '%s'",
						tc.response, string(b))
				}
			}
		})
	}
}

func TestHTTPAPI_RateLimitMiddleware(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		return []byte(`{"foo":"bar"}`), nil
	}

	r, err := http.NewRequest("POST", "", bytes.NewBuffer([]byte("{}")))
	if err != nil {
		t.Fatal("failed to create mock request:", err)
	}
	r.RemoteAddr = "127.0.0.1:4000"

	limiter := NewRateLimiter().NewLimiter("test", 1)
	h := RateLimitMiddleware(handler, limiter)

	if _, err = h(nil, r); err != nil {
		t.Fatal("first request should not be throttled:", err)
	}

	_, err = h(nil, r)
	if err == nil {
		t.Fatal("expected error, not nil")
	}
	if code := auth.ErrorCode(err); code != auth.EThrottle {
		t.Errorf("incorrect error code, want %s got %s", auth.EThrottle, code)
	}
}

func TestHTTPAPI_GetIP(t *testing.T) {
	tt := []struct {
		name       string
		remoteAddr string
		forwarded  string
		ip         string
	}{
		{
			name:       "Uses socket address",
			remoteAddr: "192.168.1.1:4000",
			ip:         "192.168.1.1",
		},
		{
			name:       "Prefers forwarding header",
			remoteAddr: "192.168.1.1:4000",
			forwarded:  "203.0.113.7, 192.168.1.1",
			ip:         "203.0.113.7",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			r, err := http.NewRequest("GET", "", bytes.NewBuffer([]byte("{}")))
			if err != nil {
				t.Fatal("failed to create mock request:", err)
			}

			r.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			if ip := GetIP(r); ip != tc.ip {
				t.Errorf("incorrect IP, want %s got %s", tc.ip, ip)
			}
		})
	}
}
