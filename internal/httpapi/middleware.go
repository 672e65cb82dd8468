package httpapi

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-kit/kit/log"
)

// ErrorLoggingMiddleware logs any errors that are returned before
// being parsed to an HTTP response.
func ErrorLoggingMiddleware(jsonHandler JSONAPIHandler, source string, log log.Logger) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		response, err := jsonHandler(w, r)
		if err != nil {
			log.Log(
				"source", source,
				"client_ip", GetIP(r),
				"error", err.Error(),
				"stack_trace", fmt.Sprintf("%+v", err),
			)
		}
		return response, err
	}
}

// RateLimitMiddleware throttles requests before they reach a handler.
func RateLimitMiddleware(jsonHandler JSONAPIHandler, limiter Limiter) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		if err := limiter.RateLimit(r); err != nil {
			return nil, err
		}
		return jsonHandler(w, r)
	}
}

// GetIP retrieves the client IP for a request. A forwarding header
// takes precedence over the socket address.
func GetIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
