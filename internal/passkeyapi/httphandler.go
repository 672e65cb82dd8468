package passkeyapi

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	auth "github.com/fmitra/passauth"
	"github.com/fmitra/passauth/internal/httpapi"
)

// maxIssuancePerSecond bounds how quickly a single client may open
// new ceremonies.
const maxIssuancePerSecond = 5

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.PasskeyAPI, router *mux.Router, logger log.Logger, limiterFactory httpapi.LimiterFactory) {
	var handler httpapi.JSONAPIHandler
	{
		limiter := limiterFactory.NewLimiter("PasskeyAPI.IssueRegistration", maxIssuancePerSecond)
		handler = httpapi.RateLimitMiddleware(svc.IssueRegistration, limiter)
		handler = httpapi.ErrorLoggingMiddleware(handler, "PasskeyAPI.IssueRegistration", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/passkey/register", httpHandler).Methods("Post")
	}
	{
		handler = httpapi.ErrorLoggingMiddleware(svc.CompleteRegistration, "PasskeyAPI.CompleteRegistration", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusCreated)
		router.HandleFunc("/api/v1/passkey/register/verify", httpHandler).Methods("Post")
	}
	{
		limiter := limiterFactory.NewLimiter("PasskeyAPI.IssueAuthentication", maxIssuancePerSecond)
		handler = httpapi.RateLimitMiddleware(svc.IssueAuthentication, limiter)
		handler = httpapi.ErrorLoggingMiddleware(handler, "PasskeyAPI.IssueAuthentication", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/passkey/login", httpHandler).Methods("Post")
	}
	{
		handler = httpapi.ErrorLoggingMiddleware(svc.VerifyAuthentication, "PasskeyAPI.VerifyAuthentication", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/passkey/login/verify", httpHandler).Methods("Post")
	}
	{
		handler = httpapi.ErrorLoggingMiddleware(svc.ListCredentials, "PasskeyAPI.ListCredentials", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/passkey/user/{userID}/credential", httpHandler).Methods("Get")
	}
	{
		handler = httpapi.ErrorLoggingMiddleware(svc.RevokeCredential, "PasskeyAPI.RevokeCredential", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/passkey/user/{userID}/credential/{credentialID}", httpHandler).Methods("Delete")
	}
}
