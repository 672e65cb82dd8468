package passkeyapi

import (
	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/passauth"
)

// NewService returns a new implementation of auth.PasskeyAPI.
func NewService(options ...ConfigOption) auth.PasskeyAPI {
	s := service{
		logger: log.NewNopLogger(),
	}

	for _, opt := range options {
		opt(&s)
	}

	return &s
}

// ConfigOption configures the service.
type ConfigOption func(*service)

// WithLogger configures the service with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *service) {
		s.logger = l
	}
}

// WithPasskeyService configures the service with a PasskeyService.
func WithPasskeyService(p auth.PasskeyService) ConfigOption {
	return func(s *service) {
		s.passkey = p
	}
}
