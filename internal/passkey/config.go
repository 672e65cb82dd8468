package passkey

import (
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/passauth"
)

// defaultChallengeTTL bounds how long an issued challenge may be
// completed.
const defaultChallengeTTL = 5 * time.Minute

// NewService returns a new implementation of auth.PasskeyService.
func NewService(options ...ConfigOption) auth.PasskeyService {
	s := service{
		logger: log.NewNopLogger(),
		ttl:    defaultChallengeTTL,
		now:    time.Now,
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

// WithRepoManager configures the service with a new RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *service) {
		s.repoMngr = repoMngr
	}
}

// WithEngine configures the service with a ceremony engine.
func WithEngine(engine auth.CeremonyEngine) ConfigOption {
	return func(s *service) {
		s.engine = engine
	}
}

// WithChallengeTTL configures the service with a challenge lifetime.
func WithChallengeTTL(ttl time.Duration) ConfigOption {
	return func(s *service) {
		s.ttl = ttl
	}
}

// WithClock configures the service with a time source. Used in
// testing to control challenge expiry.
func WithClock(now func() time.Time) ConfigOption {
	return func(s *service) {
		s.now = now
	}
}
