package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"

	auth "github.com/fmitra/passauth"
)

// Limiter provides rate limiting tooling.
type Limiter interface {
	// RateLimit applies basic rate limiting to an HTTP request.
	RateLimit(r *http.Request) error
}

// LimiterFactory creates new Limiters.
type LimiterFactory interface {
	// NewLimiter returns a new Limiter accepting max requests
	// per second for a given key prefix.
	NewLimiter(prefix string, max float64) Limiter
}

type factory struct{}

type ratelimiter struct {
	lmt    *limiter.Limiter
	prefix string
}

// NewLimiter creates a new Limiter.
func (f *factory) NewLimiter(prefix string, max float64) Limiter {
	lmt := tollbooth.NewLimiter(max, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	return &ratelimiter{
		lmt:    lmt,
		prefix: prefix,
	}
}

// RateLimit throttles requests by client IP. Separate prefixes keep
// limits for separate endpoints from counting against each other.
func (l *ratelimiter) RateLimit(r *http.Request) error {
	key := fmt.Sprintf("%s:%s", l.prefix, GetIP(r))
	if httpError := tollbooth.LimitByKeys(l.lmt, []string{key}); httpError != nil {
		return auth.ErrThrottle("requests are throttled, try again later")
	}
	return nil
}

// NewRateLimiter returns a new LimiterFactory.
func NewRateLimiter() LimiterFactory {
	return &factory{}
}
