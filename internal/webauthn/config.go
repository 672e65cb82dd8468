package webauthn

import (
	"time"

	webauthnLib "github.com/go-webauthn/webauthn/webauthn"
	"github.com/pkg/errors"

	auth "github.com/fmitra/passauth"
)

// NewEngine returns a new WebAuthn ceremony engine. An engine without
// a relying party ID or allowed origins is returned in a disabled
// state rather than failing, so the surrounding service can report a
// configuration error on use.
func NewEngine(options ...ConfigOption) (auth.CeremonyEngine, error) {
	e := Engine{}
	ttl := defaultChallengeTTL

	for _, opt := range options {
		opt(&e, &ttl)
	}

	if e.relyingPartyID == "" || len(e.origins) == 0 {
		return &e, nil
	}

	if e.lib == nil {
		lib, err := webauthnLib.New(&webauthnLib.Config{
			RPDisplayName: e.relyingPartyName,
			RPID:          e.relyingPartyID,
			RPOrigins:     e.origins,
			Timeouts: webauthnLib.TimeoutsConfig{
				Login: webauthnLib.TimeoutConfig{
					Enforce: true,
					Timeout: ttl,
				},
				Registration: webauthnLib.TimeoutConfig{
					Enforce: true,
					Timeout: ttl,
				},
			},
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to configure webauthn library")
		}
		e.lib = lib
	}

	return &e, nil
}

const defaultChallengeTTL = 5 * time.Minute

// ConfigOption configures the Engine.
type ConfigOption func(*Engine, *time.Duration)

// WithRelyingParty configures the engine with the relying party
// credentials are bound to.
func WithRelyingParty(id, name string) ConfigOption {
	return func(e *Engine, _ *time.Duration) {
		e.relyingPartyID = id
		e.relyingPartyName = name
	}
}

// WithOrigins configures the engine with the request origins accepted
// during verification.
func WithOrigins(origins []string) ConfigOption {
	return func(e *Engine, _ *time.Duration) {
		e.origins = origins
	}
}

// WithChallengeTTL configures the ceremony timeout hinted to clients.
func WithChallengeTTL(ttl time.Duration) ConfigOption {
	return func(_ *Engine, d *time.Duration) {
		*d = ttl
	}
}

// WithLib configures the engine with a WebAuthn library override.
func WithLib(lib Webauthner) ConfigOption {
	return func(e *Engine, _ *time.Duration) {
		e.lib = lib
	}
}
