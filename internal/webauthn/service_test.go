package webauthn

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	webauthnProto "github.com/go-webauthn/webauthn/protocol"
	webauthnLib "github.com/go-webauthn/webauthn/webauthn"

	auth "github.com/fmitra/passauth"
	"github.com/fmitra/passauth/internal/test"
)

func testSession(challenge []byte) *webauthnLib.SessionData {
	return &webauthnLib.SessionData{
		Challenge: base64.RawURLEncoding.EncodeToString(challenge),
	}
}

func TestWebAuthnEngine_ConfiguresEngine(t *testing.T) {
	engine, err := NewEngine(
		WithRelyingParty("example.com", "Example"),
		WithOrigins([]string{"https://example.com"}),
	)
	if err != nil {
		t.Error("received error on engine initialization:", err)
	}
	if !engine.Enabled() {
		t.Error("configured engine should be enabled")
	}
}

func TestWebAuthnEngine_DisabledWithoutRelyingParty(t *testing.T) {
	tt := []struct {
		name    string
		options []ConfigOption
	}{
		{
			name:    "No configuration",
			options: []ConfigOption{},
		},
		{
			name: "Missing origins",
			options: []ConfigOption{
				WithRelyingParty("example.com", "Example"),
			},
		},
		{
			name: "Missing relying party",
			options: []ConfigOption{
				WithOrigins([]string{"https://example.com"}),
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := NewEngine(tc.options...)
			if err != nil {
				t.Fatal("received error on engine initialization:", err)
			}
			if engine.Enabled() {
				t.Error("partially configured engine should be disabled")
			}
		})
	}
}

func TestWebAuthnEngine_GenerateRegistrationOptions(t *testing.T) {
	tt := []struct {
		name     string
		libFn    func() (*webauthnProto.CredentialCreation, *webauthnLib.SessionData, error)
		hasError bool
	}{
		{
			name: "Webauthn library failure",
			libFn: func() (*webauthnProto.CredentialCreation, *webauthnLib.SessionData, error) {
				return nil, nil, fmt.Errorf("whoops")
			},
			hasError: true,
		},
		{
			name: "Initiates registration",
			libFn: func() (*webauthnProto.CredentialCreation, *webauthnLib.SessionData, error) {
				return &webauthnProto.CredentialCreation{}, testSession([]byte("challenge-bytes")), nil
			},
			hasError: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			lib := test.WebAuthnLib{
				BeginRegistrationFn: tc.libFn,
			}
			engine, err := NewEngine(
				WithRelyingParty("example.com", "Example"),
				WithOrigins([]string{"https://example.com"}),
				WithLib(&lib),
			)
			if err != nil {
				t.Fatal("received error on engine initialization:", err)
			}

			ctx := context.Background()
			user := &auth.User{ID: "user-id"}
			existing := []*auth.Credential{
				{CredentialID: []byte("client-supplied-id")},
			}

			challenge, options, err := engine.GenerateRegistrationOptions(ctx, user, existing)
			if tc.hasError {
				if err == nil {
					t.Error("expected error, not nil")
				}
				return
			}
			if err != nil {
				t.Fatal("failed to generate options:", err)
			}
			if !bytes.Equal(challenge, []byte("challenge-bytes")) {
				t.Errorf("incorrect challenge bytes: %s", challenge)
			}
			if len(options) == 0 {
				t.Error("options snapshot is empty")
			}
		})
	}
}

func TestWebAuthnEngine_GenerateAuthenticationOptions(t *testing.T) {
	tt := []struct {
		name     string
		libFn    func() (*webauthnProto.CredentialAssertion, *webauthnLib.SessionData, error)
		hasError bool
	}{
		{
			name: "Webauthn library failure",
			libFn: func() (*webauthnProto.CredentialAssertion, *webauthnLib.SessionData, error) {
				return nil, nil, fmt.Errorf("whoops")
			},
			hasError: true,
		},
		{
			name: "Initiates authentication",
			libFn: func() (*webauthnProto.CredentialAssertion, *webauthnLib.SessionData, error) {
				return &webauthnProto.CredentialAssertion{}, testSession([]byte("challenge-bytes")), nil
			},
			hasError: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			lib := test.WebAuthnLib{
				BeginLoginFn: tc.libFn,
			}
			engine, err := NewEngine(
				WithRelyingParty("example.com", "Example"),
				WithOrigins([]string{"https://example.com"}),
				WithLib(&lib),
			)
			if err != nil {
				t.Fatal("received error on engine initialization:", err)
			}

			ctx := context.Background()
			user := &auth.User{ID: "user-id"}
			allowed := []*auth.Credential{
				{CredentialID: []byte("client-supplied-id")},
			}

			challenge, options, err := engine.GenerateAuthenticationOptions(ctx, user, allowed)
			if tc.hasError {
				if err == nil {
					t.Error("expected error, not nil")
				}
				return
			}
			if err != nil {
				t.Fatal("failed to generate options:", err)
			}
			if !bytes.Equal(challenge, []byte("challenge-bytes")) {
				t.Errorf("incorrect challenge bytes: %s", challenge)
			}
			if len(options) == 0 {
				t.Error("options snapshot is empty")
			}
		})
	}
}

func TestWebAuthnEngine_RejectsMalformedResponses(t *testing.T) {
	engine, err := NewEngine(
		WithRelyingParty("example.com", "Example"),
		WithOrigins([]string{"https://example.com"}),
		WithLib(&test.WebAuthnLib{}),
	)
	if err != nil {
		t.Fatal("received error on engine initialization:", err)
	}

	ctx := context.Background()
	user := &auth.User{ID: "user-id"}
	credential := &auth.Credential{CredentialID: []byte("client-supplied-id")}
	malformed := []byte("not-json")

	if _, err = engine.VerifyRegistrationResponse(ctx, user, []byte("challenge"), malformed); err == nil {
		t.Error("expected error for malformed attestation, not nil")
	}

	if _, err = engine.VerifyAuthenticationResponse(ctx, user, credential, []byte("challenge"), malformed); err == nil {
		t.Error("expected error for malformed assertion, not nil")
	}

	if _, err = engine.AuthenticationCredentialID(malformed); err == nil {
		t.Error("expected error for malformed assertion, not nil")
	}
}
