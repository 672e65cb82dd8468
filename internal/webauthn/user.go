package webauthn

import (
	webauthnLib "github.com/go-webauthn/webauthn/webauthn"

	auth "github.com/fmitra/passauth"
)

// User is a wrapper for the passauth domain's user to provide
// compatibility with the go-webauthn library.
type User struct {
	User        *auth.User
	Credentials []*auth.Credential
}

// WebAuthnID returns the user's unique ID.
func (u *User) WebAuthnID() []byte {
	return []byte(u.User.ID)
}

// WebAuthnName returns the user's name. We only guarantee an email
// address for an account, so the address doubles as the name.
func (u *User) WebAuthnName() string {
	if u.User.Email.String != "" {
		return u.User.Email.String
	}
	return u.User.ID
}

// WebAuthnDisplayName returns the name shown by the authenticator UI.
func (u *User) WebAuthnDisplayName() string {
	if u.User.DisplayName != "" {
		return u.User.DisplayName
	}
	return u.WebAuthnName()
}

// WebAuthnCredentials returns the user's registered credentials in the
// library's format.
func (u *User) WebAuthnCredentials() []webauthnLib.Credential {
	credentials := make([]webauthnLib.Credential, 0, len(u.Credentials))
	for _, c := range u.Credentials {
		credentials = append(credentials, toLibCredential(c))
	}
	return credentials
}
