package webauthn

import (
	"bytes"
	"database/sql"
	"testing"

	webauthnLib "github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	auth "github.com/fmitra/passauth"
)

func TestWebAuthnUser_UserMeetsInterfaceSpec(t *testing.T) {
	tt := []struct {
		name        string
		email       string
		displayName string
		userName    string
		shownName   string
	}{
		{
			name:      "Email doubles as name",
			email:     "jane@example.com",
			userName:  "jane@example.com",
			shownName: "jane@example.com",
		},
		{
			name:        "Display name preferred for UI",
			email:       "jane@example.com",
			displayName: "Jane",
			userName:    "jane@example.com",
			shownName:   "Jane",
		},
		{
			name:      "Falls back to user ID",
			email:     "",
			userName:  "unique-user-id",
			shownName: "unique-user-id",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			domainUser := &auth.User{
				ID:          "unique-user-id",
				DisplayName: tc.displayName,
				Email: sql.NullString{
					String: tc.email,
					Valid:  tc.email != "",
				},
			}
			domainCredentials := []*auth.Credential{
				{
					ID:           "unique-credential-id",
					CredentialID: []byte("client-supplied-id"),
					PublicKey:    []byte("credential-public-key"),
					SignCount:    uint32(3),
					DeviceType:   DeviceMulti,
					IsBackedUp:   true,
					Transports:   []string{"internal"},
				},
			}
			credentials := []webauthnLib.Credential{
				{
					ID:        []byte("client-supplied-id"),
					PublicKey: []byte("credential-public-key"),
					Transport: toLibTransports([]string{"internal"}),
					Flags: webauthnLib.CredentialFlags{
						UserPresent:    true,
						UserVerified:   true,
						BackupEligible: true,
						BackupState:    true,
					},
					Authenticator: webauthnLib.Authenticator{
						SignCount: uint32(3),
					},
				},
			}

			user := User{
				User:        domainUser,
				Credentials: domainCredentials,
			}
			if !bytes.Equal([]byte(domainUser.ID), user.WebAuthnID()) {
				t.Errorf("user ID is not equal, want %v got %v",
					domainUser.ID, string(user.WebAuthnID()))
			}
			if user.WebAuthnName() != tc.userName {
				t.Errorf("user webauthn name is not equal, want %s got %s",
					tc.userName, user.WebAuthnName())
			}
			if user.WebAuthnDisplayName() != tc.shownName {
				t.Errorf("user display name is not equal, want %s got %s",
					tc.shownName, user.WebAuthnDisplayName())
			}
			// CredentialFlags carries unexported protocol state we
			// never populate.
			ignoreFlags := cmpopts.IgnoreUnexported(webauthnLib.CredentialFlags{})
			if !cmp.Equal(user.WebAuthnCredentials(), credentials, ignoreFlags) {
				t.Error(cmp.Diff(user.WebAuthnCredentials(), credentials, ignoreFlags))
			}
		})
	}
}
