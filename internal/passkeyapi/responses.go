package passkeyapi

import (
	"encoding/base64"
	"encoding/json"
	"time"

	auth "github.com/fmitra/passauth"
)

// ceremonyResponse is returned when a ceremony is started. Options
// are forwarded to the browser's credential API unmodified.
type ceremonyResponse struct {
	RequestID string          `json:"request_id"`
	Options   json.RawMessage `json:"options"`
}

// credentialResponse is the response format for a passauth.Credential.
// Key material is never exposed; the credential ID is returned in the
// encoding authenticators use on the wire.
type credentialResponse struct {
	ID           string     `json:"id"`
	CredentialID string     `json:"credential_id"`
	Name         string     `json:"name"`
	DeviceType   string     `json:"device_type"`
	IsBackedUp   bool       `json:"is_backed_up"`
	Transports   []string   `json:"transports"`
	LastUsedAt   *time.Time `json:"last_used_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// userResponse is the response format for a passauth.User.
type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// resultResponse is a success response for a completed ceremony.
type resultResponse struct {
	User       userResponse       `json:"user"`
	Credential credentialResponse `json:"credential"`
}

// listResponse is a success response for PasskeyAPI.ListCredentials.
type listResponse struct {
	Credentials []credentialResponse `json:"credentials"`
}

// singleResponse is a success response for a single Credential.
type singleResponse struct {
	Credential credentialResponse `json:"credential"`
}

func newCeremonyResponse(options *auth.CeremonyOptions) *ceremonyResponse {
	return &ceremonyResponse{
		RequestID: options.RequestID,
		Options:   options.Options,
	}
}

func newResultResponse(result *auth.CeremonyResult) *resultResponse {
	resp := resultResponse{
		User: userResponse{
			ID:          result.User.ID,
			Email:       result.User.Email.String,
			DisplayName: result.User.DisplayName,
		},
		Credential: newCredentialResponse(result.Credential),
	}
	return &resp
}

// Create populates a listResponse with a list of Credentials.
func (r *listResponse) Create(credentials []*auth.Credential) {
	rc := []credentialResponse{}
	for _, c := range credentials {
		rc = append(rc, newCredentialResponse(c))
	}
	r.Credentials = rc
}

// Create populates fields in a singleResponse.
func (r *singleResponse) Create(credential *auth.Credential) {
	r.Credential = newCredentialResponse(credential)
}

func newCredentialResponse(c *auth.Credential) credentialResponse {
	resp := credentialResponse{
		ID:           c.ID,
		CredentialID: base64.RawURLEncoding.EncodeToString(c.CredentialID),
		Name:         c.Name,
		DeviceType:   c.DeviceType,
		IsBackedUp:   c.IsBackedUp,
		Transports:   c.Transports,
		CreatedAt:    c.CreatedAt,
	}
	if c.LastUsedAt.Valid {
		t := c.LastUsedAt.Time
		resp.LastUsedAt = &t
	}
	return resp
}
