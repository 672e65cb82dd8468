package pg

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	auth "github.com/fmitra/passauth"
)

// AuditRepository is an implementation of auth.AuditRepository.
// Events are append only; there are no update or delete paths.
type AuditRepository struct {
	client *Client
}

// Create appends a new immutable domain event.
func (r *AuditRepository) Create(ctx context.Context, audit *auth.Audit) error {
	if audit.EntityType == "" || audit.EntityID == "" || audit.EventType == "" {
		return auth.ErrInvalidField("audit entity and event types cannot be empty")
	}

	auditID, err := ulid.New(ulid.Now(), r.client.entropy)
	if err != nil {
		return errors.Wrap(err, "cannot generate unique audit ID")
	}

	audit.ID = auditID.String()
	row := r.client.queryRowContext(
		ctx,
		r.client.auditQ["insert"],
		audit.ID,
		audit.EntityType,
		audit.EntityID,
		audit.EventType,
		nullableJSON(audit.Payload),
		audit.PerformedBy,
	)
	return row.Scan(&audit.CreatedAt)
}

// nullableJSON converts empty JSON payloads to SQL NULL.
func nullableJSON(b json.RawMessage) interface{} {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}

// nullableString converts empty strings to SQL NULL.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
