package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/backoffice/core"
)

type auditRecorder struct {
	db *DB
}

var _ core.AuditRecorder = (*auditRecorder)(nil) // interface compliance check

func NewAuditRecorder(db *DB) core.AuditRecorder {
	return &auditRecorder{db: db}
}

func (rec *auditRecorder) Record(ctx context.Context, entry core.AuditEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return errors.Wrap(err, "encoding audit changes")
	}
	const q = `INSERT INTO audit_log (actor_id, action, entity_type, entity_id, changes, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = rec.db.exec(ctx).ExecContext(ctx, q,
		entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, types.JSONText(changes), entry.CreatedAt.UTC(),
	); err != nil {
		return mapErr(err, "inserting audit entry")
	}
	return nil
}
