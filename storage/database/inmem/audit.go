package inmemdb

import (
	"context"

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
	defer rec.db.lock(ctx)()
	rec.db.t.audit = append(rec.db.t.audit, entry)
	return nil
}

// AuditLog returns a copy of the recorded entries in insertion order.
func (db *DB) AuditLog() []core.AuditEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]core.AuditEntry(nil), db.t.audit...)
}
