package core

import (
	"context"
	"time"
)

// Audit actions
const (
	ActionSlotCreate      = "slot.create"
	ActionSlotUpdate      = "slot.update"
	ActionSlotRemove      = "slot.remove"
	ActionCostModelCreate = "cost_model.create"
	ActionCostModelRemove = "cost_model.remove"
	ActionPayrollCreate   = "payroll.create"
)

type AuditEntry struct {
	ActorID    string                 `json:"actor_id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Changes    map[string]interface{} `json:"changes"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AuditRecorder receives one entry per committed mutation.
// Implementations must honour the transaction carried by ctx so that entries roll back with the mutation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}
