package slot

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/backoffice/core"
)

const entityType = "teaching_slot"

type (
	Repository interface {
		// CreateSlot assigns the ID and persists the slot.
		// A storage-level overlap violation is reported as a *core.ConflictError.
		CreateSlot(ctx context.Context, s TeachingSlot) (TeachingSlot, error)
		// GetSlot returns a *core.NotFoundError for unknown or tombstoned slots.
		// Inside a transaction the row stays locked until commit.
		GetSlot(ctx context.Context, id string) (TeachingSlot, error)
		QuerySlots(ctx context.Context, filter QueryFilter) ([]TeachingSlot, error)
		// QueryDaySlots returns the live slots of the day that share the instructor OR the room.
		QueryDaySlots(ctx context.Context, dayOfWeek int, instructorID, roomID string) ([]TeachingSlot, error)
		// UpdateSlot writes the whole record, including status and tombstone fields.
		UpdateSlot(ctx context.Context, s TeachingSlot) (TeachingSlot, error)
	}

	// Allocator owns the teaching slot lifecycle and the no-double-booking invariant.
	Allocator struct {
		tx    core.Transactor
		repo  Repository
		audit core.AuditRecorder
		clock core.Clock
	}
)

func NewAllocator(tx core.Transactor, repo Repository, audit core.AuditRecorder, clock core.Clock) *Allocator {
	// clocks are value types, which vala cannot check for nil
	if clock == nil {
		panic("clock is required")
	}
	vala.BeginValidation().Validate(
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(audit, "audit"),
	).CheckAndPanic()

	return &Allocator{tx: tx, repo: repo, audit: audit, clock: clock}
}

// checkOverlap runs the overlap check for d against the instructor's and the room's slots of the same day.
func (svc *Allocator) checkOverlap(ctx context.Context, d Details, excludeID string) error {
	existing, err := svc.repo.QueryDaySlots(ctx, d.DayOfWeek, d.InstructorID, d.RoomID)
	if err != nil {
		return errors.Wrap(err, "querying day slots")
	}
	if conflicts := findConflicts(d, existing, excludeID); len(conflicts) > 0 {
		return core.NewConflictError(conflicts...)
	}
	return nil
}

func (svc *Allocator) Create(ctx context.Context, ns NewSlot) (TeachingSlot, error) {
	if err := ns.Validate(); err != nil {
		return TeachingSlot{}, err
	}

	var created TeachingSlot
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := svc.checkOverlap(ctx, ns.Details, ""); err != nil {
			return err
		}

		now := svc.clock.Now()
		s, err := svc.repo.CreateSlot(ctx, TeachingSlot{
			Details:   ns.Details,
			Status:    StatusOpen,
			CreatedBy: ns.CreatedBy,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}

		if err = svc.audit.Record(ctx, core.AuditEntry{
			ActorID:    ns.CreatedBy,
			Action:     core.ActionSlotCreate,
			EntityType: entityType,
			EntityID:   s.ID,
			Changes:    detailsMap(s.Details),
			CreatedAt:  now,
		}); err != nil {
			return errors.Wrap(err, "recording audit entry")
		}
		created = s
		return nil
	})
	if err != nil {
		return TeachingSlot{}, err
	}
	return created, nil
}

// Update merges the patch onto the current slot, re-validates and re-checks overlaps, excluding the slot itself.
// Occupied slots are immutable.
func (svc *Allocator) Update(ctx context.Context, id string, us UpdateSlot) (TeachingSlot, error) {
	var updated TeachingSlot
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		orig, err := svc.repo.GetSlot(ctx, id)
		if err != nil {
			return err
		}
		if orig.IsOccupied() {
			return core.NewLockedError(entityType, id)
		}

		if core.CleanString(us.UpdatedBy) == "" {
			return core.NewFieldValidationError("updated_by", "this field is required")
		}
		merged := us.Merge(orig.Details)
		if err = validateDetails(merged); err != nil {
			return err
		}

		changes := diffDetails(orig.Details, merged)
		if len(changes) == 0 {
			updated = orig
			return nil
		}

		if orig.IsActive() {
			if err = svc.checkOverlap(ctx, merged, orig.ID); err != nil {
				return err
			}
		}

		now := svc.clock.Now()
		s := orig
		s.Details = merged
		s.UpdatedAt = now
		if s, err = svc.repo.UpdateSlot(ctx, s); err != nil {
			return err
		}

		if err = svc.audit.Record(ctx, core.AuditEntry{
			ActorID:    core.CleanString(us.UpdatedBy),
			Action:     core.ActionSlotUpdate,
			EntityType: entityType,
			EntityID:   s.ID,
			Changes:    changes,
			CreatedAt:  now,
		}); err != nil {
			return errors.Wrap(err, "recording audit entry")
		}
		updated = s
		return nil
	})
	if err != nil {
		return TeachingSlot{}, err
	}
	return updated, nil
}

// Remove soft-deletes the slot and forces it inactive. A reason is mandatory.
func (svc *Allocator) Remove(ctx context.Context, id, reason, actorID string) error {
	reason = core.CleanString(reason)
	actorID = core.CleanString(actorID)

	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		orig, err := svc.repo.GetSlot(ctx, id)
		if err != nil {
			return err
		}
		if orig.IsOccupied() {
			return core.NewLockedError(entityType, id)
		}
		if reason == "" {
			return core.NewFieldValidationError("reason", "a reason is required to remove a slot")
		}
		if actorID == "" {
			return core.NewFieldValidationError("actor_id", "this field is required")
		}

		now := svc.clock.Now()
		s := orig
		s.Status = StatusInactive
		s.DeletedAt = &now
		s.DeleteReason = reason
		s.UpdatedAt = now
		if _, err = svc.repo.UpdateSlot(ctx, s); err != nil {
			return err
		}

		if err = svc.audit.Record(ctx, core.AuditEntry{
			ActorID:    actorID,
			Action:     core.ActionSlotRemove,
			EntityType: entityType,
			EntityID:   id,
			Changes: map[string]interface{}{
				"status":        string(StatusInactive),
				"previous":      string(orig.Status),
				"delete_reason": reason,
			},
			CreatedAt: now,
		}); err != nil {
			return errors.Wrap(err, "recording audit entry")
		}
		return nil
	})
}

func (svc *Allocator) Get(ctx context.Context, id string) (TeachingSlot, error) {
	return svc.repo.GetSlot(ctx, id)
}

func (svc *Allocator) List(ctx context.Context, filter QueryFilter) ([]TeachingSlot, error) {
	return svc.repo.QuerySlots(ctx, filter)
}
