package costmodel

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/instructor"
)

const entityType = "cost_model"

type (
	Repository interface {
		// QueryCostModels returns the instructor's live (non-tombstoned) models.
		QueryCostModels(ctx context.Context, instructorID string) ([]CostModel, error)
		GetCostModel(ctx context.Context, id string) (CostModel, error)
		CreateCostModel(ctx context.Context, m CostModel) (CostModel, error)
		UpdateCostModel(ctx context.Context, m CostModel) (CostModel, error)
	}

	// Service is the administrative write path for cost models.
	Service struct {
		tx          core.Transactor
		repo        Repository
		instructors instructor.Repository
		audit       core.AuditRecorder
		clock       core.Clock
	}
)

func NewService(tx core.Transactor, repo Repository, instructors instructor.Repository, audit core.AuditRecorder, clock core.Clock) *Service {
	// clocks are value types, which vala cannot check for nil
	if clock == nil {
		panic("clock is required")
	}
	vala.BeginValidation().Validate(
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(instructors, "instructors"),
		vala.IsNotNil(audit, "audit"),
	).CheckAndPanic()

	return &Service{tx: tx, repo: repo, instructors: instructors, audit: audit, clock: clock}
}

func (svc *Service) Create(ctx context.Context, nm NewCostModel) (CostModel, error) {
	if err := nm.Validate(); err != nil {
		return CostModel{}, err
	}
	if _, err := svc.instructors.GetInstructor(ctx, nm.InstructorID); err != nil {
		return CostModel{}, err
	}

	var created CostModel
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		now := svc.clock.Now()
		m, err := svc.repo.CreateCostModel(ctx, CostModel{
			InstructorID:  nm.InstructorID,
			Type:          nm.Type,
			Amount:        nm.Amount,
			Currency:      nm.Currency,
			EffectiveFrom: nm.EffectiveFrom.UTC(),
			EffectiveTo:   utcPtr(nm.EffectiveTo),
			CreatedAt:     now,
		})
		if err != nil {
			return err
		}
		if err = svc.audit.Record(ctx, core.AuditEntry{
			ActorID:    nm.CreatedBy,
			Action:     core.ActionCostModelCreate,
			EntityType: entityType,
			EntityID:   m.ID,
			Changes: map[string]interface{}{
				"instructor_id":  m.InstructorID,
				"type":           string(m.Type),
				"amount":         m.Amount,
				"currency":       m.Currency,
				"effective_from": m.EffectiveFrom,
				"effective_to":   m.EffectiveTo,
			},
			CreatedAt: now,
		}); err != nil {
			return errors.Wrap(err, "recording audit entry")
		}
		created = m
		return nil
	})
	if err != nil {
		return CostModel{}, err
	}
	return created, nil
}

// Remove tombstones a cost model. History stays queryable through payroll snapshots.
func (svc *Service) Remove(ctx context.Context, id, actorID string) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		m, err := svc.repo.GetCostModel(ctx, id)
		if err != nil {
			return err
		}
		now := svc.clock.Now()
		m.DeletedAt = &now
		if _, err = svc.repo.UpdateCostModel(ctx, m); err != nil {
			return err
		}
		if err = svc.audit.Record(ctx, core.AuditEntry{
			ActorID:    actorID,
			Action:     core.ActionCostModelRemove,
			EntityType: entityType,
			EntityID:   id,
			Changes:    map[string]interface{}{"deleted_at": now},
			CreatedAt:  now,
		}); err != nil {
			return errors.Wrap(err, "recording audit entry")
		}
		return nil
	})
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
