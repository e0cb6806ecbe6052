package costmodel

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
)

// Models is the set of live cost models of one instructor.
type Models []CostModel

// At returns the model effective at t, or nil when none applies.
// Among overlapping candidates the latest effectiveFrom wins.
func (ms Models) At(t time.Time) *CostModel {
	return pick(ms, func(m CostModel) bool { return m.EffectiveAt(t) })
}

// Monthly returns the monthly model whose window intersects [start, endExclusive), or nil.
func (ms Models) Monthly(start, endExclusive time.Time) *CostModel {
	return pick(ms, func(m CostModel) bool {
		return m.Type == TypeMonthly && m.Intersects(start, endExclusive)
	})
}

func pick(ms Models, match func(CostModel) bool) *CostModel {
	var best *CostModel
	for i := range ms {
		m := ms[i]
		if m.DeletedAt != nil || !match(m) {
			continue
		}
		if best == nil || later(m, *best) {
			picked := m
			best = &picked
		}
	}
	return best
}

// later orders candidates: effectiveFrom, then createdAt, then id.
func later(a, b CostModel) bool {
	if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
		return a.EffectiveFrom.After(b.EffectiveFrom)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Resolver selects the cost model that applies to an instructor at an instant or over a period.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &Resolver{repo: repo}
}

// Load fetches the instructor's live models once, for repeated resolution.
func (r *Resolver) Load(ctx context.Context, instructorID string) (Models, error) {
	ms, err := r.repo.QueryCostModels(ctx, instructorID)
	if err != nil {
		return nil, errors.Wrap(err, "querying cost models")
	}
	return ms, nil
}

// ResolveAt returns the model effective at instant. No model is not an error: callers treat it as zero cost.
func (r *Resolver) ResolveAt(ctx context.Context, instructorID string, instant time.Time) (*CostModel, error) {
	ms, err := r.Load(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	return ms.At(instant), nil
}

// ResolveMonthly returns the monthly model covering [periodStart, periodEndExclusive), if any.
func (r *Resolver) ResolveMonthly(ctx context.Context, instructorID string, periodStart, periodEndExclusive time.Time) (*CostModel, error) {
	ms, err := r.Load(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	return ms.Monthly(periodStart, periodEndExclusive), nil
}
