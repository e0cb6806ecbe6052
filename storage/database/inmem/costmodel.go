package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/costmodel"
)

type costModelRepository struct {
	db *DB
}

var _ costmodel.Repository = (*costModelRepository)(nil) // interface compliance check

func NewCostModelRepository(db *DB) costmodel.Repository {
	return &costModelRepository{db: db}
}

func (repo *costModelRepository) QueryCostModels(ctx context.Context, instructorID string) ([]costmodel.CostModel, error) {
	defer repo.db.lock(ctx)()

	var models []costmodel.CostModel
	for _, m := range repo.db.t.costModels {
		if m.DeletedAt == nil && m.InstructorID == instructorID {
			models = append(models, m)
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].EffectiveFrom.Before(models[j].EffectiveFrom) })
	return models, nil
}

func (repo *costModelRepository) GetCostModel(ctx context.Context, id string) (costmodel.CostModel, error) {
	defer repo.db.lock(ctx)()

	if m, ok := repo.db.t.costModels[id]; ok && m.DeletedAt == nil {
		return m, nil
	}
	return costmodel.CostModel{}, core.NewNotFoundError("cost model", id)
}

func (repo *costModelRepository) CreateCostModel(ctx context.Context, m costmodel.CostModel) (costmodel.CostModel, error) {
	defer repo.db.lock(ctx)()

	m.ID = newID()
	repo.db.t.costModels[m.ID] = m
	return m, nil
}

func (repo *costModelRepository) UpdateCostModel(ctx context.Context, m costmodel.CostModel) (costmodel.CostModel, error) {
	defer repo.db.lock(ctx)()

	if _, ok := repo.db.t.costModels[m.ID]; !ok {
		return costmodel.CostModel{}, core.NewNotFoundError("cost model", m.ID)
	}
	repo.db.t.costModels[m.ID] = m
	return m, nil
}
