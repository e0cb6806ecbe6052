package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/costmodel"
)

type costModelRow struct {
	ID            string    `db:"id"`
	InstructorID  string    `db:"instructor_id"`
	Type          string    `db:"type"`
	Amount        float64   `db:"amount"`
	Currency      string    `db:"currency"`
	EffectiveFrom time.Time `db:"effective_from"`
	EffectiveTo   null.Time `db:"effective_to"`
	CreatedAt     time.Time `db:"created_at"`
	DeletedAt     null.Time `db:"deleted_at"`
}

func newCostModelRow(m costmodel.CostModel) costModelRow {
	return costModelRow{
		ID:            m.ID,
		InstructorID:  m.InstructorID,
		Type:          string(m.Type),
		Amount:        m.Amount,
		Currency:      m.Currency,
		EffectiveFrom: m.EffectiveFrom.UTC(),
		EffectiveTo:   null.TimeFromPtr(m.EffectiveTo),
		CreatedAt:     m.CreatedAt.UTC(),
		DeletedAt:     null.TimeFromPtr(m.DeletedAt),
	}
}

func (r costModelRow) toCostModel() costmodel.CostModel {
	return costmodel.CostModel{
		ID:            r.ID,
		InstructorID:  r.InstructorID,
		Type:          costmodel.Type(r.Type),
		Amount:        r.Amount,
		Currency:      r.Currency,
		EffectiveFrom: r.EffectiveFrom.UTC(),
		EffectiveTo:   r.EffectiveTo.Ptr(),
		CreatedAt:     r.CreatedAt.UTC(),
		DeletedAt:     r.DeletedAt.Ptr(),
	}
}

const costModelColumns = "id, instructor_id, type, amount, currency, effective_from, effective_to, created_at, deleted_at"

type costModelRepository struct {
	db *DB
}

var _ costmodel.Repository = (*costModelRepository)(nil) // interface compliance check

func NewCostModelRepository(db *DB) costmodel.Repository {
	return &costModelRepository{db: db}
}

func (repo *costModelRepository) QueryCostModels(ctx context.Context, instructorID string) ([]costmodel.CostModel, error) {
	if !validID(instructorID) {
		return nil, nil
	}
	w := liveWhere().add("instructor_id = ?", instructorID)

	var rows []costModelRow
	q := "SELECT " + costModelColumns + " FROM instructor_cost_models " + w.String() + " ORDER BY effective_from, created_at, id"
	if err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &rows, q, w.args...); err != nil {
		return nil, mapErr(err, "querying cost models")
	}
	models := make([]costmodel.CostModel, 0, len(rows))
	for _, r := range rows {
		models = append(models, r.toCostModel())
	}
	return models, nil
}

func (repo *costModelRepository) GetCostModel(ctx context.Context, id string) (costmodel.CostModel, error) {
	if !validID(id) {
		return costmodel.CostModel{}, core.NewNotFoundError("cost model", id)
	}
	w := liveWhere().add("id = ?", id)

	var row costModelRow
	q := "SELECT " + costModelColumns + " FROM instructor_cost_models " + w.String()
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q, w.args...); err != nil {
		return costmodel.CostModel{}, trapNoRowsErr(err, "cost model", id, "getting cost model")
	}
	return row.toCostModel(), nil
}

func (repo *costModelRepository) CreateCostModel(ctx context.Context, m costmodel.CostModel) (costmodel.CostModel, error) {
	m.ID = newID()
	const q = `INSERT INTO instructor_cost_models (` + costModelColumns + `)
VALUES (:id, :instructor_id, :type, :amount, :currency, :effective_from, :effective_to, :created_at, :deleted_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db.exec(ctx), q, newCostModelRow(m)); err != nil {
		return costmodel.CostModel{}, mapErr(err, "inserting cost model")
	}
	return m, nil
}

func (repo *costModelRepository) UpdateCostModel(ctx context.Context, m costmodel.CostModel) (costmodel.CostModel, error) {
	const q = `UPDATE instructor_cost_models SET
type = :type, amount = :amount, currency = :currency,
effective_from = :effective_from, effective_to = :effective_to, deleted_at = :deleted_at
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db.exec(ctx), q, newCostModelRow(m))
	if err != nil {
		return costmodel.CostModel{}, mapErr(err, "updating cost model")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return costmodel.CostModel{}, core.NewNotFoundError("cost model", m.ID)
	}
	return m, nil
}
