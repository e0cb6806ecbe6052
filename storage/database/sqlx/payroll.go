package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/payroll"
)

type payrollRow struct {
	ID           string         `db:"id"`
	InstructorID string         `db:"instructor_id"`
	PeriodYear   int            `db:"period_year"`
	PeriodMonth  int            `db:"period_month"`
	Status       string         `db:"status"`
	Currency     string         `db:"currency"`
	TotalAmount  float64        `db:"total_amount"`
	Snapshot     types.JSONText `db:"snapshot"`
	GeneratedBy  string         `db:"generated_by"`
	CreatedAt    time.Time      `db:"created_at"`
	DeletedAt    null.Time      `db:"deleted_at"`
}

func newPayrollRow(p payroll.InstructorPayroll) (payrollRow, error) {
	snap, err := json.Marshal(p.Snapshot)
	if err != nil {
		return payrollRow{}, errors.Wrap(err, "encoding payroll snapshot")
	}
	return payrollRow{
		ID:           p.ID,
		InstructorID: p.InstructorID,
		PeriodYear:   p.PeriodYear,
		PeriodMonth:  p.PeriodMonth,
		Status:       string(p.Status),
		Currency:     p.Currency,
		TotalAmount:  p.TotalAmount,
		Snapshot:     types.JSONText(snap),
		GeneratedBy:  p.GeneratedBy,
		CreatedAt:    p.CreatedAt.UTC(),
		DeletedAt:    null.TimeFromPtr(p.DeletedAt),
	}, nil
}

func (r payrollRow) toPayroll() (payroll.InstructorPayroll, error) {
	p := payroll.InstructorPayroll{
		ID:           r.ID,
		InstructorID: r.InstructorID,
		PeriodYear:   r.PeriodYear,
		PeriodMonth:  r.PeriodMonth,
		Status:       payroll.Status(r.Status),
		Currency:     r.Currency,
		TotalAmount:  r.TotalAmount,
		GeneratedBy:  r.GeneratedBy,
		CreatedAt:    r.CreatedAt.UTC(),
		DeletedAt:    r.DeletedAt.Ptr(),
	}
	if len(r.Snapshot) > 0 {
		if err := r.Snapshot.Unmarshal(&p.Snapshot); err != nil {
			return payroll.InstructorPayroll{}, errors.Wrapf(err, "decoding snapshot of payroll %s", r.ID)
		}
	}
	return p, nil
}

type instructorSessionRow struct {
	SessionID          string      `db:"session_id"`
	InstructorID       string      `db:"instructor_id"`
	CostModelID        null.String `db:"cost_model_id"`
	CostAmount         float64     `db:"cost_amount"`
	Currency           string      `db:"currency"`
	DurationMinutes    int         `db:"duration_minutes"`
	AttendanceComplete bool        `db:"attendance_complete"`
	CalculatedAt       time.Time   `db:"calculated_at"`
	PayrollID          string      `db:"payroll_id"`
}

func newInstructorSessionRow(s payroll.InstructorSession) instructorSessionRow {
	return instructorSessionRow{
		SessionID:          s.SessionID,
		InstructorID:       s.InstructorID,
		CostModelID:        null.NewString(s.CostModelID, s.CostModelID != ""),
		CostAmount:         s.CostAmount,
		Currency:           s.Currency,
		DurationMinutes:    s.DurationMinutes,
		AttendanceComplete: s.AttendanceComplete,
		CalculatedAt:       s.CalculatedAt.UTC(),
		PayrollID:          s.PayrollID,
	}
}

func (r instructorSessionRow) toInstructorSession() payroll.InstructorSession {
	return payroll.InstructorSession{
		SessionID:          r.SessionID,
		InstructorID:       r.InstructorID,
		CostModelID:        r.CostModelID.String,
		CostAmount:         r.CostAmount,
		Currency:           r.Currency,
		DurationMinutes:    r.DurationMinutes,
		AttendanceComplete: r.AttendanceComplete,
		CalculatedAt:       r.CalculatedAt.UTC(),
		PayrollID:          r.PayrollID,
	}
}

const (
	payrollColumns = `id, instructor_id, period_year, period_month, status, currency, total_amount,
snapshot, generated_by, created_at, deleted_at`

	instructorSessionColumns = `session_id, instructor_id, cost_model_id, cost_amount, currency,
duration_minutes, attendance_complete, calculated_at, payroll_id`

	upsertInstructorSessionQuery = `INSERT INTO instructor_sessions (` + instructorSessionColumns + `)
VALUES (:session_id, :instructor_id, :cost_model_id, :cost_amount, :currency,
:duration_minutes, :attendance_complete, :calculated_at, :payroll_id)
ON CONFLICT (session_id) DO UPDATE SET
instructor_id = EXCLUDED.instructor_id, cost_model_id = EXCLUDED.cost_model_id,
cost_amount = EXCLUDED.cost_amount, currency = EXCLUDED.currency,
duration_minutes = EXCLUDED.duration_minutes, attendance_complete = EXCLUDED.attendance_complete,
calculated_at = EXCLUDED.calculated_at, payroll_id = EXCLUDED.payroll_id`
)

type payrollRepository struct {
	db *DB
}

var _ payroll.Repository = (*payrollRepository)(nil) // interface compliance check

func NewPayrollRepository(db *DB) payroll.Repository {
	return &payrollRepository{db: db}
}

func (repo *payrollRepository) getOne(ctx context.Context, w *where, entityID, msg string) (payroll.InstructorPayroll, error) {
	var row payrollRow
	q := "SELECT " + payrollColumns + " FROM instructor_payrolls " + w.String()
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q, w.args...); err != nil {
		return payroll.InstructorPayroll{}, trapNoRowsErr(err, "payroll", entityID, msg)
	}
	return row.toPayroll()
}

func (repo *payrollRepository) GetActivePayroll(ctx context.Context, instructorID string, year, month int) (payroll.InstructorPayroll, error) {
	if !validID(instructorID) {
		return payroll.InstructorPayroll{}, core.NewNotFoundError("payroll", instructorID)
	}
	w := liveWhere().
		add("instructor_id = ?", instructorID).
		add("period_year = ?", year).
		add("period_month = ?", month).
		add("status <> ?", string(payroll.StatusVoid))
	return repo.getOne(ctx, w, instructorID, "getting active payroll")
}

func (repo *payrollRepository) CreatePayroll(ctx context.Context, p payroll.InstructorPayroll) (payroll.InstructorPayroll, error) {
	p.ID = newID()
	row, err := newPayrollRow(p)
	if err != nil {
		return payroll.InstructorPayroll{}, err
	}
	const q = `INSERT INTO instructor_payrolls (` + payrollColumns + `)
VALUES (:id, :instructor_id, :period_year, :period_month, :status, :currency, :total_amount,
:snapshot, :generated_by, :created_at, :deleted_at)`
	if _, err = sqlx.NamedExecContext(ctx, repo.db.exec(ctx), q, row); err != nil {
		return payroll.InstructorPayroll{}, mapErr(err, "inserting payroll")
	}
	return p, nil
}

func (repo *payrollRepository) UpsertInstructorSession(ctx context.Context, s payroll.InstructorSession) (payroll.InstructorSession, error) {
	if _, err := sqlx.NamedExecContext(ctx, repo.db.exec(ctx), upsertInstructorSessionQuery, newInstructorSessionRow(s)); err != nil {
		return payroll.InstructorSession{}, mapErr(err, "upserting instructor session")
	}
	return s, nil
}

func (repo *payrollRepository) GetPayroll(ctx context.Context, id string) (payroll.InstructorPayroll, error) {
	if !validID(id) {
		return payroll.InstructorPayroll{}, core.NewNotFoundError("payroll", id)
	}
	return repo.getOne(ctx, liveWhere().add("id = ?", id), id, "getting payroll")
}

func (repo *payrollRepository) QueryPayrolls(ctx context.Context, instructorID string) ([]payroll.InstructorPayroll, error) {
	if !validID(instructorID) {
		return nil, nil
	}
	w := liveWhere().add("instructor_id = ?", instructorID)

	var rows []payrollRow
	q := "SELECT " + payrollColumns + " FROM instructor_payrolls " + w.String() +
		orderBy(
			core.DBOrdering{Field: "period_year"},
			core.DBOrdering{Field: "period_month"},
			core.DBOrdering{Field: "created_at"},
		)
	if err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &rows, q, w.args...); err != nil {
		return nil, mapErr(err, "querying payrolls")
	}
	payrolls := make([]payroll.InstructorPayroll, 0, len(rows))
	for _, r := range rows {
		p, err := r.toPayroll()
		if err != nil {
			return nil, err
		}
		payrolls = append(payrolls, p)
	}
	return payrolls, nil
}

func (repo *payrollRepository) QueryInstructorSessions(ctx context.Context, payrollID string) ([]payroll.InstructorSession, error) {
	if !validID(payrollID) {
		return nil, nil
	}

	var rows []instructorSessionRow
	q := "SELECT " + instructorSessionColumns + " FROM instructor_sessions WHERE payroll_id = $1 ORDER BY session_id"
	if err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &rows, q, payrollID); err != nil {
		return nil, mapErr(err, "querying instructor sessions")
	}
	lines := make([]payroll.InstructorSession, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, r.toInstructorSession())
	}
	return lines, nil
}
