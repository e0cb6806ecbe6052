package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/payroll"
)

type payrollRepository struct {
	db *DB
}

var _ payroll.Repository = (*payrollRepository)(nil) // interface compliance check

func NewPayrollRepository(db *DB) payroll.Repository {
	return &payrollRepository{db: db}
}

func (repo *payrollRepository) active(instructorID string, year, month int) (payroll.InstructorPayroll, bool) {
	for _, p := range repo.db.t.payrolls {
		if p.DeletedAt == nil && !p.IsVoid() &&
			p.InstructorID == instructorID && p.PeriodYear == year && p.PeriodMonth == month {
			return p, true
		}
	}
	return payroll.InstructorPayroll{}, false
}

func (repo *payrollRepository) GetActivePayroll(ctx context.Context, instructorID string, year, month int) (payroll.InstructorPayroll, error) {
	defer repo.db.lock(ctx)()

	if p, ok := repo.active(instructorID, year, month); ok {
		return p, nil
	}
	return payroll.InstructorPayroll{}, core.NewNotFoundError("payroll", instructorID)
}

// CreatePayroll enforces the (instructor, year, month) uniqueness among non-void payrolls,
// like the partial unique index of the SQL store.
func (repo *payrollRepository) CreatePayroll(ctx context.Context, p payroll.InstructorPayroll) (payroll.InstructorPayroll, error) {
	defer repo.db.lock(ctx)()

	if !p.IsVoid() {
		if _, exists := repo.active(p.InstructorID, p.PeriodYear, p.PeriodMonth); exists {
			return payroll.InstructorPayroll{}, payroll.ErrPayrollExists
		}
	}
	p.ID = newID()
	repo.db.t.payrolls[p.ID] = p
	return p, nil
}

func (repo *payrollRepository) UpsertInstructorSession(ctx context.Context, s payroll.InstructorSession) (payroll.InstructorSession, error) {
	defer repo.db.lock(ctx)()

	repo.db.t.instructorSessions[s.SessionID] = s
	return s, nil
}

func (repo *payrollRepository) GetPayroll(ctx context.Context, id string) (payroll.InstructorPayroll, error) {
	defer repo.db.lock(ctx)()

	if p, ok := repo.db.t.payrolls[id]; ok && p.DeletedAt == nil {
		return p, nil
	}
	return payroll.InstructorPayroll{}, core.NewNotFoundError("payroll", id)
}

func (repo *payrollRepository) QueryPayrolls(ctx context.Context, instructorID string) ([]payroll.InstructorPayroll, error) {
	defer repo.db.lock(ctx)()

	var payrolls []payroll.InstructorPayroll
	for _, p := range repo.db.t.payrolls {
		if p.DeletedAt == nil && p.InstructorID == instructorID {
			payrolls = append(payrolls, p)
		}
	}
	sort.Slice(payrolls, func(i, j int) bool {
		a, b := payrolls[i], payrolls[j]
		if a.PeriodYear != b.PeriodYear {
			return a.PeriodYear > b.PeriodYear
		}
		if a.PeriodMonth != b.PeriodMonth {
			return a.PeriodMonth > b.PeriodMonth
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return payrolls, nil
}

func (repo *payrollRepository) QueryInstructorSessions(ctx context.Context, payrollID string) ([]payroll.InstructorSession, error) {
	defer repo.db.lock(ctx)()

	var lines []payroll.InstructorSession
	for _, s := range repo.db.t.instructorSessions {
		if s.PayrollID == payrollID {
			lines = append(lines, s)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].SessionID < lines[j].SessionID })
	return lines, nil
}

// InstructorSessionCount returns the number of priced line items stored.
func (db *DB) InstructorSessionCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.t.instructorSessions)
}

// SetPayrollStatus forces a payroll status, standing in for the approval workflow.
func (db *DB) SetPayrollStatus(id string, status payroll.Status) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.t.payrolls[id]
	if !ok {
		return core.NewNotFoundError("payroll", id)
	}
	p.Status = status
	db.t.payrolls[id] = p
	return nil
}
