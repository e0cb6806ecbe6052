package payroll

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/costmodel"
	"github.com/trezcool/backoffice/core/instructor"
	"github.com/trezcool/backoffice/core/session"
)

const entityType = "instructor_payroll"

type (
	Repository interface {
		// GetActivePayroll returns the live non-void payroll of the period, or a *core.NotFoundError.
		GetActivePayroll(ctx context.Context, instructorID string, year, month int) (InstructorPayroll, error)
		// CreatePayroll assigns the ID and inserts the payroll.
		// It returns ErrPayrollExists when the storage uniqueness guard rejects the period.
		CreatePayroll(ctx context.Context, p InstructorPayroll) (InstructorPayroll, error)
		// UpsertInstructorSession inserts or replaces the line item keyed by its session ID.
		UpsertInstructorSession(ctx context.Context, s InstructorSession) (InstructorSession, error)
		GetPayroll(ctx context.Context, id string) (InstructorPayroll, error)
		// QueryPayrolls returns the instructor's live payrolls, latest period first.
		QueryPayrolls(ctx context.Context, instructorID string) ([]InstructorPayroll, error)
		QueryInstructorSessions(ctx context.Context, payrollID string) ([]InstructorSession, error)
	}

	Options struct {
		DefaultCurrency string
	}

	// Generator prices completed sessions and commits one draft payroll per instructor and month.
	Generator struct {
		tx          core.Transactor
		repo        Repository
		instructors instructor.Repository
		sessions    session.Repository
		resolver    *costmodel.Resolver
		audit       core.AuditRecorder
		clock       core.Clock
		logger      core.Logger
		opts        Options
	}
)

func NewGenerator(
	tx core.Transactor,
	repo Repository,
	instructors instructor.Repository,
	sessions session.Repository,
	resolver *costmodel.Resolver,
	audit core.AuditRecorder,
	clock core.Clock,
	logger core.Logger,
	opts Options,
) *Generator {
	// clocks are value types, which vala cannot check for nil
	if clock == nil {
		panic("clock is required")
	}
	vala.BeginValidation().Validate(
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(instructors, "instructors"),
		vala.IsNotNil(sessions, "sessions"),
		vala.IsNotNil(resolver, "resolver"),
		vala.IsNotNil(audit, "audit"),
		vala.IsNotNil(logger, "logger"),
		vala.StringNotEmpty(opts.DefaultCurrency, "opts.DefaultCurrency"),
	).CheckAndPanic()

	return &Generator{
		tx:          tx,
		repo:        repo,
		instructors: instructors,
		sessions:    sessions,
		resolver:    resolver,
		audit:       audit,
		clock:       clock,
		logger:      logger,
		opts:        opts,
	}
}

// NewPeriod validates year and month and computes the UTC month boundaries.
func NewPeriod(year, month int) (Period, error) {
	var flds []core.FieldError
	if year < 1 {
		flds = append(flds, core.FieldError{Field: "year", Error: "year must be positive"})
	}
	if month < 1 || month > 12 {
		flds = append(flds, core.FieldError{Field: "month", Error: "month must be between 1 and 12"})
	}
	if flds != nil {
		return Period{}, core.NewValidationError(nil, flds...)
	}
	start, end := core.MonthBounds(year, time.Month(month))
	return Period{Year: year, Month: month, Start: start, End: end}, nil
}

// Generate produces the payrolls of a month, for one instructor or all of them.
// Each instructor commits (or fails) on its own; the batch is not all-or-nothing.
// When a single instructor was requested and failed, its error is also returned.
func (g *Generator) Generate(ctx context.Context, year, month int, instructorID, generatedBy string) (Report, error) {
	period, err := NewPeriod(year, month)
	if err != nil {
		return Report{}, err
	}
	report := Report{Period: period}

	instructorID = core.CleanString(instructorID)
	ids, err := g.instructorSet(ctx, instructorID)
	if err != nil {
		return report, err
	}

	report.Results = make([]Result, 0, len(ids))
	for _, id := range ids {
		res := g.generateFor(ctx, period, id, generatedBy)
		report.Results = append(report.Results, res)
	}

	if instructorID != "" && len(report.Results) == 1 && report.Results[0].Err != nil {
		return report, report.Results[0].Err
	}
	return report, nil
}

func (g *Generator) instructorSet(ctx context.Context, instructorID string) ([]string, error) {
	if instructorID != "" {
		inst, err := g.instructors.GetInstructor(ctx, instructorID)
		if err != nil {
			return nil, err
		}
		return []string{inst.ID}, nil
	}

	insts, err := g.instructors.QueryInstructors(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying instructors")
	}
	ids := make([]string, 0, len(insts))
	for _, inst := range insts {
		ids = append(ids, inst.ID)
	}
	return ids, nil
}

func (g *Generator) generateFor(ctx context.Context, period Period, instructorID, generatedBy string) Result {
	res := Result{InstructorID: instructorID}
	extras := map[string]interface{}{"instructor_id": instructorID, "year": period.Year, "month": period.Month}

	// fast path only: the storage uniqueness guard decides in CreatePayroll
	existing, err := g.repo.GetActivePayroll(ctx, instructorID, period.Year, period.Month)
	switch {
	case err == nil:
		res.Status = ResultExists
		res.PayrollID = existing.ID
		return res
	case !core.IsNotFound(err):
		return g.fail(res, errors.Wrap(err, "checking existing payroll"), extras)
	}

	sessions, err := g.sessions.QueryCompletedSessions(ctx, instructorID, period.Start, period.End)
	if err != nil {
		return g.fail(res, errors.Wrap(err, "querying completed sessions"), extras)
	}
	models, err := g.resolver.Load(ctx, instructorID)
	if err != nil {
		return g.fail(res, err, extras)
	}
	monthly := models.Monthly(period.Start, period.End)

	if len(sessions) == 0 && monthly == nil {
		res.Status = ResultNoSessions
		return res
	}

	if err = checkAttendance(sessions); err != nil {
		return g.fail(res, err, extras)
	}

	items := make([]LineItem, 0, len(sessions))
	for _, s := range sessions {
		m := models.At(s.StartTime)
		if monthly != nil {
			m = monthly
		}
		items = append(items, PriceSession(s, m, g.opts.DefaultCurrency))
	}
	total, currency := totals(items, monthly, g.opts.DefaultCurrency)

	now := g.clock.Now()
	p := InstructorPayroll{
		InstructorID: instructorID,
		PeriodYear:   period.Year,
		PeriodMonth:  period.Month,
		Status:       StatusDraft,
		Currency:     currency,
		TotalAmount:  total,
		Snapshot:     buildSnapshot(period, instructorID, generatedBy, now, items, monthly, currency, total),
		GeneratedBy:  generatedBy,
		CreatedAt:    now,
	}

	err = g.tx.InTx(ctx, func(ctx context.Context) error {
		created, err := g.repo.CreatePayroll(ctx, p)
		if err != nil {
			return err
		}
		for _, it := range items {
			line := InstructorSession{
				SessionID:          it.Session.ID,
				InstructorID:       instructorID,
				CostAmount:         it.CostAmount,
				Currency:           it.Currency,
				DurationMinutes:    it.DurationMinutes,
				AttendanceComplete: it.Session.HasAttendance(),
				CalculatedAt:       now,
				PayrollID:          created.ID,
			}
			if it.CostModel != nil {
				line.CostModelID = it.CostModel.ID
			}
			if _, err = g.repo.UpsertInstructorSession(ctx, line); err != nil {
				return errors.Wrapf(err, "upserting instructor session %s", it.Session.ID)
			}
		}
		if err = g.audit.Record(ctx, core.AuditEntry{
			ActorID:    generatedBy,
			Action:     core.ActionPayrollCreate,
			EntityType: entityType,
			EntityID:   created.ID,
			Changes: map[string]interface{}{
				"instructor_id": instructorID,
				"period_year":   period.Year,
				"period_month":  period.Month,
				"total_amount":  total,
				"currency":      currency,
				"sessions":      len(items),
			},
			CreatedAt: now,
		}); err != nil {
			return errors.Wrap(err, "recording audit entry")
		}
		res.PayrollID = created.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPayrollExists) {
			// lost the race against a concurrent generation
			res.Status = ResultExists
			res.PayrollID = ""
			if existing, gErr := g.repo.GetActivePayroll(ctx, instructorID, period.Year, period.Month); gErr == nil {
				res.PayrollID = existing.ID
			}
			return res
		}
		res.PayrollID = ""
		return g.fail(res, err, extras)
	}

	res.Status = ResultCreated
	extras["payroll_id"] = res.PayrollID
	extras["total_amount"] = total
	extras["currency"] = currency
	extras["sessions"] = len(items)
	g.logger.Info("payroll created", extras)
	return res
}

func (g *Generator) fail(res Result, err error, extras map[string]interface{}) Result {
	res.Status = ResultFailed
	res.Err = err
	if core.IsPrecondition(err) {
		g.logger.Warn("payroll generation blocked", err, extras)
	} else {
		g.logger.Error("payroll generation failed", err, extras)
	}
	return res
}

// checkAttendance requires at least one attendance record on every completed session.
func checkAttendance(sessions []session.Session) error {
	var missing []string
	for _, s := range sessions {
		if !s.HasAttendance() {
			missing = append(missing, s.ID)
		}
	}
	if len(missing) > 0 {
		return &core.PreconditionError{
			Msg:        "completed sessions without attendance",
			Count:      len(missing),
			SessionIDs: missing,
		}
	}
	return nil
}

// ListForInstructor returns the instructor's payrolls, latest period first.
// An instructor requesting another instructor's payrolls gets a not found error.
func (g *Generator) ListForInstructor(ctx context.Context, instructorID string, requester core.Principal) ([]InstructorPayroll, error) {
	if _, err := g.instructors.GetInstructor(ctx, instructorID); err != nil {
		return nil, err
	}
	if !requester.CanReadInstructor(instructorID) {
		return nil, core.NewNotFoundError("instructor", instructorID)
	}
	return g.repo.QueryPayrolls(ctx, instructorID)
}

// Get returns a payroll with the same scoping rule as ListForInstructor.
func (g *Generator) Get(ctx context.Context, payrollID string, requester core.Principal) (InstructorPayroll, error) {
	p, err := g.repo.GetPayroll(ctx, payrollID)
	if err != nil {
		return InstructorPayroll{}, err
	}
	if !requester.CanReadInstructor(p.InstructorID) {
		return InstructorPayroll{}, core.NewNotFoundError("payroll", payrollID)
	}
	return p, nil
}

// Sessions returns the priced line items of a payroll.
func (g *Generator) Sessions(ctx context.Context, payrollID string, requester core.Principal) ([]InstructorSession, error) {
	if _, err := g.Get(ctx, payrollID, requester); err != nil {
		return nil, err
	}
	return g.repo.QueryInstructorSessions(ctx, payrollID)
}
