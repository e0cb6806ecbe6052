package payroll_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/costmodel"
	"github.com/trezcool/backoffice/core/payroll"
	"github.com/trezcool/backoffice/storage/database/inmem"
	"github.com/trezcool/backoffice/tests"
)

var (
	now = time.Date(2025, time.February, 3, 2, 0, 0, 0, time.UTC)
	jan = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
)

func at(d, h, m int) time.Time {
	return time.Date(2025, time.January, d, h, m, 0, 0, time.UTC)
}

func resultOf(t *testing.T, report payroll.Report, instructorID string) payroll.Result {
	t.Helper()
	for _, res := range report.Results {
		if res.InstructorID == instructorID {
			return res
		}
	}
	t.Fatalf("no result for instructor %s", instructorID)
	return payroll.Result{}
}

func TestGenerator_Generate(t *testing.T) {
	env := testutil.NewEnv(t, now)
	ctx := context.Background()

	inst := testutil.CreateInstructor(t, env.DB, "amira")
	model := testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypeHourly, 200, jan, nil)
	sess := testutil.CreateSession(t, env.DB, inst.ID, at(15, 14, 0), 120, 3)
	testutil.CreateSession(t, env.DB, inst.ID, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), 60, 1) // next period

	report, err := env.Payroll.Generate(ctx, 2025, 1, inst.ID, "admin")
	require.NoError(t, err)
	res := resultOf(t, report, inst.ID)
	require.Equal(t, payroll.ResultCreated, res.Status)

	p, err := env.PayrollRepo.GetPayroll(ctx, res.PayrollID)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusDraft, p.Status)
	assert.Equal(t, 400.0, p.TotalAmount)
	assert.Equal(t, "EGP", p.Currency)
	assert.Equal(t, "admin", p.GeneratedBy)
	assert.Equal(t, now, p.CreatedAt)

	// snapshot
	assert.Equal(t, 400.0, p.Snapshot.TotalAmount)
	assert.Equal(t, 2025, p.Snapshot.Period.Year)
	require.Len(t, p.Snapshot.Sessions, 1)
	assert.Equal(t, sess.ID, p.Snapshot.Sessions[0].SessionID)
	assert.Equal(t, 3, p.Snapshot.Sessions[0].AttendanceCount)
	require.Len(t, p.Snapshot.Calculations, 1)
	assert.Equal(t, payroll.SnapshotCalculation{
		SessionID:       sess.ID,
		CostModelID:     model.ID,
		CostModelType:   costmodel.TypeHourly,
		Rate:            200,
		DurationMinutes: 120,
		CostAmount:      400,
		Currency:        "EGP",
	}, p.Snapshot.Calculations[0])
	assert.Nil(t, p.Snapshot.MonthlyModel)

	// line items
	lines, err := env.PayrollRepo.QueryInstructorSessions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, model.ID, lines[0].CostModelID)
	assert.Equal(t, 400.0, lines[0].CostAmount)
	assert.True(t, lines[0].AttendanceComplete)

	// audit
	log := env.DB.AuditLog()
	last := log[len(log)-1]
	assert.Equal(t, core.ActionPayrollCreate, last.Action)
	assert.Equal(t, p.ID, last.EntityID)
}

func TestGenerator_Generate_idempotent(t *testing.T) {
	env := testutil.NewEnv(t, now)
	ctx := context.Background()

	inst := testutil.CreateInstructor(t, env.DB, "amira")
	testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypePerSession, 300, jan, nil)
	testutil.CreateSession(t, env.DB, inst.ID, at(6, 10, 0), 90, 2)
	testutil.CreateSession(t, env.DB, inst.ID, at(13, 10, 0), 90, 2)

	first, err := env.Payroll.Generate(ctx, 2025, 1, "", "admin")
	require.NoError(t, err)
	require.Equal(t, payroll.ResultCreated, resultOf(t, first, inst.ID).Status)
	lines, audits := env.DB.InstructorSessionCount(), len(env.DB.AuditLog())

	second, err := env.Payroll.Generate(ctx, 2025, 1, "", "admin")
	require.NoError(t, err)
	res := resultOf(t, second, inst.ID)
	assert.Equal(t, payroll.ResultExists, res.Status)
	assert.Equal(t, resultOf(t, first, inst.ID).PayrollID, res.PayrollID)

	payrolls, err := env.PayrollRepo.QueryPayrolls(ctx, inst.ID)
	require.NoError(t, err)
	assert.Len(t, payrolls, 1)
	assert.Equal(t, 600.0, payrolls[0].TotalAmount)
	assert.Equal(t, lines, env.DB.InstructorSessionCount(), "no additional line items")
	assert.Equal(t, audits, len(env.DB.AuditLog()), "no additional audit entries")
}

func TestGenerator_Generate_concurrent(t *testing.T) {
	env := testutil.NewEnv(t, now)

	inst := testutil.CreateInstructor(t, env.DB, "amira")
	testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypeHourly, 200, jan, nil)
	testutil.CreateSession(t, env.DB, inst.ID, at(15, 14, 0), 60, 1)

	const n = 6
	var wg sync.WaitGroup
	results := make([]payroll.Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			report, err := env.Payroll.Generate(context.Background(), 2025, 1, inst.ID, "admin")
			assert.NoError(t, err)
			if len(report.Results) == 1 {
				results[i] = report.Results[0]
			}
		}(i)
	}
	wg.Wait()

	var created int
	for _, res := range results {
		switch res.Status {
		case payroll.ResultCreated:
			created++
		case payroll.ResultExists:
		default:
			t.Errorf("unexpected result %+v", res)
		}
		assert.NotEmpty(t, res.PayrollID)
	}
	assert.Equal(t, 1, created)

	payrolls, err := env.PayrollRepo.QueryPayrolls(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Len(t, payrolls, 1)
	assert.Equal(t, 1, env.DB.InstructorSessionCount())
}

func TestGenerator_Generate_monthlyPrecedence(t *testing.T) {
	env := testutil.NewEnv(t, now)
	ctx := context.Background()

	inst := testutil.CreateInstructor(t, env.DB, "amira")
	testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypeHourly, 200, jan.AddDate(-1, 0, 0), nil)
	monthly := testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypeMonthly, 9000, jan.AddDate(0, 0, 14), nil)
	testutil.CreateSession(t, env.DB, inst.ID, at(6, 10, 0), 120, 1) // before the monthly model started
	testutil.CreateSession(t, env.DB, inst.ID, at(20, 10, 0), 120, 1)

	report, err := env.Payroll.Generate(ctx, 2025, 1, inst.ID, "admin")
	require.NoError(t, err)

	p, err := env.PayrollRepo.GetPayroll(ctx, resultOf(t, report, inst.ID).PayrollID)
	require.NoError(t, err)
	assert.Equal(t, 9000.0, p.TotalAmount)
	require.NotNil(t, p.Snapshot.MonthlyModel)
	assert.Equal(t, monthly.ID, p.Snapshot.MonthlyModel.ID)

	lines, err := env.PayrollRepo.QueryInstructorSessions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Equal(t, 0.0, l.CostAmount)
		assert.Equal(t, monthly.ID, l.CostModelID)
	}
}

func TestGenerator_Generate_monthlyWithoutSessions(t *testing.T) {
	env := testutil.NewEnv(t, now)
	inst := testutil.CreateInstructor(t, env.DB, "amira")
	testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypeMonthly, 9000, jan.AddDate(0, -6, 0), nil, "USD")

	report, err := env.Payroll.Generate(context.Background(), 2025, 1, inst.ID, "admin")
	require.NoError(t, err)
	res := resultOf(t, report, inst.ID)
	require.Equal(t, payroll.ResultCreated, res.Status)

	p, err := env.PayrollRepo.GetPayroll(context.Background(), res.PayrollID)
	require.NoError(t, err)
	assert.Equal(t, 9000.0, p.TotalAmount)
	assert.Equal(t, "USD", p.Currency)
}

func TestGenerator_Generate_attendanceGate(t *testing.T) {
	env := testutil.NewEnv(t, now)
	ctx := context.Background()

	blocked := testutil.CreateInstructor(t, env.DB, "karim")
	testutil.CreateCostModel(t, env.CostModels, blocked.ID, costmodel.TypeHourly, 200, jan, nil)
	testutil.CreateSession(t, env.DB, blocked.ID, at(6, 10, 0), 60, 2)
	missing := testutil.CreateSession(t, env.DB, blocked.ID, at(13, 10, 0), 60, 0)

	sibling := testutil.CreateInstructor(t, env.DB, "nour")
	testutil.CreateCostModel(t, env.CostModels, sibling.ID, costmodel.TypeHourly, 150, jan, nil)
	testutil.CreateSession(t, env.DB, sibling.ID, at(7, 10, 0), 60, 1)

	idle := testutil.CreateInstructor(t, env.DB, "salma")

	report, err := env.Payroll.Generate(ctx, 2025, 1, "", "admin")
	require.NoError(t, err, "batch failures are reported per instructor")

	res := resultOf(t, report, blocked.ID)
	assert.Equal(t, payroll.ResultFailed, res.Status)
	var pErr *core.PreconditionError
	require.True(t, errors.As(res.Err, &pErr))
	assert.Equal(t, 1, pErr.Count)
	assert.Equal(t, []string{missing.ID}, pErr.SessionIDs)

	assert.Equal(t, payroll.ResultCreated, resultOf(t, report, sibling.ID).Status)
	assert.Equal(t, payroll.ResultNoSessions, resultOf(t, report, idle.ID).Status)
	assert.Len(t, report.Failed(), 1)
	assert.Contains(t, env.Logger.Levels(), "warn")

	payrolls, err := env.PayrollRepo.QueryPayrolls(ctx, blocked.ID)
	require.NoError(t, err)
	assert.Empty(t, payrolls, "nothing is persisted for a blocked instructor")

	// single-instructor runs surface the failure as the call's error
	_, err = env.Payroll.Generate(ctx, 2025, 1, blocked.ID, "admin")
	assert.True(t, core.IsPrecondition(err))
}

func TestGenerator_Generate_noModel(t *testing.T) {
	env := testutil.NewEnv(t, now)
	inst := testutil.CreateInstructor(t, env.DB, "amira")
	testutil.CreateSession(t, env.DB, inst.ID, at(6, 10, 0), 60, 1)

	report, err := env.Payroll.Generate(context.Background(), 2025, 1, inst.ID, "admin")
	require.NoError(t, err)

	p, err := env.PayrollRepo.GetPayroll(context.Background(), resultOf(t, report, inst.ID).PayrollID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.TotalAmount)
	assert.Equal(t, testutil.DefaultCurrency, p.Currency)
	assert.Empty(t, p.Snapshot.Calculations[0].CostModelID)
}

func TestGenerator_Generate_currencyOfFirstPricedSession(t *testing.T) {
	env := testutil.NewEnv(t, now)
	ctx := context.Background()

	inst := testutil.CreateInstructor(t, env.DB, "amira")
	testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypeHourly, 100, at(10, 0, 0), nil, "USD")
	testutil.CreateSession(t, env.DB, inst.ID, at(5, 10, 0), 60, 1)  // before the model
	testutil.CreateSession(t, env.DB, inst.ID, at(15, 10, 0), 60, 1) // priced in USD

	report, err := env.Payroll.Generate(ctx, 2025, 1, inst.ID, "admin")
	require.NoError(t, err)

	p, err := env.PayrollRepo.GetPayroll(ctx, resultOf(t, report, inst.ID).PayrollID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.TotalAmount)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "USD", p.Snapshot.Currency)
}

func TestGenerator_Generate_blankInstructorRunsBatch(t *testing.T) {
	env := testutil.NewEnv(t, now)

	blocked := testutil.CreateInstructor(t, env.DB, "amira")
	testutil.CreateSession(t, env.DB, blocked.ID, at(6, 10, 0), 60, 0)

	report, err := env.Payroll.Generate(context.Background(), 2025, 1, "   ", "admin")
	require.NoError(t, err, "batch failures are reported per instructor")
	require.Len(t, report.Results, 1)
	assert.Equal(t, payroll.ResultFailed, report.Results[0].Status)
	assert.True(t, core.IsPrecondition(report.Results[0].Err))
}

func TestNewGenerator(t *testing.T) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	newGenerator := func(clock core.Clock) *payroll.Generator {
		return payroll.NewGenerator(
			db,
			inmemdb.NewPayrollRepository(db),
			inmemdb.NewInstructorRepository(db),
			inmemdb.NewSessionRepository(db),
			costmodel.NewResolver(inmemdb.NewCostModelRepository(db)),
			inmemdb.NewAuditRecorder(db),
			clock,
			new(testutil.Logger),
			payroll.Options{DefaultCurrency: testutil.DefaultCurrency},
		)
	}

	assert.NotPanics(t, func() { newGenerator(core.SystemClock{}) })
	assert.NotPanics(t, func() { newGenerator(core.FixedClock(now)) })
	assert.Panics(t, func() { newGenerator(nil) })
}

func TestGenerator_Generate_invalid(t *testing.T) {
	env := testutil.NewEnv(t, now)

	tests := []struct {
		name         string
		year, month  int
		instructorID string
		wantErr      func(error) bool
	}{
		{name: "month zero", year: 2025, month: 0, wantErr: core.IsValidation},
		{name: "month thirteen", year: 2025, month: 13, wantErr: core.IsValidation},
		{name: "unknown instructor", year: 2025, month: 1, instructorID: "lol", wantErr: core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Payroll.Generate(context.Background(), tt.year, tt.month, tt.instructorID, "admin")
			assert.True(t, tt.wantErr(err), "unexpected error %v", err)
		})
	}
}

func TestGenerator_Generate_afterVoid(t *testing.T) {
	env := testutil.NewEnv(t, now)
	ctx := context.Background()

	inst := testutil.CreateInstructor(t, env.DB, "amira")
	testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypeHourly, 200, jan, nil)
	testutil.CreateSession(t, env.DB, inst.ID, at(15, 14, 0), 60, 1)

	first, err := env.Payroll.Generate(ctx, 2025, 1, inst.ID, "admin")
	require.NoError(t, err)
	firstID := resultOf(t, first, inst.ID).PayrollID
	require.NoError(t, env.DB.SetPayrollStatus(firstID, payroll.StatusVoid))

	second, err := env.Payroll.Generate(ctx, 2025, 1, inst.ID, "admin")
	require.NoError(t, err)
	res := resultOf(t, second, inst.ID)
	assert.Equal(t, payroll.ResultCreated, res.Status)
	assert.NotEqual(t, firstID, res.PayrollID)

	payrolls, err := env.PayrollRepo.QueryPayrolls(ctx, inst.ID)
	require.NoError(t, err)
	assert.Len(t, payrolls, 2)
	assert.Equal(t, 1, env.DB.InstructorSessionCount(), "line items are keyed by session")

	lines, err := env.PayrollRepo.QueryInstructorSessions(ctx, res.PayrollID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestGenerator_ListForInstructor(t *testing.T) {
	env := testutil.NewEnv(t, now)
	ctx := context.Background()

	amira := testutil.CreateInstructor(t, env.DB, "amira")
	karim := testutil.CreateInstructor(t, env.DB, "karim")
	for _, inst := range []string{amira.ID, karim.ID} {
		testutil.CreateCostModel(t, env.CostModels, inst, costmodel.TypeHourly, 200, jan.AddDate(0, -1, 0), nil)
		testutil.CreateSession(t, env.DB, inst, at(15, 14, 0), 60, 1)
		testutil.CreateSession(t, env.DB, inst, time.Date(2024, time.December, 10, 9, 0, 0, 0, time.UTC), 60, 1)
	}
	for _, month := range []struct{ year, month int }{{2024, 12}, {2025, 1}} {
		_, err := env.Payroll.Generate(ctx, month.year, month.month, "", "admin")
		require.NoError(t, err)
	}

	owner := core.Principal{ID: "u1", Roles: []string{core.RoleAdminOwner}}
	asAmira := core.Principal{ID: "u2", Roles: []string{core.RoleInstructor}, InstructorID: amira.ID}

	tests := []struct {
		name         string
		instructorID string
		requester    core.Principal
		want         int
		wantErr      func(error) bool
	}{
		{name: "admin reads anyone", instructorID: karim.ID, requester: owner, want: 2},
		{name: "instructor reads own", instructorID: amira.ID, requester: asAmira, want: 2},
		{name: "instructor cannot read others", instructorID: karim.ID, requester: asAmira, wantErr: core.IsNotFound},
		{name: "unknown instructor", instructorID: "lol", requester: owner, wantErr: core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.Payroll.ListForInstructor(ctx, tt.instructorID, tt.requester)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error %v", err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.want)
			assert.Equal(t, 2025, got[0].PeriodYear, "latest period first")
			assert.Equal(t, 1, got[0].PeriodMonth)
		})
	}

	t.Run("get and sessions apply the same scoping", func(t *testing.T) {
		payrolls, err := env.Payroll.ListForInstructor(ctx, karim.ID, owner)
		require.NoError(t, err)

		_, err = env.Payroll.Get(ctx, payrolls[0].ID, asAmira)
		assert.True(t, core.IsNotFound(err))
		_, err = env.Payroll.Sessions(ctx, payrolls[0].ID, asAmira)
		assert.True(t, core.IsNotFound(err))

		lines, err := env.Payroll.Sessions(ctx, payrolls[0].ID, owner)
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})
}
