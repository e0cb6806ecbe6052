package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/costmodel"
	"github.com/trezcool/backoffice/core/payroll"
	"github.com/trezcool/backoffice/core/slot"
	sqlxrepos "github.com/trezcool/backoffice/storage/database/sqlx"
	"github.com/trezcool/backoffice/tests"
)

var now = time.Date(2025, time.February, 5, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*commandLine, *testutil.Env, *bytes.Buffer) {
	env := testutil.NewEnv(t, now)
	out := new(bytes.Buffer)
	conf := &core.Config{Payroll: core.PayrollConfig{
		DefaultCurrency: testutil.DefaultCurrency,
		CronSpec:        "0 2 1 * *",
		SystemActor:     "system:payroll",
	}}

	// start CLI
	return &commandLine{
		conf:       conf,
		clock:      env.Clock,
		logger:     env.Logger,
		slots:      env.Slots,
		costModels: env.CostModels,
		generator:  env.Payroll,
		out:        out,
	}, env, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error, out string) {
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr && !assert.IsType(t, tt.wantErr, err) {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	if tt.wantOut != "" {
		assert.Contains(t, out, tt.wantOut)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestContainerProviders(t *testing.T) {
	store := sqlxrepos.NewDB(nil)
	conf := &core.Config{Payroll: core.PayrollConfig{DefaultCurrency: testutil.DefaultCurrency}}
	clock := newClock()

	assert.NotPanics(t, func() {
		cmRepo := sqlxrepos.NewCostModelRepository(store)
		cli := newCommandLine(nil, conf, clock, new(testutil.Logger),
			newAllocator(store, clock),
			newCostModelService(store, cmRepo, clock),
			newGenerator(store, costmodel.NewResolver(cmRepo), clock, new(testutil.Logger), conf),
		)
		assert.NotNil(t, cli.slots)
		assert.NotNil(t, cli.costModels)
		assert.NotNil(t, cli.generator)
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "0"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "room_blackouts", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args), "")
		})
	}
}

func Test_commandLine_slot(t *testing.T) {
	cli, env, out := setup(t)
	ctx := context.Background()

	existing, err := env.Slots.Create(ctx, slot.NewSlot{
		Details:   testutil.NewSlotDetails("i1", "r1", 1, "10:00", "11:30"),
		CreatedBy: "admin",
	})
	require.NoError(t, err)
	details := []string{"-level", "level-1", "-max", "12", "-price", "500"}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"slot"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"slot", "lol"}, wantErr: errHelp},
		{name: "invalid date", args: []string{"slot", "create", "-from", "01/02/2025"}, wantErr: errHelp},
		{name: "create: invalid", args: append([]string{"slot", "create", "-instructor", "i2", "-room", "r2", "-day", "1", "-start", "12:00", "-end", "11:00"}, details...),
			wantErr: &core.ValidationError{}},
		{name: "create: room taken", args: append([]string{"slot", "create", "-instructor", "i2", "-room", "r1", "-day", "1", "-start", "11:00", "-end", "12:00"}, details...),
			wantErr: &core.ConflictError{}},
		{name: "create", args: append([]string{"slot", "create", "-instructor", "i2", "-room", "r2", "-day", "1", "-start", "11:00", "-end", "12:00", "-from", "2025-02-01"}, details...),
			wantOut: "open  day 1 11:00-12:00  instructor i2  room r2"},
		{name: "update: no id", args: []string{"slot", "update", "-max", "20"}, wantErr: errHelp},
		{name: "update", args: []string{"slot", "update", "-id", existing.ID, "-end", "12:00", "-room", "r3"},
			wantOut: "day 1 10:00-12:00  instructor i1  room r3"},
		{name: "remove: no reason", args: []string{"slot", "remove", "-id", existing.ID}, wantErr: &core.ValidationError{}},
		{name: "remove", args: []string{"slot", "remove", "-id", existing.ID, "-reason", "room renovation"}, wantOut: "slot " + existing.ID + " removed"},
		{name: "remove: already removed", args: []string{"slot", "remove", "-id", existing.ID, "-reason", "again"}, wantErr: &core.NotFoundError{}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			tt.check(t, cli.run(args), out.String())
		})
	}

	slots, err := env.Slots.List(ctx, slot.QueryFilter{InstructorID: "i2"})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.NotNil(t, slots[0].EffectiveFrom)
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), *slots[0].EffectiveFrom)

	log := env.DB.AuditLog()
	assert.Equal(t, "system:payroll", log[len(log)-1].ActorID)
}

func Test_commandLine_costModel(t *testing.T) {
	cli, env, out := setup(t)
	ctx := context.Background()
	inst := testutil.CreateInstructor(t, env.DB, "amira")

	tests := []cliTest{
		{name: "no subcommand", args: []string{"costmodel"}, wantErr: errHelp},
		{name: "create: unknown type", args: []string{"costmodel", "create", "-instructor", inst.ID, "-type", "yearly", "-amount", "10", "-from", "2025-01-01"},
			wantErr: &core.ValidationError{}},
		{name: "create: missing from", args: []string{"costmodel", "create", "-instructor", inst.ID, "-type", "hourly", "-amount", "10"},
			wantErr: &core.ValidationError{}},
		{name: "create: unknown instructor", args: []string{"costmodel", "create", "-instructor", "lol", "-type", "hourly", "-amount", "10", "-from", "2025-01-01"},
			wantErr: &core.NotFoundError{}},
		{name: "create", args: []string{"costmodel", "create", "-instructor", inst.ID, "-type", "hourly", "-amount", "200", "-from", "2025-01-01"},
			wantOut: "hourly  200.00 EGP  2025-01-01..open"},
		{name: "remove: no id", args: []string{"costmodel", "remove"}, wantErr: errHelp},
		{name: "remove: unknown", args: []string{"costmodel", "remove", "-id", "lol"}, wantErr: &core.NotFoundError{}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			tt.check(t, cli.run(args), out.String())
		})
	}

	m, err := env.Resolver.ResolveAt(ctx, inst.ID, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 200.0, m.Amount)

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "costmodel", "remove", "-id", m.ID}))
	assert.Contains(t, out.String(), "removed")
}

func Test_commandLine_generatePayroll(t *testing.T) {
	cli, env, out := setup(t)

	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	inst := testutil.CreateInstructor(t, env.DB, "amira")
	testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypeHourly, 200, jan, nil)
	testutil.CreateSession(t, env.DB, inst.ID, time.Date(2025, time.January, 15, 14, 0, 0, 0, time.UTC), 120, 3)

	blocked := testutil.CreateInstructor(t, env.DB, "karim")
	testutil.CreateSession(t, env.DB, blocked.ID, time.Date(2025, time.January, 20, 10, 0, 0, 0, time.UTC), 60, 0)

	tests := []cliTest{
		{name: "invalid flag", args: []string{"generatepayroll", "-lol"}, wantErr: errHelp},
		{name: "blank actor", args: []string{"generatepayroll", "-by", ""}, wantErr: errHelp},
		{name: "invalid month", args: []string{"generatepayroll", "-year", "2025", "-month", "13"}, wantErr: &core.ValidationError{}},
		{name: "unknown instructor", args: []string{"generatepayroll", "-instructor", "lol"}, wantErr: &core.NotFoundError{}},
		{name: "blocked instructor", args: []string{"generatepayroll", "-instructor", blocked.ID}, wantErr: &core.PreconditionError{}, wantOut: blocked.ID + "  failed"},
		{name: "previous month by default", args: []string{"generatepayroll", "-instructor", inst.ID}, wantOut: "payroll period 2025-01"},
		{name: "already generated", args: []string{"generatepayroll", "-instructor", inst.ID, "-year", "2025", "-month", "1"}, wantOut: inst.ID + "  exists"},
		{name: "batch with a failure", args: []string{"generatepayroll"}, wantErrStr: "1 of 2 payrolls failed"},
		{name: "empty month", args: []string{"generatepayroll", "-year", "2024", "-month", "6"}, wantOut: "no_sessions"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			tt.check(t, cli.run(args), out.String())
		})
	}

	payrolls, err := env.PayrollRepo.QueryPayrolls(context.Background(), inst.ID)
	require.NoError(t, err)
	require.Len(t, payrolls, 1)
	assert.Equal(t, 400.0, payrolls[0].TotalAmount)
	assert.Equal(t, "system:payroll", payrolls[0].GeneratedBy)
}

func Test_commandLine_listPayrolls(t *testing.T) {
	cli, env, out := setup(t)

	inst := testutil.CreateInstructor(t, env.DB, "amira")
	other := testutil.CreateInstructor(t, env.DB, "nour")
	testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypePerSession, 150,
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), nil)
	testutil.CreateSession(t, env.DB, inst.ID, time.Date(2025, time.January, 8, 16, 0, 0, 0, time.UTC), 90, 2)

	_, err := env.Payroll.Generate(context.Background(), 2025, 1, inst.ID, "admin")
	require.NoError(t, err)

	tests := []cliTest{
		{name: "no instructor", args: []string{"payrolls"}, wantErr: errHelp},
		{name: "unknown instructor", args: []string{"payrolls", "-instructor", "lol"}, wantErr: &core.NotFoundError{}},
		{name: "no payrolls", args: []string{"payrolls", "-instructor", other.ID}, wantOut: "no payrolls"},
		{name: "payrolls", args: []string{"payrolls", "-instructor", inst.ID}, wantOut: "2025-01  draft"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			tt.check(t, cli.run(args), out.String())
		})
	}
}

func Test_commandLine_schedule(t *testing.T) {
	cli, env, out := setup(t)

	inst := testutil.CreateInstructor(t, env.DB, "amira")
	testutil.CreateCostModel(t, env.CostModels, inst.ID, costmodel.TypeMonthly, 9000,
		time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC), nil)

	t.Run("invalid cron spec", func(t *testing.T) {
		cli.conf.Payroll.CronSpec = "every now and then"
		defer func() { cli.conf.Payroll.CronSpec = "0 2 1 * *" }()

		err := cli.schedule(context.Background())
		if err == nil || !strings.Contains(err.Error(), "scheduling payroll generation") {
			t.Errorf("cli.schedule() error = %v", err)
		}
	})

	t.Run("stops with its context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, cli.schedule(ctx))
	})

	t.Run("scheduled run", func(t *testing.T) {
		out.Reset()
		cli.scheduledRun(context.Background())
		assert.Contains(t, out.String(), inst.ID+"  created")

		payrolls, err := env.PayrollRepo.QueryPayrolls(context.Background(), inst.ID)
		require.NoError(t, err)
		require.Len(t, payrolls, 1)
		assert.Equal(t, payroll.StatusDraft, payrolls[0].Status)
		assert.Equal(t, 9000.0, payrolls[0].TotalAmount)
	})
}
