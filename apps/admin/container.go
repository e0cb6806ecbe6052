package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/costmodel"
	"github.com/trezcool/backoffice/core/payroll"
	"github.com/trezcool/backoffice/core/slot"
	logsvc "github.com/trezcool/backoffice/services/logger"
	"github.com/trezcool/backoffice/storage/database"
	sqlxrepos "github.com/trezcool/backoffice/storage/database/sqlx"
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDB(conf *core.Config, logger core.Logger) (*sqlx.DB, *sql.DB) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		return database.Open(conf)
	}

	db, err := setUp()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db.DB
}

func newClock() core.Clock { return core.SystemClock{} }

func newAllocator(store *sqlxrepos.DB, clock core.Clock) *slot.Allocator {
	return slot.NewAllocator(store, sqlxrepos.NewSlotRepository(store), sqlxrepos.NewAuditRecorder(store), clock)
}

func newCostModelService(store *sqlxrepos.DB, repo costmodel.Repository, clock core.Clock) *costmodel.Service {
	return costmodel.NewService(store, repo, sqlxrepos.NewInstructorRepository(store), sqlxrepos.NewAuditRecorder(store), clock)
}

func newGenerator(
	store *sqlxrepos.DB,
	resolver *costmodel.Resolver,
	clock core.Clock,
	logger core.Logger,
	conf *core.Config,
) *payroll.Generator {
	return payroll.NewGenerator(
		store,
		sqlxrepos.NewPayrollRepository(store),
		sqlxrepos.NewInstructorRepository(store),
		sqlxrepos.NewSessionRepository(store),
		resolver,
		sqlxrepos.NewAuditRecorder(store),
		clock,
		logger,
		payroll.Options{DefaultCurrency: conf.Payroll.DefaultCurrency},
	)
}

func newCommandLine(
	db *sql.DB,
	conf *core.Config,
	clock core.Clock,
	logger core.Logger,
	slots *slot.Allocator,
	costModels *costmodel.Service,
	generator *payroll.Generator,
) *commandLine {
	return &commandLine{
		db:         db,
		conf:       conf,
		clock:      clock,
		logger:     logger,
		slots:      slots,
		costModels: costModels,
		generator:  generator,
		out:        os.Stdout,
	}
}

// newContainer returns the dependency injection dig.Container of the admin CLI.
func newContainer() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDB))
	must(c.Provide(newClock))
	must(c.Provide(sqlxrepos.NewDB))
	must(c.Provide(sqlxrepos.NewCostModelRepository))
	must(c.Provide(costmodel.NewResolver))
	must(c.Provide(newAllocator))
	must(c.Provide(newCostModelService))
	must(c.Provide(newGenerator))
	must(c.Provide(newCommandLine))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
