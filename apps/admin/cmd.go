package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/costmodel"
	"github.com/trezcool/backoffice/core/payroll"
	"github.com/trezcool/backoffice/core/slot"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db         *sql.DB
	conf       *core.Config
	clock      core.Clock
	logger     core.Logger
	slots      *slot.Allocator
	costModels *costmodel.Service
	generator  *payroll.Generator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  slot create|update|remove [FLAGS] - manage teaching slots (run with -h for flags)")
	fmt.Fprintln(cli.out, "  costmodel create|remove [FLAGS] - manage instructor cost models (run with -h for flags)")
	fmt.Fprintln(cli.out, "  generatepayroll [-year YEAR -month MONTH] [-instructor ID] [-by ACTOR] - generate draft payrolls (defaults to the previous month)")
	fmt.Fprintln(cli.out, "  payrolls -instructor ID - list an instructor's payrolls")
	fmt.Fprintln(cli.out, "  schedule - generate the previous month's payrolls on the configured cron schedule")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "slot":
		return cli.slotCommand(context.Background(), args[2:])

	case "costmodel":
		return cli.costModelCommand(context.Background(), args[2:])

	case "generatepayroll":
		year, month := core.PreviousMonth(cli.clock.Now())

		genCmd := flag.NewFlagSet("generatepayroll", flag.ContinueOnError)
		genCmd.SetOutput(cli.out)
		genYear := genCmd.Int("year", year, "The payroll year.")
		genMonth := genCmd.Int("month", int(month), "The payroll month (1-12).")
		genInstructor := genCmd.String("instructor", "", "Only generate the payroll of this instructor.")
		genBy := genCmd.String("by", cli.conf.Payroll.SystemActor, "The actor recorded as generator.")
		if err := genCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *genBy == "" {
			genCmd.Usage()
			return errHelp
		}
		return cli.generatePayroll(context.Background(), *genYear, *genMonth, *genInstructor, *genBy)

	case "payrolls":
		listCmd := flag.NewFlagSet("payrolls", flag.ContinueOnError)
		listCmd.SetOutput(cli.out)
		listInstructor := listCmd.String("instructor", "", "The instructor ID.")
		if err := listCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *listInstructor == "" {
			listCmd.Usage()
			return errHelp
		}
		return cli.listPayrolls(context.Background(), *listInstructor)

	case "schedule":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.schedule(ctx)

	default:
		cli.printUsage()
		return errHelp
	}
}
