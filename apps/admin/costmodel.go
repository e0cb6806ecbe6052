package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/trezcool/backoffice/core/costmodel"
)

// costModelCommand runs "costmodel create|remove".
func (cli *commandLine) costModelCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}

	fs := flag.NewFlagSet("costmodel "+args[0], flag.ContinueOnError)
	fs.SetOutput(cli.out)
	by := fs.String("by", cli.conf.Payroll.SystemActor, "The acting user recorded in the audit log.")

	switch args[0] {
	case "create":
		var from, to dateFlag
		instructorID := fs.String("instructor", "", "The instructor ID.")
		typ := fs.String("type", "", "The cost model type (hourly, per_session, monthly).")
		amount := fs.Float64("amount", 0, "The rate or monthly amount.")
		currency := fs.String("currency", cli.conf.Payroll.DefaultCurrency, "The ISO currency code.")
		fs.Var(&from, "from", "The first effective date (YYYY-MM-DD).")
		fs.Var(&to, "to", "The last effective date (YYYY-MM-DD), open-ended when omitted.")
		if err := fs.Parse(args[1:]); err != nil {
			return errHelp
		}

		nm := costmodel.NewCostModel{
			InstructorID: *instructorID,
			Type:         costmodel.Type(*typ),
			Amount:       *amount,
			Currency:     *currency,
			EffectiveTo:  to.t,
			CreatedBy:    *by,
		}
		if from.t != nil {
			nm.EffectiveFrom = *from.t
		}
		m, err := cli.costModels.Create(ctx, nm)
		if err != nil {
			return err
		}
		effectiveTo := "open"
		if m.EffectiveTo != nil {
			effectiveTo = m.EffectiveTo.Format(dateLayout)
		}
		fmt.Fprintf(cli.out, "cost model %s  %s  %.2f %s  %s..%s\n",
			m.ID, m.Type, m.Amount, m.Currency, m.EffectiveFrom.Format(dateLayout), effectiveTo)
		return nil

	case "remove":
		id := fs.String("id", "", "The cost model ID.")
		if err := fs.Parse(args[1:]); err != nil {
			return errHelp
		}
		if *id == "" {
			fs.Usage()
			return errHelp
		}
		if err := cli.costModels.Remove(ctx, *id, *by); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "cost model %s removed\n", *id)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
