package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/payroll"
)

func (cli *commandLine) generatePayroll(ctx context.Context, year, month int, instructorID, by string) error {
	report, err := cli.generator.Generate(ctx, year, month, instructorID, by)
	cli.printReport(report)
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		return errors.Errorf("%d of %d payrolls failed", len(failed), len(report.Results))
	}
	return nil
}

func (cli *commandLine) printReport(report payroll.Report) {
	if report.Period.Year == 0 {
		return
	}
	fmt.Fprintf(cli.out, "payroll period %04d-%02d\n", report.Period.Year, report.Period.Month)
	for _, res := range report.Results {
		line := fmt.Sprintf("  %s  %s", res.InstructorID, res.Status)
		if res.PayrollID != "" {
			line += "  " + res.PayrollID
		}
		if res.Err != nil {
			line += "  " + res.Err.Error()
			var pErr *core.PreconditionError
			if errors.As(res.Err, &pErr) {
				line += fmt.Sprintf(" %v", pErr.SessionIDs)
			}
		}
		fmt.Fprintln(cli.out, line)
	}
}
