package main

import (
	"context"
	"fmt"

	"github.com/trezcool/backoffice/core"
)

// listPayrolls prints an instructor's payrolls. The CLI acts with owner rights.
func (cli *commandLine) listPayrolls(ctx context.Context, instructorID string) error {
	requester := core.Principal{ID: cli.conf.Payroll.SystemActor, Roles: []string{core.RoleAdminOwner}}
	payrolls, err := cli.generator.ListForInstructor(ctx, instructorID, requester)
	if err != nil {
		return err
	}
	if len(payrolls) == 0 {
		fmt.Fprintln(cli.out, "no payrolls")
		return nil
	}
	for _, p := range payrolls {
		fmt.Fprintf(cli.out, "%04d-%02d  %-8s  %10.2f %s  %s\n",
			p.PeriodYear, p.PeriodMonth, p.Status, p.TotalAmount, p.Currency, p.ID)
	}
	return nil
}
