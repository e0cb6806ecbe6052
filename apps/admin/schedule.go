package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/backoffice/core"
)

const scheduledRunTimeout = 30 * time.Minute

var newCronFunc = func() *cron.Cron { // mockable
	return cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
}

// schedule generates the previous month's payrolls on conf.Payroll.CronSpec until ctx is done.
func (cli *commandLine) schedule(ctx context.Context) error {
	c := newCronFunc()
	if _, err := c.AddFunc(cli.conf.Payroll.CronSpec, func() { cli.scheduledRun(ctx) }); err != nil {
		return errors.Wrapf(err, "scheduling payroll generation %q", cli.conf.Payroll.CronSpec)
	}
	cli.logger.Info(fmt.Sprintf("payroll generation scheduled at %q", cli.conf.Payroll.CronSpec))

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	cli.logger.Info("payroll scheduler stopped")
	return nil
}

func (cli *commandLine) scheduledRun(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, scheduledRunTimeout)
	defer cancel()

	year, month := core.PreviousMonth(cli.clock.Now())
	report, err := cli.generator.Generate(ctx, year, int(month), "", cli.conf.Payroll.SystemActor)
	if err != nil {
		cli.logger.Error("scheduled payroll generation failed", err)
		return
	}
	cli.printReport(report)
	if failed := report.Failed(); len(failed) > 0 {
		cli.logger.Warn(fmt.Sprintf("%d of %d payrolls failed", len(failed), len(report.Results)),
			map[string]interface{}{"year": year, "month": int(month)})
	}
}
