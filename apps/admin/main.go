package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/backoffice/core"
)

func main() {
	c := newContainer()

	var exitCode int
	must(c.Invoke(func(cli *commandLine, db *sqlx.DB, logger core.Logger) {
		defer func() { _ = db.Close() }()

		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				logger.Error(fmt.Sprintf("admin %v failed", os.Args[1:]), err)
				fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
			}
			exitCode = 1
		}
	}))
	os.Exit(exitCode)
}
