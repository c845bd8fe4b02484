// Command glmctl is the operator tool for the GLM ledger: schema migration,
// balance and entry inspection, demo funding and corrective transfers.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

var (
	configFile = flag.String("config", "", "path to config.yaml")
	envPath    = flag.String("env", "config/", "directory holding .env files")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	env := &cliEnv{out: os.Stdout, connect: connectPostgres}
	for _, c := range commands(env) {
		commander.Register(c, "ledger")
	}

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	env.close()
	os.Exit(int(status))
}
