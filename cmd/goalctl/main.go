// Command goalctl is the operator CLI for the goal engine.
//
// Pure commands (pv, simulate, rescue) take goal parameters as flags.
// Store-backed commands (verify, report) read the configured database.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "", "Path to config file for store-backed commands")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&pvCmd{}, "calculators")
	c.Register(&simulateCmd{}, "calculators")
	c.Register(&rescueCmd{}, "calculators")

	c.Register(&verifyCmd{}, "stored goals")
	c.Register(&reportCmd{}, "stored goals")
}
