package shell

import (
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/nspcc-dev/midikit/cli/options"
	"github.com/nspcc-dev/midikit/pkg/reflist"
	"github.com/urfave/cli"
	"go.uber.org/zap/zapcore"
)

// NewCommands returns 'shell' command.
func NewCommands() []cli.Command {
	cfgFlags := []cli.Flag{
		options.ConfigFile,
		options.Debug,
		cli.BoolFlag{Name: "no-logo", Usage: "don't print logo on start"},
	}
	return []cli.Command{{
		Name:   "shell",
		Usage:  "Start interactive reference-counted list shell",
		Action: startShell,
		Flags:  cfgFlags,
		Description: `Start an interactive shell operating on a single reference-counted list.
   Objects created with 'new' can be added to and removed from the list,
   their reference counts show how the list retains and releases them.
   Type 'help' in the shell for the list of commands.`,
	}}
}

func startShell(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	// The shell prints list failures itself.
	filter := options.DropMessages(zapcore.ErrorLevel, reflist.FailureLogMessage)
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration, filter)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to init logger: %w", err), 1)
	}
	defer func() { _ = log.Sync() }()

	printLogo := cfg.ShellConfiguration.PrintLogo && !ctx.Bool("no-logo")
	sh, err := NewWithConfig(printLogo, os.Exit, &readline.Config{}, cfg, log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := sh.Run(); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}
