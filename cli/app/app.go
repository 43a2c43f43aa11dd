package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/midikit/cli/shell"
	"github.com/nspcc-dev/midikit/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "midikit\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a midikit instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "midikit"
	ctl.Version = config.Version
	ctl.Usage = "Reference-counted MIDI object lists toolkit"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, shell.NewCommands()...)
	return ctl
}
