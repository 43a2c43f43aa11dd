package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/midikit/cli/app"
	"github.com/nspcc-dev/midikit/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func newTestApp() (*cli.App, *bytes.Buffer) {
	out := bytes.NewBuffer(nil)
	ctl := app.New()
	ctl.Writer = out
	ctl.ErrWriter = out
	return ctl, out
}

func TestCLIVersion(t *testing.T) {
	config.Version = "0.1.0-test"
	ctl, out := newTestApp()
	require.NoError(t, ctl.Run([]string{"midikit", "--version"}))
	require.Regexp(t, "^midikit\nVersion: 0.1.0-test\nGoVersion: ", out.String())
}

func TestCLIDefaultVersion(t *testing.T) {
	require.NotEmpty(t, config.Version)
	ctl, out := newTestApp()
	require.NoError(t, ctl.Run([]string{"midikit", "-v"}))
	require.Contains(t, out.String(), "Version: "+config.Version)
}

func TestCLIHelp(t *testing.T) {
	ctl, out := newTestApp()
	require.NoError(t, ctl.Run([]string{"midikit", "--help"}))
	require.Contains(t, out.String(), "shell")
}

func TestShellBadConfig(t *testing.T) {
	var code int
	cli.OsExiter = func(c int) { code = c }
	t.Cleanup(func() { cli.OsExiter = os.Exit })

	ctl, _ := newTestApp()
	err := ctl.Run([]string{"midikit", "shell", "--config-file", filepath.Join(t.TempDir(), "nope.yml")})
	require.Error(t, err)
	require.Equal(t, 1, code)
}
