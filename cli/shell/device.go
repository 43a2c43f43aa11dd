package shell

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/nspcc-dev/midikit/pkg/midi"
	"github.com/nspcc-dev/midikit/pkg/reflist"
	"github.com/urfave/cli"
)

const (
	deviceNew     = "new"
	deviceAttach  = "attach"
	deviceDetach  = "detach"
	deviceClose   = "close"
	devicePrune   = "prune"
	deviceRelease = "release"
	deviceList    = "list"
)

// Device command errors.
var (
	ErrUnknownDevice    = errors.New("unknown device")
	ErrUnknownConnector = errors.New("unknown connector")
)

type (
	devices    map[string]*midi.Device
	connectors map[string]*midi.Connector
)

func getDevicesFromContext(app *cli.App) devices {
	return app.Metadata[devicesKey].(devices)
}

func getConnectorsFromContext(app *cli.App) connectors {
	return app.Metadata[connectorsKey].(connectors)
}

func getDevice(app *cli.App, name string) (*midi.Device, error) {
	d, ok := getDevicesFromContext(app)[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, name)
	}
	return d, nil
}

func handleDevice(c *cli.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return fmt.Errorf("%w: <%s>", ErrMissingParameter, strings.Join([]string{
			deviceNew, deviceAttach, deviceDetach, deviceClose, devicePrune, deviceRelease, deviceList,
		}, "|"))
	}
	op, params := args[0], args[1:]
	switch op {
	case deviceNew:
		return deviceNewHandler(c.App, params)
	case deviceAttach, deviceDetach:
		if len(params) < 2 {
			return fmt.Errorf("%w: <device> <connector> [<connector>...]", ErrMissingParameter)
		}
		d, err := getDevice(c.App, params[0])
		if err != nil {
			return err
		}
		if op == deviceAttach {
			return deviceAttachHandler(c.App, d, params[1:])
		}
		return deviceDetachHandler(c.App, d, params[1:])
	case deviceClose:
		return deviceCloseHandler(c.App, params)
	case devicePrune, deviceRelease:
		if len(params) != 1 {
			return fmt.Errorf("%w: <device>", ErrMissingParameter)
		}
		d, err := getDevice(c.App, params[0])
		if err != nil {
			return err
		}
		if op == devicePrune {
			n, err := d.Prune()
			if err != nil {
				return fmt.Errorf("can't prune %s: %w", d.Name(), err)
			}
			fmt.Fprintf(c.App.Writer, "pruned %d connector(s)\n", n)
			return nil
		}
		return deviceReleaseHandler(c.App, d)
	case deviceList:
		return deviceListHandler(c.App)
	default:
		return fmt.Errorf("%w: unknown device operation %q", ErrInvalidParameter, op)
	}
}

func deviceNewHandler(app *cli.App, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: <device>", ErrMissingParameter)
	}
	devs := getDevicesFromContext(app)
	for _, name := range names {
		if _, ok := devs[name]; ok {
			return fmt.Errorf("%w: device %s already exists", ErrInvalidParameter, name)
		}
		devs[name] = midi.NewDevice(name, getLogFromContext(app),
			reflist.WithMetrics(getListMetricsFromContext(app)))
	}
	fmt.Fprintf(app.Writer, "created %d device(s)\n", len(names))
	return nil
}

// deviceAttachHandler creates unknown connectors on the fly, they're owned by
// the devices they're attached to only.
func deviceAttachHandler(app *cli.App, d *midi.Device, names []string) error {
	conns := getConnectorsFromContext(app)
	for _, name := range names {
		conn, ok := conns[name]
		if !ok {
			conn = midi.NewConnector(name)
			conn.OnRelease(func(c *midi.Connector) {
				delete(conns, c.Name())
				fmt.Fprintf(app.Writer, "connector %s freed\n", c.Name())
			})
			conns[name] = conn
		}
		err := d.Attach(conn)
		if !ok {
			conn.Release()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func deviceDetachHandler(app *cli.App, d *midi.Device, names []string) error {
	conns := getConnectorsFromContext(app)
	for _, name := range names {
		conn, ok := conns[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownConnector, name)
		}
		if err := d.Detach(conn); err != nil {
			return err
		}
	}
	return nil
}

func deviceCloseHandler(app *cli.App, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: <connector>", ErrMissingParameter)
	}
	conns := getConnectorsFromContext(app)
	for _, name := range names {
		conn, ok := conns[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownConnector, name)
		}
		conn.Close()
	}
	return nil
}

func deviceReleaseHandler(app *cli.App, d *midi.Device) error {
	if err := d.Release(); err != nil {
		return fmt.Errorf("can't release %s: %w", d.Name(), err)
	}
	if d.Refs() == 0 {
		delete(getDevicesFromContext(app), d.Name())
		fmt.Fprintf(app.Writer, "device %s destroyed\n", d.Name())
	}
	return nil
}

func deviceListHandler(app *cli.App) error {
	var (
		devs  = getDevicesFromContext(app)
		names = make([]string, 0, len(devs))
	)
	for name := range devs {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(app.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tREFS\tCONNECTORS")
	for _, name := range names {
		d := devs[name]
		var conns []string
		for _, conn := range d.Connectors() {
			s := fmt.Sprintf("%s(%d)", conn.Name(), conn.Refs())
			if conn.Closed() {
				s += "*"
			}
			conns = append(conns, s)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, d.Refs(), strings.Join(conns, " "))
	}
	return w.Flush()
}
