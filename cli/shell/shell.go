package shell

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/nspcc-dev/midikit/pkg/config"
	"github.com/nspcc-dev/midikit/pkg/reflist"
	"github.com/nspcc-dev/midikit/pkg/services/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

const (
	listKey             = "list"
	objectsKey          = "objects"
	listMetricsKey      = "listMetrics"
	registryKey         = "registry"
	logKey              = "log"
	promptKey           = "prompt"
	exitFuncKey         = "exitFunc"
	exitedKey           = "exited"
	readlineInstanceKey = "readlineKey"
	printLogoKey        = "printLogoKey"
	devicesKey          = "devices"
	connectorsKey       = "connectors"
)

const (
	applyCount      = "count"
	applyRefs       = "refs"
	applyRemoveSelf = "remove-self"
)

var commands = []cli.Command{
	{
		Name:        "exit",
		Usage:       "Exit the shell",
		Description: "Exit the shell",
		Action:      handleExit,
	},
	{
		Name:      "new",
		Usage:     "Create named objects",
		UsageText: `new <name> [<name>...]`,
		Description: `new <name> [<name>...]
Creates objects with one reference held by the shell, example:
> new a b c`,
		Action: handleNew,
	},
	{
		Name:      "drop",
		Usage:     "Drop the shell reference to objects",
		UsageText: `drop <name> [<name>...]`,
		Description: `drop <name> [<name>...]
Releases the reference held by the shell, objects are freed when the
list holds no references to them either, example:
> drop a`,
		Action: handleDrop,
	},
	{
		Name:      "add",
		Usage:     "Add objects to the list",
		UsageText: `add <name> [<name>...]`,
		Description: `add <name> [<name>...]
Objects are added in the given order, so the last one becomes the head
of the list, example:
> add a b a`,
		Action: handleAdd,
	},
	{
		Name:      "remove",
		Usage:     "Remove all entries of objects from the list",
		UsageText: `remove <name> [<name>...]`,
		Description: `remove <name> [<name>...]
Every entry holding the object is removed, example:
> remove a`,
		Action: handleRemove,
	},
	{
		Name:        "items",
		Usage:       "Show list contents",
		Description: "Show list contents, the most recently added item first",
		Action:      handleItems,
	},
	{
		Name:        "objects",
		Usage:       "Show known objects",
		Description: "Show known objects with their reference counts",
		Action:      handleObjects,
	},
	{
		Name:      "apply",
		Usage:     "Apply a function to every list item",
		UsageText: `apply <count|refs|remove-self>`,
		Description: `apply <count|refs|remove-self>
Calls the function for every item and prints the sum of its results:
 count        1 for every item
 refs         reference count of every item
 remove-self  removes the item being visited, 1 for every item removed
example:
> apply remove-self`,
		Action: handleApply,
	},
	{
		Name:        "retain",
		Usage:       "Retain the list",
		Description: "Increment the reference count of the list",
		Action:      handleRetain,
	},
	{
		Name:        "release",
		Usage:       "Release the list",
		Description: "Decrement the reference count of the list, destroying it when it reaches zero",
		Action:      handleRelease,
	},
	{
		Name:        "destroy",
		Usage:       "Destroy the list",
		Description: "Destroy the list releasing all of its items regardless of its reference count",
		Action:      handleDestroy,
	},
	{
		Name:        "reset",
		Usage:       "Replace the list with a new one",
		Description: "Destroy the list if it's still alive and create a new empty one",
		Action:      handleReset,
	},
	{
		Name:      "device",
		Usage:     "Manage MIDI devices and their connectors",
		UsageText: `device <new|attach|detach|close|prune|release|list> [<args>...]`,
		Description: `device <new|attach|detach|close|prune|release|list> [<args>...]
Devices keep the connectors attached to them, connectors are freed when no
device holds them:
 new <device>...                     create devices
 attach <device> <connector>...      attach connectors, unknown ones are created
 detach <device> <connector>...      detach every attachment of connectors
 close <connector>...                mark connectors as closed
 prune <device>                      detach all closed connectors
 release <device>                    release the device, destroying it
 list                                show devices with connectors and their refs,
                                     closed connectors are marked with '*'
example:
> device attach synth in out`,
		Action: handleDevice,
	},
	{
		Name:        "stats",
		Usage:       "Show list metrics",
		Description: "Show item and failure counters collected for the lists of this shell",
		Action:      handleStats,
	},
}

var completer *readline.PrefixCompleter

func init() {
	var pcItems []readline.PrefixCompleterInterface
	for _, c := range commands {
		if !c.Hidden {
			var flagsItems []readline.PrefixCompleterInterface
			for _, f := range c.Flags {
				names := strings.SplitN(f.GetName(), ", ", 2) // only long name will be offered
				flagsItems = append(flagsItems, readline.PcItem("--"+names[0]))
			}
			pcItems = append(pcItems, readline.PcItem(c.Name, flagsItems...))
		}
	}
	completer = readline.NewPrefixCompleter(pcItems...)
}

// Various errors.
var (
	ErrMissingParameter = errors.New("missing argument")
	ErrInvalidParameter = errors.New("can't parse argument")
	ErrUnknownObject    = errors.New("unknown object")
	ErrListDestroyed    = errors.New("list is destroyed, use 'reset' to create a new one")
)

type objects map[string]*Item

// Shell is an interactive shell operating on a single reference-counted list.
type Shell struct {
	shell    *cli.App
	registry *prometheus.Registry
	service  *metrics.Service
	stopOnce sync.Once
}

// NewWithConfig returns a new Shell instance using the provided readline and
// application configurations. Failures are logged to log (which can be nil).
func NewWithConfig(printLogotype bool, onExit func(int), c *readline.Config, cfg config.Config, log *zap.Logger) (*Shell, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if c.AutoComplete == nil {
		// Autocomplete commands/flags on TAB.
		c.AutoComplete = completer
	}
	if c.HistoryFile == "" {
		c.HistoryFile = cfg.ShellConfiguration.HistoryFile
	}
	l, err := readline.NewEx(c)
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	ctl := cli.NewApp()
	ctl.Name = "midikit shell"

	// Note: need to set empty `ctl.HelpName` and `ctl.UsageText`, otherwise
	// `filepath.Base(os.Args[0])` will be used which is `midikit`.
	ctl.HelpName = ""
	ctl.UsageText = ""

	ctl.Writer = l.Stdout()
	ctl.ErrWriter = l.Stderr()
	ctl.Version = config.Version
	ctl.Usage = "Reference-counted list shell"

	// Override default error handler in order not to exit on error.
	ctl.ExitErrHandler = func(context *cli.Context, err error) {}

	ctl.Commands = commands

	var (
		registry = prometheus.NewRegistry()
		m        = reflist.NewMetrics(registry)
		service  = metrics.NewPrometheusService(cfg.ApplicationConfiguration.Prometheus, registry, log)
	)
	if err := service.Start(); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to start metrics service: %w", err)
	}

	s := &Shell{
		shell:    ctl,
		registry: registry,
		service:  service,
	}
	exitF := func(i int) {
		s.shutdown()
		onExit(i)
	}

	s.shell.Metadata = map[string]interface{}{
		objectsKey:          make(objects),
		listMetricsKey:      m,
		registryKey:         registry,
		logKey:              log,
		promptKey:           cfg.ShellConfiguration.Prompt,
		exitFuncKey:         exitF,
		exitedKey:           new(bool),
		readlineInstanceKey: l,
		printLogoKey:        printLogotype,
		devicesKey:          make(devices),
		connectorsKey:       make(connectors),
	}
	s.shell.Metadata[listKey] = newList(s.shell)
	changePrompt(s.shell)
	return s, nil
}

func newList(app *cli.App) *reflist.List[*Item] {
	return reflist.NewRefCounted[*Item](
		reflist.WithLogger(getLogFromContext(app)),
		reflist.WithMetrics(getListMetricsFromContext(app)))
}

func (s *Shell) shutdown() {
	s.stopOnce.Do(s.service.ShutDown)
}

func getExitFuncFromContext(app *cli.App) func(int) {
	return app.Metadata[exitFuncKey].(func(int))
}

func getReadlineInstanceFromContext(app *cli.App) *readline.Instance {
	return app.Metadata[readlineInstanceKey].(*readline.Instance)
}

func getListFromContext(app *cli.App) *reflist.List[*Item] {
	return app.Metadata[listKey].(*reflist.List[*Item])
}

func getObjectsFromContext(app *cli.App) objects {
	return app.Metadata[objectsKey].(objects)
}

func getListMetricsFromContext(app *cli.App) *reflist.Metrics {
	return app.Metadata[listMetricsKey].(*reflist.Metrics)
}

func getRegistryFromContext(app *cli.App) *prometheus.Registry {
	return app.Metadata[registryKey].(*prometheus.Registry)
}

func getLogFromContext(app *cli.App) *zap.Logger {
	return app.Metadata[logKey].(*zap.Logger)
}

func getPrintLogoFromContext(app *cli.App) bool {
	return app.Metadata[printLogoKey].(bool)
}

func isExited(app *cli.App) bool {
	return *app.Metadata[exitedKey].(*bool)
}

func checkListIsAlive(app *cli.App) error {
	if getListFromContext(app).Refs() == 0 {
		return ErrListDestroyed
	}
	return nil
}

func getObjects(app *cli.App, names []string) ([]*Item, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: <name>", ErrMissingParameter)
	}
	objs := getObjectsFromContext(app)
	res := make([]*Item, len(names))
	for i, name := range names {
		it, ok := objs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownObject, name)
		}
		res[i] = it
	}
	return res, nil
}

func handleExit(c *cli.Context) error {
	*c.App.Metadata[exitedKey].(*bool) = true
	l := getReadlineInstanceFromContext(c.App)
	_ = l.Close()
	exit := getExitFuncFromContext(c.App)
	fmt.Fprintln(c.App.Writer, "Bye!")
	exit(0)
	return nil
}

func handleNew(c *cli.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return fmt.Errorf("%w: <name>", ErrMissingParameter)
	}
	objs := getObjectsFromContext(c.App)
	for _, name := range args {
		if _, ok := objs[name]; ok {
			return fmt.Errorf("%w: object %s already exists", ErrInvalidParameter, name)
		}
		objs[name] = newItem(name, func(it *Item) {
			delete(objs, it.Name())
			fmt.Fprintf(c.App.Writer, "object %s freed\n", it.Name())
		})
	}
	fmt.Fprintf(c.App.Writer, "created %d object(s)\n", len(args))
	return nil
}

func handleDrop(c *cli.Context) error {
	objs, err := getObjects(c.App, c.Args())
	if err != nil {
		return err
	}
	for _, it := range objs {
		if it.dropped {
			return fmt.Errorf("%w: %s is not held by the shell", ErrInvalidParameter, it.Name())
		}
		it.dropped = true
		it.Release()
	}
	return nil
}

func handleAdd(c *cli.Context) error {
	objs, err := getObjects(c.App, c.Args())
	if err != nil {
		return err
	}
	l := getListFromContext(c.App)
	for _, it := range objs {
		if err := l.Add(it); err != nil {
			return fmt.Errorf("can't add %s: %w", it.Name(), err)
		}
	}
	return nil
}

func handleRemove(c *cli.Context) error {
	objs, err := getObjects(c.App, c.Args())
	if err != nil {
		return err
	}
	l := getListFromContext(c.App)
	for _, it := range objs {
		if err := l.Remove(it); err != nil {
			return fmt.Errorf("can't remove %s: %w", it.Name(), err)
		}
	}
	return nil
}

func handleItems(c *cli.Context) error {
	if err := checkListIsAlive(c.App); err != nil {
		return err
	}
	items := getListFromContext(c.App).Items()
	if len(items) == 0 {
		fmt.Fprintln(c.App.Writer, "(empty)")
		return nil
	}
	names := make([]string, len(items))
	for i := range items {
		names[i] = items[i].Name()
	}
	fmt.Fprintln(c.App.Writer, strings.Join(names, " "))
	return nil
}

func handleObjects(c *cli.Context) error {
	var (
		objs  = getObjectsFromContext(c.App)
		l     = getListFromContext(c.App)
		names = make([]string, 0, len(objs))
	)
	for name := range objs {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREFS\tENTRIES\tHELD")
	for _, name := range names {
		it := objs[name]
		fmt.Fprintf(w, "%s\t%d\t%d\t%t\n", name, it.Refs(), l.Count(it), !it.dropped)
	}
	return w.Flush()
}

func handleApply(c *cli.Context) error {
	var fn func(*Item, any) int

	args := c.Args()
	if len(args) != 1 {
		return fmt.Errorf("%w: <%s|%s|%s>", ErrMissingParameter, applyCount, applyRefs, applyRemoveSelf)
	}
	switch args[0] {
	case applyCount:
		fn = func(*Item, any) int { return 1 }
	case applyRefs:
		fn = func(it *Item, _ any) int { return it.Refs() }
	case applyRemoveSelf:
		fn = func(it *Item, info any) int {
			if err := info.(*reflist.List[*Item]).Remove(it); err != nil {
				return 0
			}
			return 1
		}
	default:
		return fmt.Errorf("%w: unknown function %q", ErrInvalidParameter, args[0])
	}
	l := getListFromContext(c.App)
	res, err := l.Apply(l, fn)
	if err != nil {
		return fmt.Errorf("can't apply %s: %w", args[0], err)
	}
	fmt.Fprintf(c.App.Writer, "result: %d\n", res)
	return nil
}

func handleRetain(c *cli.Context) error {
	l := getListFromContext(c.App)
	if err := l.Retain(); err != nil {
		return fmt.Errorf("can't retain list: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "list refs: %d\n", l.Refs())
	return nil
}

func handleRelease(c *cli.Context) error {
	l := getListFromContext(c.App)
	if err := l.Release(); err != nil {
		return fmt.Errorf("can't release list: %w", err)
	}
	if l.Refs() == 0 {
		fmt.Fprintln(c.App.Writer, "list destroyed")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "list refs: %d\n", l.Refs())
	return nil
}

func handleDestroy(c *cli.Context) error {
	if err := getListFromContext(c.App).Destroy(); err != nil {
		return fmt.Errorf("can't destroy list: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "list destroyed")
	return nil
}

func handleReset(c *cli.Context) error {
	l := getListFromContext(c.App)
	if l.Refs() != 0 {
		if err := l.Destroy(); err != nil {
			return fmt.Errorf("can't destroy list: %w", err)
		}
	}
	c.App.Metadata[listKey] = newList(c.App)
	fmt.Fprintln(c.App.Writer, "new list created")
	return nil
}

func handleStats(c *cli.Context) error {
	mfs, err := getRegistryFromContext(c.App).Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			var (
				name  = mf.GetName()
				value float64
			)
			for _, lp := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}
			fmt.Fprintf(w, "%s\t%g\n", name, value)
		}
	}
	return w.Flush()
}

func changePrompt(app *cli.App) {
	var (
		l      = getListFromContext(app)
		rl     = getReadlineInstanceFromContext(app)
		prompt = app.Metadata[promptKey].(string)
	)
	if l.Refs() == 0 {
		rl.SetPrompt(fmt.Sprintf("\033[31m%s (destroyed) >\033[0m ", prompt))
		return
	}
	rl.SetPrompt(fmt.Sprintf("\033[32m%s refs=%d len=%d >\033[0m ", prompt, l.Refs(), l.Len()))
}

// Run waits for user input from Stdin and executes the passed command.
func (s *Shell) Run() error {
	defer s.shutdown()
	if getPrintLogoFromContext(s.shell) {
		printLogo(s.shell.Writer)
	}
	l := getReadlineInstanceFromContext(s.shell)
	for {
		line, err := l.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return nil // OK, stop execution.
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err) // Critical error, stop execution.
		}

		args, err := shellquote.Split(line)
		if err != nil {
			writeErr(s.shell.ErrWriter, fmt.Errorf("failed to parse arguments: %w", err))
			continue // Not a critical error, continue execution.
		}
		if len(args) == 0 {
			continue
		}

		err = s.shell.Run(append([]string{"midikit"}, args...))
		if err != nil {
			writeErr(s.shell.ErrWriter, err) // Various command/flags parsing errors and execution errors.
		}
		if isExited(s.shell) {
			return nil
		}
		changePrompt(s.shell)
	}
}

const logo = `
           _     _ _ _    _ _
 _ __ ___ (_) __| (_) | _(_) |_
| '_ ` + "`" + ` _ \| |/ _` + "`" + ` | | |/ / | __|
| | | | | | | (_| | |   <| | |_
|_| |_| |_|_|\__,_|_|_|\_\_|\__|
`

func printLogo(w io.Writer) {
	fmt.Fprint(w, logo)
	fmt.Fprintln(w)
}

func writeErr(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", err)
}
