package midi

import (
	"fmt"

	"github.com/nspcc-dev/midikit/pkg/reflist"
	"go.uber.org/zap"
)

// Device is a MIDI device with a set of attached connectors. Every attached
// connector is retained by the device until it's detached or the device is
// destroyed. Device reference counting is the one of its connector list, so
// releasing the last device reference releases all attached connectors.
type Device struct {
	name       string
	log        *zap.Logger
	connectors *reflist.List[*Connector]
}

// NewDevice creates a device with one reference held by the caller. A nil
// log is allowed.
func NewDevice(name string, log *zap.Logger, opts ...reflist.Option) *Device {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("device", name))
	opts = append([]reflist.Option{reflist.WithLogger(log)}, opts...)
	return &Device{
		name:       name,
		log:        log,
		connectors: reflist.NewRefCounted[*Connector](opts...),
	}
}

// Name returns device name.
func (d *Device) Name() string {
	return d.name
}

// Retain adds a reference to the device.
func (d *Device) Retain() error {
	return d.connectors.Retain()
}

// Refs returns the number of device references, 0 for destroyed devices.
func (d *Device) Refs() int {
	return d.connectors.Refs()
}

// Release drops a reference to the device, the last one destroys it.
func (d *Device) Release() error {
	return d.connectors.Release()
}

// Attach retains c and attaches it to the device.
func (d *Device) Attach(c *Connector) error {
	if err := d.connectors.Add(c); err != nil {
		return fmt.Errorf("can't attach connector to %s: %w", d.name, err)
	}
	d.log.Debug("connector attached", zap.Stringer("connector", c))
	return nil
}

// Detach releases and detaches every attachment of c.
func (d *Device) Detach(c *Connector) error {
	if err := d.connectors.Remove(c); err != nil {
		return fmt.Errorf("can't detach connector from %s: %w", d.name, err)
	}
	d.log.Debug("connector detached", zap.Stringer("connector", c))
	return nil
}

// Connectors returns attached connectors, the most recently attached first.
func (d *Device) Connectors() []*Connector {
	return d.connectors.Items()
}

// Each calls f for every attached connector and returns the number of calls
// that failed. f must not detach connectors.
func (d *Device) Each(f func(*Connector) error) (int, error) {
	return d.connectors.Apply(nil, func(c *Connector, _ any) int {
		if err := f(c); err != nil {
			d.log.Warn("connector callback failed",
				zap.Stringer("connector", c),
				zap.Error(err))
			return 1
		}
		return 0
	})
}

// Prune detaches all closed connectors and returns the number of connectors
// detached.
func (d *Device) Prune() (int, error) {
	return d.connectors.Apply(d.connectors, func(c *Connector, info any) int {
		if !c.Closed() {
			return 0
		}
		if err := info.(*reflist.List[*Connector]).Remove(c); err != nil {
			return 0
		}
		return 1
	})
}
