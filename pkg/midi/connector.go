package midi

// Connector is a named, reference-counted endpoint devices exchange messages
// through. A new connector has one reference held by its creator.
type Connector struct {
	name      string
	refs      int
	closed    bool
	onRelease func(*Connector)
}

// NewConnector creates a connector with the given name.
func NewConnector(name string) *Connector {
	return &Connector{name: name, refs: 1}
}

// Name returns connector name.
func (c *Connector) Name() string {
	return c.name
}

// Refs returns the current reference count.
func (c *Connector) Refs() int {
	return c.refs
}

// OnRelease sets a function called once when the last reference to the
// connector is released.
func (c *Connector) OnRelease(f func(*Connector)) {
	c.onRelease = f
}

// Retain adds a reference to the connector.
func (c *Connector) Retain() {
	c.refs++
}

// Release drops a reference, releasing a connector that has no references
// left does nothing.
func (c *Connector) Release() {
	if c.refs == 0 {
		return
	}
	c.refs--
	if c.refs == 0 && c.onRelease != nil {
		c.onRelease(c)
	}
}

// Close marks connector as closed, closed connectors are dropped by
// Device.Prune.
func (c *Connector) Close() {
	c.closed = true
}

// Closed checks whether the connector was closed.
func (c *Connector) Closed() bool {
	return c.closed
}

// String implements fmt.Stringer interface.
func (c *Connector) String() string {
	return c.name
}
