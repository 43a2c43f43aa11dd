package shell

// Item is a named shell object stored in the list. It counts the references
// held on it: one by the shell itself (dropped with the "drop" command) and
// one per list entry.
type Item struct {
	name string
	refs int
	free func(*Item)
	// dropped is set once the shell gives up its reference.
	dropped bool
}

func newItem(name string, free func(*Item)) *Item {
	return &Item{name: name, refs: 1, free: free}
}

// Name returns item name.
func (i *Item) Name() string {
	return i.name
}

// Refs returns the number of references held on the item.
func (i *Item) Refs() int {
	return i.refs
}

// Retain adds a reference to the item.
func (i *Item) Retain() {
	i.refs++
}

// Release drops a reference to the item and frees it when there are no
// references left.
func (i *Item) Release() {
	if i.refs == 0 {
		return
	}
	i.refs--
	if i.refs == 0 && i.free != nil {
		i.free(i)
	}
}

// String implements fmt.Stringer interface.
func (i *Item) String() string {
	return i.name
}
