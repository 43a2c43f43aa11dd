/*
Package reflist implements a reference-counted singly-linked list of items
whose lifetime is managed by the caller.

The list never owns the items it stores. Instead it invokes the retain
callback once for every item added and the release callback once for every
item removed, including all items still present when the list is destroyed.
The list itself is reference counted too, it's destroyed when the last holder
releases it.

Lists are not safe for concurrent use, callers sharing a list between
goroutines must serialize access to it.
*/
package reflist

import (
	"reflect"

	"go.uber.org/zap"
)

// FailureLogMessage is the message precondition failures are logged with.
const FailureLogMessage = "list precondition failed"

// RefCounted is an item that carries its own reference counter.
type RefCounted interface {
	Retain()
	Release()
}

// List is a reference-counted list of items. The zero value of T is used as
// "no item" and can't be stored. When T is (or contains) an interface type,
// items with dynamic values that can't be compared with == (slices, maps,
// functions) are rejected by Add with ErrInvalidArgument. Use New or NewRefCounted to create a List.
type List[T comparable] struct {
	refs    int
	len     int
	head    *entry[T]
	retain  func(T)
	release func(T)
	log     *zap.Logger
	metrics *Metrics
}

type entry[T comparable] struct {
	item T
	next *entry[T]
	// list is nil once the entry is unlinked.
	list *List[T]
}

// New creates an empty list with a reference count of 1. Both retain and
// release can be nil.
func New[T comparable](retain, release func(T), opts ...Option) *List[T] {
	o := newOptions(opts)
	return &List[T]{
		refs:    1,
		retain:  retain,
		release: release,
		log:     o.log,
		metrics: o.metrics,
	}
}

// NewRefCounted creates an empty list that retains and releases items using
// their own Retain and Release methods.
func NewRefCounted[T interface {
	comparable
	RefCounted
}](opts ...Option) *List[T] {
	return New(func(item T) { item.Retain() }, func(item T) { item.Release() }, opts...)
}

// valid reports whether l can be operated on. Destroyed lists have no
// references left.
func (l *List[T]) valid() bool {
	return l != nil && l.refs > 0
}

// fail reports a failed precondition and returns the error for it.
func (l *List[T]) fail(op string, k Kind) error {
	if l != nil {
		l.log.Error(FailureLogMessage,
			zap.String("op", op),
			zap.Stringer("kind", k))
		l.metrics.failed(k)
	}
	return k.Err()
}

// isComparable checks dynamic values hidden behind interfaces, == panics on
// them otherwise.
func isComparable[T comparable](item T) bool {
	return reflect.ValueOf(&item).Elem().Comparable()
}

func (l *List[T]) retainItem(item T) {
	if l.retain != nil {
		l.retain(item)
	}
	l.metrics.itemRetained()
}

func (l *List[T]) releaseItem(item T) {
	if l.release != nil {
		l.release(item)
	}
	l.metrics.itemReleased()
}

// Destroy releases every item still present in the list and invalidates it
// regardless of its reference count. Any operation on a destroyed list fails
// with ErrFault. Destroy must not be called while another operation on the
// same list is in progress (from Apply's function, for example).
func (l *List[T]) Destroy() error {
	if !l.valid() {
		return l.fail("destroy", KindFault)
	}
	head := l.head
	l.head = nil
	l.len = 0
	l.refs = 0
	for e := head; e != nil; {
		next := e.next
		e.list = nil
		l.releaseItem(e.item)
		e = next
	}
	return nil
}

// Retain increments the reference count of the list.
func (l *List[T]) Retain() error {
	if !l.valid() {
		return l.fail("retain", KindFault)
	}
	l.refs++
	return nil
}

// Release decrements the reference count of the list and destroys it when
// the count reaches zero.
func (l *List[T]) Release() error {
	if !l.valid() {
		return l.fail("release", KindFault)
	}
	if l.refs == 1 {
		return l.Destroy()
	}
	l.refs--
	return nil
}

// Add retains item and puts it in front of the list. The same item can be
// added several times, every addition creates a separate entry.
func (l *List[T]) Add(item T) error {
	var zero T

	if !l.valid() {
		return l.fail("add", KindFault)
	}
	if item == zero || !isComparable(item) {
		return l.fail("add", KindInvalidArgument)
	}
	e := &entry[T]{item: item, list: l}
	l.retainItem(item)
	e.next = l.head
	l.head = e
	l.len++
	return nil
}

// Remove unlinks and releases every entry holding item, not just the first
// one. Removing an item that is not in the list is not an error.
func (l *List[T]) Remove(item T) error {
	var (
		zero T
		prev *entry[T]
	)

	if !l.valid() {
		return l.fail("remove", KindFault)
	}
	if item == zero {
		return l.fail("remove", KindInvalidArgument)
	}
	for e := l.head; e != nil; {
		next := e.next
		if e.item != item {
			prev = e
			e = next
			continue
		}
		if prev == nil {
			l.head = next
		} else {
			prev.next = next
		}
		l.len--
		e.list = nil
		l.releaseItem(e.item)
		e = next
	}
	assert(l.len >= 0, "negative list length")
	return nil
}

// Apply calls fn for every item in the list (in list order) passing info to
// it and returns the sum of the values returned by fn. fn may remove the
// item it's called for from the list, but it must not remove other items
// or destroy the list.
func (l *List[T]) Apply(info any, fn func(item T, info any) int) (int, error) {
	var (
		zero   T
		result int
	)

	if !l.valid() {
		return 0, l.fail("apply", KindFault)
	}
	if fn == nil {
		return 0, l.fail("apply", KindInvalidArgument)
	}
	for e := l.head; e != nil; {
		next := e.next
		// Entries unlinked by fn behind our back are not visited.
		if e.list == l && e.item != zero {
			result += fn(e.item, info)
		}
		if l.refs == 0 {
			break
		}
		e = next
	}
	return result, nil
}

// Len returns the number of entries in the list, 0 for invalid lists.
func (l *List[T]) Len() int {
	if !l.valid() {
		return 0
	}
	return l.len
}

// Refs returns the reference count of the list, 0 for invalid lists.
func (l *List[T]) Refs() int {
	if l == nil {
		return 0
	}
	return l.refs
}

// Count returns the number of entries holding item.
func (l *List[T]) Count(item T) int {
	var n int

	if !l.valid() {
		return 0
	}
	for e := l.head; e != nil; e = e.next {
		if e.item == item {
			n++
		}
	}
	return n
}

// Contains checks whether item is in the list.
func (l *List[T]) Contains(item T) bool {
	if !l.valid() {
		return false
	}
	for e := l.head; e != nil; e = e.next {
		if e.item == item {
			return true
		}
	}
	return false
}

// Items returns a snapshot of the list contents, most recently added first.
func (l *List[T]) Items() []T {
	if !l.valid() {
		return nil
	}
	res := make([]T, 0, l.len)
	for e := l.head; e != nil; e = e.next {
		res = append(res, e.item)
	}
	return res
}
