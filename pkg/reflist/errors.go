package reflist

import (
	"errors"
	"syscall"
)

// Kind classifies list operation failures.
type Kind byte

// Failure kinds.
const (
	// KindNone is not a failure.
	KindNone Kind = iota
	// KindFault means the list handle is nil or already destroyed.
	KindFault
	// KindInvalidArgument means a zero item or a nil function was given.
	KindInvalidArgument
	// KindOutOfMemory means some storage could not be allocated.
	KindOutOfMemory
)

// Various errors returned by list operations.
var (
	ErrFault           = errors.New("invalid list handle")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfMemory     = errors.New("out of memory")
)

// String implements fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFault:
		return "EFAULT"
	case KindInvalidArgument:
		return "EINVAL"
	case KindOutOfMemory:
		return "ENOMEM"
	default:
		return "unknown"
	}
}

// Errno returns the classic error number for the kind, 0 for KindNone.
func (k Kind) Errno() syscall.Errno {
	switch k {
	case KindFault:
		return syscall.EFAULT
	case KindInvalidArgument:
		return syscall.EINVAL
	case KindOutOfMemory:
		return syscall.ENOMEM
	default:
		return 0
	}
}

// Err returns the sentinel error for the kind, nil for KindNone and unknown
// kinds.
func (k Kind) Err() error {
	switch k {
	case KindFault:
		return ErrFault
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindOutOfMemory:
		return ErrOutOfMemory
	default:
		return nil
	}
}

// KindOf classifies err, it looks through wrapped errors. Errors not produced
// by this package are classified as KindNone.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrFault):
		return KindFault
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrOutOfMemory):
		return KindOutOfMemory
	default:
		return KindNone
	}
}
