package substrate

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned by list operations addressing an element
	// beyond the current length. It is a caller error; the list is never
	// grown implicitly.
	ErrOutOfRange = errors.New("list index out of range")

	// ErrMigrationAborted is returned when a migration job is in, or moves
	// to, the terminal Aborted state. Recovery requires operator action.
	ErrMigrationAborted = errors.New("migration aborted")

	// ErrPatchConsumed is returned by Merge when given a patch that has
	// already been merged.
	ErrPatchConsumed = errors.New("patch already consumed")
)

// BackendError wraps a failure of the underlying key-value engine.
// These are fatal to the enclosing operation: the store cannot make
// progress until the backend recovers.
type BackendError struct {
	Op  string
	Err error
}

func backendErrf(err error, format string, args ...any) error {
	return &BackendError{Op: fmt.Sprintf(format, args...), Err: err}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

// DecodeError reports a stored value or key that fails to decode against
// the expected shape. It is surfaced to the caller of the specific read
// that hit it, never skipped or defaulted.
type DecodeError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DecodeError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}

// IndexError wraps an error with the address of the index it occurred in.
type IndexError struct {
	Addr Address
	Msg  string
	Err  error
}

func indexErrf(addr Address, err error, format string, args ...any) error {
	return &IndexError{Addr: addr, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

func (e *IndexError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Addr, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Addr, e.Msg)
}
