package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// AnnotatedError includes more context than a plain error that is useful for troubleshooting.
type AnnotatedError struct {
	// msg is the error message.
	msg string
	// pc is the program counter for the location of the error provided by runtime.Callers.
	pc uintptr
	// attrs are slog attributes that are added to the log event to provide more context for the error.
	attrs []slog.Attr
	// wrapped is the cause of the error, nil for errors created with New.
	wrapped error
}

// New creates a new AnnotatedError with the given message and attributes.
func New(msg string, attrs ...slog.Attr) error {
	var pcs [1]uintptr
	// Skip runtime.Callers and this function.
	runtime.Callers(2, pcs[:]) //nolint:mnd // see comment above
	return AnnotatedError{
		msg:     msg,
		pc:      pcs[0],
		attrs:   attrs,
		wrapped: nil,
	}
}

// Wrap annotates err with a message describing what was attempted and optional attributes.
//
// The message of the returned error is "msg: err". Wrapping a nil error returns nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	var pcs [1]uintptr
	runtime.Callers(2, pcs[:]) //nolint:mnd // skip runtime.Callers and Wrap
	return AnnotatedError{
		msg:     msg,
		pc:      pcs[0],
		attrs:   attrs,
		wrapped: err,
	}
}

// NewSentinel creates a plain error without other context that can be used as sentinel error that can be detected
// with errors.Is.
func NewSentinel(msg string) error {
	return errors.New(msg)
}

type extendedSentinel struct {
	msg    string
	parent error
}

func (e extendedSentinel) Error() string { return e.msg }
func (e extendedSentinel) Unwrap() error { return e.parent }

// Extend creates a sentinel error that also matches parent with errors.Is.
//
// It is used to build small error taxonomies, e.g., a specific validation failure that is still a validation error.
func Extend(parent error, msg string) error {
	return extendedSentinel{msg: msg, parent: parent}
}

type markedError struct {
	err      error
	sentinel error
}

func (e markedError) Error() string   { return e.err.Error() }
func (e markedError) Unwrap() []error { return []error{e.err, e.sentinel} }

// Mark makes err also match sentinel with errors.Is and errors.As while keeping its message and cause chain.
//
// It translates errors of a lower layer into the taxonomy of the calling package. Mark returns nil if err is nil.
func Mark(err, sentinel error) error {
	if err == nil {
		return nil
	}
	return markedError{err: err, sentinel: sentinel}
}

// Error implements error interface.
func (err AnnotatedError) Error() string {
	if err.wrapped == nil {
		return err.msg
	}
	return fmt.Sprintf("%s: %s", err.msg, err.wrapped.Error())
}

// Unwrap returns the wrapped cause.
func (err AnnotatedError) Unwrap() error {
	return err.wrapped
}

// LogValue formats the error for useful logging.
func (err AnnotatedError) LogValue() slog.Value {
	// Retrieve the source location of the error so that developers can locate it faster.
	frames := runtime.CallersFrames([]uintptr{err.pc})
	source, _ := frames.Next()
	sourceAttr := slog.String("source", fmt.Sprintf("%s:%d", source.File, source.Line))

	attrs := append(
		[]slog.Attr{sourceAttr},
		err.attrs...,
	)

	return slog.GroupValue(attrs...)
}

// SlogError creates a slog.Attr from an error.
//
// The attribute contains the full error message and the annotations of every AnnotatedError in the chain, the
// innermost one last.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	attrs := []slog.Attr{slog.String("message", err.Error())}
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		var annotated AnnotatedError
		if ok := errors.As(cur, &annotated); !ok {
			break
		}
		attrs = append(attrs, slog.Attr{Key: annotated.msg, Value: annotated.LogValue()})
		cur = annotated
	}
	return slog.Attr{Key: "error", Value: slog.GroupValue(attrs...)}
}

// As exposes stdlib errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is exposes stdlib errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Join exposes stdlib errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
