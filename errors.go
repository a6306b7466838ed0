// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import "github.com/pkg/errors"

var (
	// ErrNode is the cause of errors raised on operands that are not live
	// nodes of the engine.
	ErrNode = errors.New("invalid node")
	// ErrField is the cause of errors raised on undeclared fields, bad bit
	// positions or predicates that do not fit in their field.
	ErrField = errors.New("invalid field")
	// ErrUnprotect is the cause of errors raised when unprotecting a node with
	// no outstanding reference.
	ErrUnprotect = errors.New("unprotect on a node with no outstanding reference")
	// ErrFlat is the cause of errors raised when the flat engine fails, for
	// instance when its node table reaches its maximal size.
	ErrFlat = errors.New("flat engine failure")
)

// Error returns the error status of the engine, or the empty string.
func (e *Engine) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.error == nil {
		return ""
	}
	return e.error.Error()
}

// Errored returns true if there was an error during a computation.
func (e *Engine) Errored() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.error != nil
}

// Err returns the error status of the engine, nil if there was no error.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.error
}

// seterror records an error and returns an invalid node, so that callers can
// write "return e.seterror(...)". Errors are sticky: once set, every
// operation returns an invalid node.
func (e *Engine) seterror(cause error, format string, a ...interface{}) Node {
	if e.error != nil {
		e.error = errors.Wrapf(e.error, format, a...)
		return nddnil
	}
	e.error = errors.Wrapf(cause, format, a...)
	e.log.WithError(e.error).Debug("ndd error")
	return nddnil
}

// flaterror records a failure of the flat engine.
func (e *Engine) flaterror(op string) Node {
	return e.seterror(ErrFlat, "%s: %s", op, e.flat.Error())
}
