// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import "github.com/pkg/errors"

var (
	// ErrMemory is the cause of errors raised when the node table cannot grow
	// any more.
	ErrMemory = errors.New("unable to free memory or resize BDD")
	// ErrNode is the cause of errors raised on operands that are not live nodes.
	ErrNode = errors.New("invalid node")
	// ErrRef is the cause of errors raised when releasing an unreferenced node.
	ErrRef = errors.New("unbalanced reference count")
)

// Error returns the error status of the BDD, or the empty string.
func (b *BDD) Error() string {
	if b.error == nil {
		return ""
	}
	return b.error.Error()
}

// Errored returns true if there was an error during a computation.
func (b *BDD) Errored() bool {
	return b.error != nil
}

// Err returns the error status of the BDD, nil if there was no error.
func (b *BDD) Err() error {
	return b.error
}

// seterror records an error and returns an invalid node so that callers can
// write "return b.seterror(...)". Errors are sticky: a new error is chained
// with the previous one.
func (b *BDD) seterror(cause error, format string, a ...interface{}) Node {
	if b.error != nil {
		b.error = errors.Wrapf(b.error, format, a...)
		return bddnil
	}
	b.error = errors.Wrapf(cause, format, a...)
	b.log.WithError(b.error).Debug("bdd error")
	return bddnil
}
