package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match these through errors.Is.
var (
	ErrInvalidTypeOptions        = errors.New("invalid type options")
	ErrUnsupportedLiteral        = errors.New("unsupported literal")
	ErrMissingPrimaryKey         = errors.New("missing primary key")
	ErrInvalidPartitionColumns   = errors.New("invalid partition columns")
	ErrUnsupportedOperation      = errors.New("unsupported operation")
	ErrCannotModifyPrimaryKey    = errors.New("cannot modify primary key column")
	ErrBindArityMismatch         = errors.New("bind arity mismatch")
	ErrDuplicateMigrationVersion = errors.New("duplicate migration version")
	ErrTransport                 = errors.New("transport failure")
	ErrNonTransientEngine        = errors.New("engine error")
	ErrNotConnected              = errors.New("connection not established")
)

// UnsupportedOperationError is returned for DDL the engine has no equivalent for.
type UnsupportedOperationError struct {
	Op     string
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: not supported by kudu", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is matches ErrUnsupportedOperation.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

// Unsupported returns an UnsupportedOperationError for op.
func Unsupported(op, reason string) error {
	return &UnsupportedOperationError{Op: op, Reason: reason}
}

// TransportError marks a failure of the connection itself (closed socket,
// broken pipe, bad driver connection). The executor reconnects once on it.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// EngineError wraps any failure reported by the engine for a statement.
type EngineError struct {
	SQL string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine rejected statement: %v", e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Is matches ErrNonTransientEngine.
func (e *EngineError) Is(target error) bool {
	return target == ErrNonTransientEngine
}

// PrimaryKeyError reports an attempt to drop or rename a primary-key column.
type PrimaryKeyError struct {
	Table  string
	Column string
	Op     string
}

func (e *PrimaryKeyError) Error() string {
	return fmt.Sprintf("cannot %s primary key column %s.%s (rebuild the table instead)", e.Op, e.Table, e.Column)
}

// Is matches ErrCannotModifyPrimaryKey.
func (e *PrimaryKeyError) Is(target error) bool {
	return target == ErrCannotModifyPrimaryKey
}

// RebuildError reports a primary-key rebuild that stopped part way. The
// schema may be left with renamed tables; Step names the first step that
// did not complete and Applied counts its statements that did.
type RebuildError struct {
	ID      string
	Table   string
	Step    string
	Applied int
	Err     error
}

func (e *RebuildError) Error() string {
	where := fmt.Sprintf("step %q", e.Step)
	if e.Applied > 0 {
		where = fmt.Sprintf("step %q after %d applied statement(s)", e.Step, e.Applied)
	}
	return fmt.Sprintf("rebuild %s of table %s failed at %s: %v (inspect table names and resume or roll back manually)",
		e.ID, e.Table, where, e.Err)
}

func (e *RebuildError) Unwrap() error { return e.Err }
