// Package nerr provides the error taxonomy shared by every notionsql
// component. Callers match on Kind, either with errors.As into *Error or
// with errors.Is against Sentinel(kind); Is compares Kind only, so the
// operation-specific context most errors carry does not affect matching.
package nerr

import "fmt"

// Kind tags an Error with the taxonomy category it belongs to.
type Kind int

const (
	KindSyntax Kind = iota
	KindInterface
	KindInternal
	KindDatabase
	KindOperational
	KindTransaction
	KindAcquireLockFailed
	KindNoResultFound
	KindMultipleResultsFound
	KindResourceClosed
	KindDuplicateColumn
	KindArgument
	KindInvalidRequest
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindInterface:
		return "InterfaceError"
	case KindInternal:
		return "InternalError"
	case KindDatabase:
		return "DatabaseError"
	case KindOperational:
		return "OperationalError"
	case KindTransaction:
		return "TransactionError"
	case KindAcquireLockFailed:
		return "AcquireLockFailed"
	case KindNoResultFound:
		return "NoResultFound"
	case KindMultipleResultsFound:
		return "MultipleResultsFound"
	case KindResourceClosed:
		return "ResourceClosedError"
	case KindDuplicateColumn:
		return "DuplicateColumnError"
	case KindArgument:
		return "ArgumentError"
	case KindInvalidRequest:
		return "InvalidRequestError"
	default:
		return "Error"
	}
}

// Error is the concrete error type for every taxonomy member. Op names the
// failing operation (e.g. "lexer.scan", "txn.commit") for log correlation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can do errors.Is(err, nerr.KindSyntax) style
// checks via a sentinel constructed with the same Kind and no Op/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Sentinel returns a bare Error of the given kind, suitable for
// errors.Is(err, nerr.Sentinel(nerr.KindSyntax)).
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
