package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrTransient marks failures that are safe to retry: timeouts, lost
	// connections, an open circuit breaker.
	ErrTransient = errors.New("store: transient failure")
	// ErrDuplicate means a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrNotFound means no row matched.
	ErrNotFound = errors.New("store: not found")
	// ErrMissingReference means a foreign key pointed at a row that does not exist.
	ErrMissingReference = errors.New("store: referenced row does not exist")
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeQueryCanceled       = "57014"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeTooManyConnections  = "53300"
	codeAdminShutdown       = "57P01"
	codeCannotConnectNow    = "57P03"
)

// classify maps driver errors onto the package sentinels. Unknown server
// errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrMissingReference) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrMissingReference, pgErr.ConstraintName)
		case codeQueryCanceled, codeSerialization, codeDeadlock,
			codeTooManyConnections, codeAdminShutdown, codeCannotConnectNow:
			return fmt.Errorf("%w: %s", ErrTransient, pgErr.Message)
		}
		if len(pgErr.Code) == 5 && pgErr.Code[:2] == "08" {
			return fmt.Errorf("%w: %s", ErrTransient, pgErr.Message)
		}
		return err
	}

	// Anything that never produced a server error is a connection, timeout
	// or cancellation problem.
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
