package sqlconfig

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("sqlconfig: record not found")
	ErrVersionConflict = errors.New("sqlconfig: version conflict")
	ErrDuplicateIBAN   = errors.New("sqlconfig: iban already exists")
	ErrUnavailable     = errors.New("sqlconfig: store unavailable")
)

// Postgres error codes that mean the unit could not complete but may succeed later.
var transientPgCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"57014": {}, // query_canceled (statement_timeout)
	"53300": {}, // too_many_connections
	"08006": {}, // connection_failure
}

// TranslateError maps driver and database errors onto the package's sentinel errors.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "accounts_iban_key" {
			return ErrDuplicateIBAN
		}
		if _, ok := transientPgCodes[pgErr.Code]; ok {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}
	return err
}
