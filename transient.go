package gostore

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// MySQL server error numbers worth another attempt.
const (
	mysqlLockWaitTimeout  = 1205
	mysqlDeadlock         = 1213
	mysqlTooManyConns     = 1040
	mysqlServerGone       = 2006
	mysqlServerLost       = 2013
	mysqlReadOnlyFailover = 1290
)

// PostgreSQL SQLSTATE codes worth another attempt. Class 08 (connection
// exception) is matched by prefix.
var _pgTransientCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"53300": {}, // too_many_connections
	"57P01": {}, // admin_shutdown
	"57P03": {}, // cannot_connect_now
}

// IsTransient reports whether err is a fault that may disappear when the same
// work is attempted again: deadlocks, serialization failures, lock timeouts,
// dropped connections and errors wrapping ErrTransient.
//
// Context cancellation and deadline errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, ErrTransient) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlLockWaitTimeout, mysqlDeadlock, mysqlTooManyConns,
			mysqlServerGone, mysqlServerLost, mysqlReadOnlyFailover:
			return true
		default:
			return false
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") {
			return true
		}

		_, ok := _pgTransientCodes[pgErr.Code]
		return ok
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
