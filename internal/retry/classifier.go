package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// SQL Server error numbers that Azure SQL and on-prem instances raise while a
// database is starting, failing over or throttling logins.
var transientMSSQLNumbers = map[int32]bool{
	4060:  true, // cannot open database requested by the login
	40197: true, // service error processing the request
	40501: true, // service is currently busy
	40613: true, // database not currently available
	49918: true,
	49919: true,
	49920: true,
}

// ConnectionErrorClassifier decides whether a failure to reach a warehouse is
// worth another attempt. It understands PostgreSQL, SQL Server and SQLite
// driver errors as well as plain network errors.
type ConnectionErrorClassifier struct{}

var _ snapload.ErrorClassifier = (*ConnectionErrorClassifier)(nil)

// NewConnectionErrorClassifier creates a new classifier.
func NewConnectionErrorClassifier() *ConnectionErrorClassifier {
	return &ConnectionErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
// Context cancellation is never transient.
func (c *ConnectionErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientPgCode(pgErr.Code)
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return transientMSSQLNumbers[msErr.Number]
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}

	if IsNetworkError(err) {
		return true
	}

	return isConnectionMessage(err)
}

// isTransientPgCode checks PostgreSQL SQLSTATE classes for transient conditions.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
func isTransientPgCode(code string) bool {
	switch {
	case strings.HasPrefix(code, "08"): // connection exception
		return true
	case strings.HasPrefix(code, "53"): // insufficient resources
		return true
	case strings.HasPrefix(code, "57P"): // admin/crash shutdown, cannot connect now
		return true
	}
	switch code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

// IsNetworkError reports whether err is a network-level failure such as a
// refused, reset or unreachable connection.
func IsNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{
			syscall.ECONNREFUSED,
			syscall.ECONNRESET,
			syscall.ENETUNREACH,
			syscall.EHOSTUNREACH,
		} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}

	return false
}

var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"database is locked",
}

func isConnectionMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
