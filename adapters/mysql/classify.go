package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/luizvinicius2219/planimport/domain/core"
)

// Server errors that can clear on a retry
var transientNumbers = map[uint16]bool{
	1040: true, // ER_CON_COUNT_ERROR
	1042: true, // ER_BAD_HOST_ERROR
	1053: true, // ER_SERVER_SHUTDOWN
	1205: true, // ER_LOCK_WAIT_TIMEOUT
	1213: true, // ER_LOCK_DEADLOCK
}

// classify tags a store error as transient or structural. Transient faults
// are retried as a whole batch; structural faults reject the single row.
// Context cancellation passes through untagged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if core.IsTransientError(err) || core.IsStructuralError(err) {
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if transientNumbers[myErr.Number] {
			return fmt.Errorf("%w: %w", core.ErrStoreTransient, err)
		}
		// constraint violations, missing tables or columns, type errors
		return fmt.Errorf("%w: %w", core.ErrStoreStructural, err)
	}

	// connection-level faults, the server went away mid-conversation
	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, io.EOF),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %w", core.ErrStoreTransient, err)
	}

	// anything unrecognized is treated as transient
	return fmt.Errorf("%w: %w", core.ErrStoreTransient, err)
}
