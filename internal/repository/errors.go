// Package repository contains the MySQL persistence layer.  Every
// repository reads and writes through the querier bound to the
// request context, so a call made inside Transactor.WithinTx joins
// that transaction and a call made outside it runs on the pool.
//
// The sentinels below let the service layer tell missing rows and
// unique-key collisions apart from other storage failures.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by primary key matches no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert or update collides with a
// unique index (MySQL error 1062).
var ErrDuplicate = errors.New("duplicate entry")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// wrap annotates err with the repository operation name.  Duplicate-key
// errors are normalised to ErrDuplicate so callers need not inspect
// driver types.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%s: %w: %s", op, ErrDuplicate, me.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
