package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/inventrack/internal/domain"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Nombre del CHECK que impide saldos negativos (ver migrations/0001_init.sql).
const stockNonNegativeConstraint = "stock_quantity_non_negative"

// errorCode código extendido de SQLite, o 0 si err no viene del driver.
func errorCode(err error) int {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isConstraint(err error, extended int, text string) bool {
	if code := errorCode(err); code != 0 && code == extended {
		return true
	}
	return err != nil && strings.Contains(err.Error(), text)
}

func isUniqueViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY constraint failed")
}

func isCheckViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_CHECK, "CHECK constraint failed")
}

// isConflict bloqueo de escritura no obtenido a tiempo, consulta interrumpida o contexto terminado.
func isConflict(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch errorCode(err) & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_INTERRUPT:
		return true
	}
	return false
}

// translateError traduce errores del driver a errores de dominio y envuelve el resto con op.
func translateError(ctx context.Context, err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case isConflict(ctx, err):
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return fmt.Errorf("%w: %s: %w", domain.ErrConcurrencyConflict, op, errors.Join(err, ctxErr))
		}
		return fmt.Errorf("%w: %s: %w", domain.ErrConcurrencyConflict, op, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, op)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrReferentialIntegrity, op)
	case isCheckViolation(err):
		if strings.Contains(err.Error(), stockNonNegativeConstraint) {
			return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, op)
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
