package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/inventrack/internal/domain"
)

// Códigos SQLSTATE que interesan al adaptador.
const (
	codeForeignKeyViolation  = "23503"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

// Nombre del CHECK que impide saldos negativos (ver migrations/0001_init.sql).
const stockNonNegativeConstraint = "stock_quantity_non_negative"

func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	if pgErr := pgError(err); pgErr != nil {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// isForeignKeyViolation verifica si un error es una violación de llave foránea (23503).
func isForeignKeyViolation(err error) bool {
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == codeForeignKeyViolation
}

// isConflict indica un fallo transitorio de bloqueo o serialización, o el fin del contexto.
func isConflict(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	if pgErr := pgError(err); pgErr != nil {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeQueryCanceled:
			return true
		}
	}
	return false
}

// translateError traduce errores del driver a errores de dominio y envuelve el resto con op.
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	if isConflict(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrConcurrencyConflict, op, err)
	}
	if pgErr := pgError(err); pgErr != nil {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrReferentialIntegrity, pgErr.ConstraintName)
		case codeCheckViolation:
			if pgErr.ConstraintName == stockNonNegativeConstraint {
				return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, op)
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, pgErr.ConstraintName)
		case codeNumericOutOfRange:
			return domain.NewFieldError(domain.ErrInvalidMovement, "quantity", "fuera del rango de NUMERIC(12,2)")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
