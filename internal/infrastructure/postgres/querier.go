package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier lo que tienen en común *pgxpool.Pool y pgx.Tx. Los repositorios reciben uno u otro.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// validID indica si id es un UUID; las columnas id son de tipo UUID y un texto arbitrario
// produciría un error de sintaxis en lugar de "no encontrado".
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
