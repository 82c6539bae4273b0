// Package sqlite adaptador embebido del libro de inventario sobre SQLite (modernc, sin cgo).
//
// SQLite no tiene bloqueos de fila: las transacciones del libro abren con BEGIN IMMEDIATE
// (un solo escritor a la vez, el resto espera hasta busy_timeout) y los saldos se escriben con
// compare-and-swap sobre version. Cantidades en centésimas (INTEGER) y fechas en nanosegundos Unix.
package sqlite

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// BusyTimeoutMS espera máxima por el bloqueo de escritura antes de SQLITE_BUSY.
const BusyTimeoutMS = 5000

// DSN arma la cadena de conexión: transacciones inmediatas, WAL, llaves foráneas activas.
func DSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", BusyTimeoutMS))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Open abre la base en path y verifica la conexión.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return db, nil
}

// Querier lo que tienen en común *sqlx.DB y *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
}
