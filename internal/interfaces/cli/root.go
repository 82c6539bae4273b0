// Package cli comandos de consola para consultar el inventario y mantener la base.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/domain/repository"
	rules "github.com/jhoicas/inventrack/internal/domain/inventory"
)

const dateLayout = "2006-01-02 15:04"

// Deps lo que necesitan los comandos una vez abierta la base.
type Deps struct {
	Ledger   *inventory.Ledger
	Migrate  func(ctx context.Context) ([]string, error)
	Location *time.Location
}

// Opener abre la base y devuelve las dependencias y la función que la cierra.
// Se invoca solo cuando un comando la necesita, así --help no toca la base.
type Opener func(ctx context.Context) (*Deps, func(), error)

// NewRootCommand construye el comando raíz "inventrack" con sus subcomandos.
func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "inventrack",
		Short:         "Consultas y mantenimiento del libro de inventario",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMovementsCommand(open),
		newProductsCommand(open),
		newSummaryCommand(open),
		newLowStockCommand(open),
		newReconcileCommand(open),
		newMigrateCommand(open),
	)
	return root
}

// withDeps abre la base, ejecuta fn y la cierra.
func withDeps(cmd *cobra.Command, open Opener, fn func(ctx context.Context, d *Deps, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	if d.Location == nil {
		d.Location = time.UTC
	}
	return fn(ctx, d, cmd.OutOrStdout())
}

func newMovementsCommand(open Opener) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "movements",
		Short: "Lista los últimos movimientos de inventario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, open, func(ctx context.Context, d *Deps, out io.Writer) error {
				list, err := d.Ledger.MovementHistory(ctx, repository.MovementFilter{Limit: limit})
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(out, "No hay movimientos registrados.")
					return nil
				}
				fmt.Fprintf(out, "Últimos %d movimientos:\n\n", len(list))
				for _, m := range list {
					warehouse := label(m.WarehouseCode, m.WarehouseName)
					if m.DestinationWarehouseID != "" {
						warehouse += " -> " + label(m.DestinationCode, m.DestinationName)
					}
					fmt.Fprintf(out, "[%s] %s | Bodega: %s | Producto: %s - %s | Tipo: %s | Cantidad: %s\n",
						m.ID, m.CreatedAt.In(d.Location).Format(dateLayout), warehouse,
						m.SKU, m.ProductName, m.Kind.Label(), m.Quantity.StringFixed(rules.Scale))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "número máximo de movimientos a mostrar")
	return cmd
}

func newProductsCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "Lista los productos con su stock total en todas las bodegas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, open, func(ctx context.Context, d *Deps, out io.Writer) error {
				totals, err := d.Ledger.ProductTotals(ctx)
				if err != nil {
					return err
				}
				if len(totals) == 0 {
					fmt.Fprintln(out, "No hay productos registrados.")
					return nil
				}
				fmt.Fprint(out, "Listado de productos:\n\n")
				for _, t := range totals {
					fmt.Fprintf(out, "- %s | %s | Stock total: %s %s\n", t.SKU, t.Name, t.Total.StringFixed(rules.Scale), t.Unit)
				}
				return nil
			})
		},
	}
}

func newSummaryCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Muestra un resumen de existencias por producto y por bodega",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, open, func(ctx context.Context, d *Deps, out io.Writer) error {
				s, err := d.Ledger.StockSummary(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "== Resumen de existencias ==")
				fmt.Fprintln(out, "\nTotales por producto:")
				if len(s.Totals) == 0 {
					fmt.Fprintln(out, "  (sin datos de stock)")
				}
				for _, t := range s.Totals {
					fmt.Fprintf(out, "  - %s (%s): %s\n", t.Name, t.SKU, t.Total.StringFixed(rules.Scale))
				}
				fmt.Fprintln(out, "\nDetalle por bodega:")
				if len(s.Details) == 0 {
					fmt.Fprintln(out, "  (sin datos de stock)")
				}
				for _, b := range s.Details {
					fmt.Fprintf(out, "  - Bodega: %s | Producto: %s - %s | Cantidad: %s\n",
						label(b.WarehouseCode, b.WarehouseName), b.SKU, b.ProductName, b.Quantity.StringFixed(rules.Scale))
				}
				return nil
			})
		},
	}
}

func newLowStockCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "low-stock",
		Short: "Lista los productos por debajo de su stock mínimo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, open, func(ctx context.Context, d *Deps, out io.Writer) error {
				list, err := d.Ledger.LowStockReport(ctx)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(out, "Ningún producto está por debajo de su mínimo.")
					return nil
				}
				for _, t := range list {
					fmt.Fprintf(out, "- %s | %s | Total: %s | Mínimo: %d | Faltan: %s\n",
						t.SKU, t.Name, t.Total.StringFixed(rules.Scale), t.MinStock, t.Deficit().StringFixed(rules.Scale))
				}
				return nil
			})
		},
	}
}

func newReconcileCommand(open Opener) *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reproduce el registro de movimientos y lo compara con los saldos guardados",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, open, func(ctx context.Context, d *Deps, out io.Writer) error {
				report, err := d.Ledger.Reconcile(ctx, fix)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pares revisados: %d, diferencias: %d\n", report.Checked, len(report.Drifts))
				for _, dr := range report.Drifts {
					state := "pendiente"
					if dr.Fixed {
						state = "corregido"
					}
					fmt.Fprintf(out, "- bodega %s producto %s: esperado %s, guardado %s (%s)\n",
						dr.Key.WarehouseID, dr.Key.ProductID,
						dr.Expected.StringFixed(rules.Scale), dr.Actual.StringFixed(rules.Scale), state)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "reescribe los saldos que no coinciden")
	return cmd
}

func newMigrateCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, open, func(ctx context.Context, d *Deps, out io.Writer) error {
				applied, err := d.Migrate(ctx)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(out, "La base ya está al día.")
					return nil
				}
				for _, v := range applied {
					fmt.Fprintf(out, "aplicada %s\n", v)
				}
				return nil
			})
		},
	}
}

func label(code, name string) string {
	if code == "" {
		return name
	}
	return code + " - " + name
}
