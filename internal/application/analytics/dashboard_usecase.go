// Package analytics contiene el resumen de inventario que alimenta el dashboard.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"github.com/jhoicas/inventrack/internal/application/dto"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

const (
	dashboardCacheKey     = "dashboard:summary"
	dashboardRecent       = 10   // movimientos recientes en el widget
	dashboardMaxWarehouse = 1000 // tope para contar bodegas
)

// Cache almacenamiento de lecturas del dashboard (Redis en producción).
// Get devuelve false sin error cuando la clave no existe.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

// DashboardUseCase genera el resumen de existencias.
//
// Fuente de datos: repositorios de solo lectura. El resultado se guarda en caché y se
// invalida cada vez que el libro confirma un cambio de saldos (BalancesChanged).
type DashboardUseCase struct {
	stockRepo     repository.StockRepository
	movementRepo  repository.MovementRepository
	warehouseRepo repository.WarehouseRepository
	cache         Cache
	group         singleflight.Group
	log           zerolog.Logger
	now           func() time.Time
}

var _ inventory.ChangeNotifier = (*DashboardUseCase)(nil)

// NewDashboardUseCase construye el caso de uso. cache puede ser nil (sin caché).
func NewDashboardUseCase(
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
	warehouseRepo repository.WarehouseRepository,
	cache Cache,
	log zerolog.Logger,
) *DashboardUseCase {
	return &DashboardUseCase{
		stockRepo:     stockRepo,
		movementRepo:  movementRepo,
		warehouseRepo: warehouseRepo,
		cache:         cache,
		log:           log.With().Str("component", "dashboard").Logger(),
		now:           time.Now,
	}
}

// GetSummary devuelve el resumen desde caché o lo calcula.
// Las peticiones simultáneas con la caché vacía comparten un solo cálculo.
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	if uc.cache != nil {
		var cached dto.DashboardSummaryDTO
		found, err := uc.cache.Get(ctx, dashboardCacheKey, &cached)
		if err != nil {
			uc.log.Warn().Err(err).Msg("error leyendo caché, se consulta la base")
		}
		if found {
			return &cached, nil
		}
	}

	v, err, _ := uc.group.Do(dashboardCacheKey, func() (any, error) {
		summary, err := uc.build(ctx)
		if err != nil {
			return nil, err
		}
		if uc.cache != nil {
			if err := uc.cache.Set(ctx, dashboardCacheKey, summary); err != nil {
				uc.log.Warn().Err(err).Msg("no se pudo guardar el resumen en caché")
			}
		}
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.DashboardSummaryDTO), nil
}

// BalancesChanged invalida el resumen en caché.
func (uc *DashboardUseCase) BalancesChanged(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, dashboardCacheKey); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo invalidar la caché del dashboard")
	}
}

// build ejecuta las consultas en paralelo; la primera que falle cancela las demás.
func (uc *DashboardUseCase) build(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	var (
		totals     []repository.ProductTotal
		details    []repository.BalanceDetail
		low        []repository.ProductTotal
		recent     []repository.MovementDetail
		warehouses int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = uc.stockRepo.ProductTotals(gctx)
		return err
	})
	g.Go(func() (err error) {
		details, err = uc.stockRepo.ListDetails(gctx, "", "")
		return err
	})
	g.Go(func() (err error) {
		low, err = uc.stockRepo.BelowMinimum(gctx)
		return err
	})
	g.Go(func() (err error) {
		recent, err = uc.movementRepo.List(gctx, repository.MovementFilter{Limit: dashboardRecent})
		return err
	})
	g.Go(func() error {
		list, err := uc.warehouseRepo.List(gctx, dashboardMaxWarehouse, 0)
		warehouses = len(list)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	return &dto.DashboardSummaryDTO{
		ProductCount:    len(totals),
		WarehouseCount:  warehouses,
		LowStockCount:   len(low),
		Totals:          inventory.ToProductTotals(totals),
		Stocks:          inventory.ToBalanceDetails(details),
		LowStock:        inventory.ToLowStockItems(low),
		RecentMovements: inventory.ToMovementResponses(recent),
		GeneratedAt:     uc.now().UTC(),
	}, nil
}
