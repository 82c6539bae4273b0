package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	rules "github.com/jhoicas/inventrack/internal/domain/inventory"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 20 * time.Millisecond
	maxReferenceLen     = 50
	maxActorLen         = 150
)

// Ledger es el libro de inventario: dueño de los saldos y del registro de movimientos.
// Toda mutación de saldos pasa por aquí, en una transacción con bloqueo de fila por par
// (bodega, producto) y adquisición de bloqueos en orden determinista.
type Ledger struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	movementRepo  repository.MovementRepository
	stockRepo     repository.StockRepository

	notifier     ChangeNotifier
	log          zerolog.Logger
	now          func() time.Time
	maxRetries   int
	retryBackoff time.Duration
}

// Option configura el Ledger.
type Option func(*Ledger)

// WithLogger inyecta el logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log.With().Str("component", "ledger").Logger() }
}

// WithRetry fija cuántas veces se reintenta un conflicto de concurrencia y la espera base entre intentos.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(l *Ledger) {
		if maxRetries >= 0 {
			l.maxRetries = maxRetries
		}
		if backoff >= 0 {
			l.retryBackoff = backoff
		}
	}
}

// WithClock reemplaza el reloj que asigna la fecha de los movimientos.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithNotifier registra quién recibe aviso de cambios en saldos.
func WithNotifier(n ChangeNotifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

// NewLedger construye el libro de inventario. Los repositorios se usan para lecturas fuera de
// transacción; las escrituras usan los que entrega txRunner.
func NewLedger(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	movementRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	opts ...Option,
) *Ledger {
	l := &Ledger{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		movementRepo:  movementRepo,
		stockRepo:     stockRepo,
		log:           zerolog.Nop(),
		now:           time.Now,
		maxRetries:    defaultMaxRetries,
		retryBackoff:  defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MovementInput entrada para registrar un movimiento.
// IN/OUT: ProductID, WarehouseID, Kind, Quantity.
// TR: además DestinationWarehouseID (distinta del origen).
type MovementInput struct {
	ProductID              string
	WarehouseID            string
	DestinationWarehouseID string
	Kind                   entity.MovementKind
	Quantity               decimal.Decimal
	Reference              string
	Notes                  string
	Actor                  string
}

// RecordMovement valida la entrada, abre una transacción, bloquea los saldos afectados
// (creándolos en cero si no existen), aplica el efecto según el tipo, guarda el movimiento y los
// saldos, y hace Commit. Si algo falla no queda ningún efecto.
//
// Errores: domain.ErrInvalidMovement (entrada), domain.ErrInsufficientStock (saldo no alcanza),
// domain.ErrConcurrencyConflict (agotados los reintentos o contexto expirado).
func (l *Ledger) RecordMovement(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	in.Reference = strings.TrimSpace(in.Reference)
	in.Actor = strings.TrimSpace(in.Actor)
	if err := validateMovementInput(in); err != nil {
		l.log.Debug().Err(err).Msg("movimiento rechazado")
		return nil, err
	}
	if err := l.checkReferences(ctx, in); err != nil {
		l.log.Debug().Err(err).Msg("movimiento rechazado")
		return nil, err
	}

	var mov *entity.Movement
	err := l.withRetry(ctx, "record_movement", func() error {
		m, err := l.recordOnce(ctx, in)
		if err != nil {
			return err
		}
		mov = m
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			l.log.Debug().Err(err).Str("kind", in.Kind.String()).Msg("movimiento rechazado")
		}
		return nil, err
	}

	l.notify(ctx)
	l.log.Info().
		Str("movement_id", mov.ID).
		Str("kind", mov.Kind.String()).
		Str("product_id", mov.ProductID).
		Str("warehouse_id", mov.WarehouseID).
		Str("destination_warehouse_id", mov.DestinationWarehouseID).
		Str("quantity", mov.Quantity.StringFixed(rules.Scale)).
		Str("actor", mov.CreatedBy).
		Msg("movimiento registrado")
	return mov, nil
}

func (l *Ledger) recordOnce(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generar id de movimiento: %w", err)
	}
	now := l.now().UTC()
	mov := &entity.Movement{
		ID:          id.String(),
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Kind:        in.Kind,
		Quantity:    in.Quantity,
		Reference:   in.Reference,
		Notes:       in.Notes,
		CreatedBy:   in.Actor,
		CreatedAt:   now,
	}
	if in.Kind == entity.MovementTransfer {
		mov.DestinationWarehouseID = in.DestinationWarehouseID
	}

	err = l.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error {
		// 1-2. Bloquea los saldos en orden y calcula los nuevos valores (guarda de no negatividad)
		balances, err := lockAndApply(ctx, stockRepo, rules.Effects(mov), now)
		if err != nil {
			return err
		}
		// 3. Guarda el movimiento
		if err := movRepo.Create(ctx, mov); err != nil {
			return err
		}
		// 4. Guarda los saldos
		return saveBalances(ctx, stockRepo, balances)
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// lockAndApply bloquea cada par afectado en el orden de rules.LockOrder y aplica los efectos.
// Devuelve los saldos modificados (aún sin guardar) en orden de bloqueo.
func lockAndApply(
	ctx context.Context,
	stockRepo repository.StockRepository,
	effects []rules.Effect,
	now time.Time,
) ([]*entity.StockBalance, error) {
	order := rules.LockOrder(effects)
	locked := make(map[entity.StockKey]*entity.StockBalance, len(order))
	for _, key := range order {
		bal, err := stockRepo.GetForUpdate(ctx, key.WarehouseID, key.ProductID, now)
		if err != nil {
			return nil, err
		}
		locked[key] = bal
	}
	for _, e := range effects {
		bal := locked[e.Key]
		next, err := rules.Apply(bal, e.Delta)
		if err != nil {
			return nil, err
		}
		bal.Quantity = next
		bal.UpdatedAt = now
	}
	out := make([]*entity.StockBalance, 0, len(order))
	for _, key := range order {
		out = append(out, locked[key])
	}
	return out, nil
}

func saveBalances(ctx context.Context, stockRepo repository.StockRepository, balances []*entity.StockBalance) error {
	for _, bal := range balances {
		if err := stockRepo.Save(ctx, bal); err != nil {
			return err
		}
	}
	return nil
}

// withRetry reintenta fn mientras devuelva domain.ErrConcurrencyConflict, hasta maxRetries veces
// y nunca después de que el contexto del llamador terminó.
func (l *Ledger) withRetry(ctx context.Context, op string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		if attempt >= l.maxRetries || ctx.Err() != nil {
			l.log.Warn().Err(err).Str("op", op).Int("attempts", attempt+1).Msg("conflicto de concurrencia sin resolver")
			return err
		}
		l.log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("conflicto de concurrencia, reintentando")
		timer := time.NewTimer(l.retryBackoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", domain.ErrConcurrencyConflict, ctx.Err())
		case <-timer.C:
		}
	}
}

func (l *Ledger) notify(ctx context.Context) {
	if l.notifier != nil {
		l.notifier.BalancesChanged(ctx)
	}
}

func invalidMovement(field, reason string) error {
	return domain.NewFieldError(domain.ErrInvalidMovement, field, reason)
}

func validateMovementInput(in MovementInput) error {
	if in.ProductID == "" {
		return invalidMovement("product_id", "es requerido")
	}
	if in.Kind.IsZero() {
		return invalidMovement("type", "es requerido (IN, OUT o TR)")
	}
	if in.WarehouseID == "" {
		return invalidMovement("warehouse_id", "es requerido")
	}
	if !rules.ValidQuantity(in.Quantity) {
		return invalidMovement("quantity", "debe ser mayor que cero, con a lo sumo 2 decimales")
	}
	switch in.Kind {
	case entity.MovementTransfer:
		if in.DestinationWarehouseID == "" {
			return invalidMovement("destination_warehouse_id", "es requerido en traslados")
		}
		if in.DestinationWarehouseID == in.WarehouseID {
			return invalidMovement("destination_warehouse_id", "debe ser distinta de la bodega de origen")
		}
	case entity.MovementInbound, entity.MovementOutbound:
		if in.DestinationWarehouseID != "" {
			return invalidMovement("destination_warehouse_id", "solo aplica a traslados")
		}
	}
	if utf8.RuneCountInString(in.Reference) > maxReferenceLen {
		return invalidMovement("reference", fmt.Sprintf("admite máximo %d caracteres", maxReferenceLen))
	}
	if utf8.RuneCountInString(in.Actor) > maxActorLen {
		return invalidMovement("actor", fmt.Sprintf("admite máximo %d caracteres", maxActorLen))
	}
	return nil
}

// checkReferences valida que producto y bodega(s) existan. Las entradas exigen producto activo
// y bodega activa; el destino de un traslado debe estar activo. Las salidas se permiten desde
// bodegas o productos inactivos para poder vaciarlos.
func (l *Ledger) checkReferences(ctx context.Context, in MovementInput) error {
	product, err := l.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return invalidMovement("product_id", "no existe")
	}
	if in.Kind == entity.MovementInbound && !product.IsActive {
		return invalidMovement("product_id", "el producto está inactivo")
	}

	wh, err := l.warehouseRepo.GetByID(ctx, in.WarehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return invalidMovement("warehouse_id", "no existe")
	}
	if in.Kind == entity.MovementInbound && !wh.IsActive {
		return invalidMovement("warehouse_id", "la bodega está inactiva")
	}

	if in.Kind == entity.MovementTransfer {
		dst, err := l.warehouseRepo.GetByID(ctx, in.DestinationWarehouseID)
		if err != nil {
			return err
		}
		if dst == nil {
			return invalidMovement("destination_warehouse_id", "no existe")
		}
		if !dst.IsActive {
			return invalidMovement("destination_warehouse_id", "la bodega está inactiva")
		}
	}
	return nil
}
