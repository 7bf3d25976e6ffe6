package services

import (
	"context"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/logging"
	"listing-repricer/internal/infrastructure/metrics"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCyclePause         = 5 * time.Minute
	DefaultLotProcessingDelay = 2 * time.Second
	DefaultMaxRetries         = 3
	DefaultPriceEpsilon       = 0.005

	// listingTimeout acota el trabajo de un listing aunque el scheduler se esté deteniendo
	listingTimeout = 2 * time.Minute
	saveTimeout    = 10 * time.Second
)

var (
	ErrSchedulerRunning = errors.New("scheduler already running")
	errCatalogNoPrice   = errors.New("catalog price unavailable")
)

// SchedulerConfig controla la cadencia del loop y los reintentos de catálogo
type SchedulerConfig struct {
	CyclePause         time.Duration
	LotProcessingDelay time.Duration
	MaxRetries         int
	PriceEpsilon       float64
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.CyclePause <= 0 {
		c.CyclePause = DefaultCyclePause
	}
	if c.LotProcessingDelay < 0 {
		c.LotProcessingDelay = 0
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.PriceEpsilon <= 0 {
		c.PriceEpsilon = DefaultPriceEpsilon
	}
	return c
}

// CacheSweeper es cualquier cache que se limpia al final de cada ciclo
type CacheSweeper interface {
	ClearExpired() int
}

// SchedulerStatus es el estado expuesto por la API de admin
type SchedulerStatus struct {
	Running       bool                     `json:"running"`
	Listings      entities.ListingStats    `json:"listings"`
	Cycles        int                      `json:"cycles"`
	LastCycleAt   *time.Time               `json:"last_cycle_at,omitempty"`
	LastCycleTook string                   `json:"last_cycle_took,omitempty"`
	LastSummary   *entities.RepriceSummary `json:"last_summary,omitempty"`
	CyclePause    string                   `json:"cycle_pause"`
}

// SchedulerOption configura dependencias opcionales
type SchedulerOption func(*ListingScheduler)

// WithSchedulerClock reemplaza el reloj (tests)
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *ListingScheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPersistence guarda el snapshot al final de cada ciclo con actividad
func WithPersistence(p interfaces.Persistence) SchedulerOption {
	return func(s *ListingScheduler) { s.persistence = p }
}

// WithEventPublisher envía cada RepriceResult al canal de estado
func WithEventPublisher(p interfaces.EventPublisher) SchedulerOption {
	return func(s *ListingScheduler) { s.events = p }
}

// WithCacheSweepers registra caches a limpiar al final de cada ciclo
func WithCacheSweepers(sweepers ...CacheSweeper) SchedulerOption {
	return func(s *ListingScheduler) { s.sweepers = append(s.sweepers, sweepers...) }
}

// ListingScheduler decide cuándo repricear cada listing y ejecuta el pipeline
// catálogo -> cálculo -> escritura en la cuenta.
type ListingScheduler struct {
	cfg         SchedulerConfig
	listings    interfaces.ListingStore
	settings    interfaces.SettingsStore
	catalog     interfaces.CatalogPriceProvider
	calculator  *PriceCalculator
	account     interfaces.AccountClient
	persistence interfaces.Persistence
	events      interfaces.EventPublisher
	sweepers    []CacheSweeper
	now         func() time.Time

	// un mismo listing no se procesa dos veces en paralelo (loop vs. reprice manual)
	inflight singleflight.Group

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	done        chan struct{}
	cycles      int
	lastCycleAt time.Time
	lastTook    time.Duration
	lastSummary *entities.RepriceSummary
}

func NewListingScheduler(
	cfg SchedulerConfig,
	listings interfaces.ListingStore,
	settings interfaces.SettingsStore,
	catalog interfaces.CatalogPriceProvider,
	calculator *PriceCalculator,
	account interfaces.AccountClient,
	opts ...SchedulerOption,
) *ListingScheduler {
	s := &ListingScheduler{
		cfg:        cfg.withDefaults(),
		listings:   listings,
		settings:   settings,
		catalog:    catalog,
		calculator: calculator,
		account:    account,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start lanza el loop en background. El primer ciclo corre inmediatamente.
func (s *ListingScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(loopCtx, s.done)

	logging.Info(ctx, "Listing scheduler started", logging.Fields{
		"cycle_pause":          s.cfg.CyclePause.String(),
		"lot_processing_delay": s.cfg.LotProcessingDelay.String(),
		"max_retries":          s.cfg.MaxRetries,
	})
	return nil
}

// Stop detiene el loop, espera a que termine el listing en curso y guarda el estado
func (s *ListingScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		// el loop ya está cancelado y limpia running al salir
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}

	saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancelSave()
	s.saveState(saveCtx)

	logging.Info(ctx, "Listing scheduler stopped", nil)
	return nil
}

func (s *ListingScheduler) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.running = false
			s.cancel = nil
		}
		s.mu.Unlock()
		close(done)
	}()

	for {
		s.RunCycle(ctx)

		timer := time.NewTimer(s.cfg.CyclePause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// RunCycle procesa los listings habilitados cuyo intervalo de rechequeo venció
func (s *ListingScheduler) RunCycle(ctx context.Context) entities.RepriceSummary {
	ctx = logging.WithRequestID(ctx, logging.GenerateCycleID())
	start := time.Now()
	settings := s.settings.Get()

	var summary entities.RepriceSummary
	for _, listing := range s.listings.List() {
		if ctx.Err() != nil {
			break
		}
		if !listing.Enabled || !s.isDue(listing.ID, settings.RecheckInterval) {
			continue
		}

		if summary.Total > 0 && !sleepCtx(ctx, s.cfg.LotProcessingDelay) {
			break
		}

		s.listings.MarkChecked(listing.ID, s.now())
		summary.Add(s.repriceGuarded(ctx, listing.ID))
	}

	s.sweepCaches(ctx)
	if summary.Total > 0 {
		s.saveState(context.WithoutCancel(ctx))
	}

	took := time.Since(start)
	s.recordCycle(summary, took)

	result := "idle"
	if summary.Total > 0 {
		result = "processed"
		logging.Info(ctx, "Reprice cycle completed", logging.Fields{
			"total":               summary.Total,
			"updated":             summary.Updated,
			"failed":              summary.Failed,
			logging.FieldDuration: float64(took.Milliseconds()),
		})
	}
	if ctx.Err() != nil {
		result = "interrupted"
	}
	metrics.RecordSchedulerCycle(result, took.Seconds())

	return summary
}

// RepriceNow reprecia un listing puntual; rechaza listings desconocidos o deshabilitados
func (s *ListingScheduler) RepriceNow(ctx context.Context, id string) (entities.RepriceResult, error) {
	listing, ok := s.listings.Get(id)
	if !ok {
		return entities.RepriceResult{}, fmt.Errorf("%w: %s", entities.ErrListingNotFound, id)
	}
	if !listing.Enabled {
		return entities.RepriceResult{}, fmt.Errorf("%w: %s", entities.ErrListingDisabled, id)
	}

	s.listings.MarkChecked(id, s.now())
	result := s.repriceGuarded(ctx, id)
	s.saveState(context.WithoutCancel(ctx))
	return result, nil
}

// RepriceAll reprecia todos los listings habilitados sin mirar el intervalo
func (s *ListingScheduler) RepriceAll(ctx context.Context) entities.RepriceSummary {
	var summary entities.RepriceSummary
	for _, listing := range s.listings.List() {
		if ctx.Err() != nil {
			break
		}
		if !listing.Enabled {
			continue
		}
		if summary.Total > 0 && !sleepCtx(ctx, s.cfg.LotProcessingDelay) {
			break
		}

		s.listings.MarkChecked(listing.ID, s.now())
		summary.Add(s.repriceGuarded(ctx, listing.ID))
	}

	s.saveState(context.WithoutCancel(ctx))

	logging.Info(ctx, "Manual reprice of all listings completed", logging.Fields{
		"total":   summary.Total,
		"updated": summary.Updated,
		"failed":  summary.Failed,
	})
	return summary
}

// Status retorna el estado del scheduler y de los listings
func (s *ListingScheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SchedulerStatus{
		Running:    s.running,
		Listings:   entities.ComputeListingStats(s.listings.List()),
		Cycles:     s.cycles,
		CyclePause: s.cfg.CyclePause.String(),
	}
	if !s.lastCycleAt.IsZero() {
		at := s.lastCycleAt
		status.LastCycleAt = &at
		status.LastCycleTook = s.lastTook.String()
	}
	if s.lastSummary != nil {
		summary := *s.lastSummary
		summary.Results = nil
		status.LastSummary = &summary
	}
	return status
}

func (s *ListingScheduler) isDue(id string, interval time.Duration) bool {
	return s.now().Sub(s.listings.LastCheck(id)) >= interval
}

// repriceGuarded aísla fallas: un panic en un listing no corta el ciclo
func (s *ListingScheduler) repriceGuarded(ctx context.Context, id string) (result entities.RepriceResult) {
	ctx = logging.WithListingID(ctx, id)

	defer func() {
		if r := recover(); r != nil {
			result = entities.RepriceResult{
				ListingID: id,
				Outcome:   entities.OutcomeCalcFailed,
				Reason:    fmt.Sprintf("panic: %v", r),
				Timestamp: s.now(),
			}
			logging.Error(ctx, "Recovered panic while repricing listing", logging.Fields{
				logging.FieldListingID: id,
				"panic":                fmt.Sprint(r),
			})
			s.report(ctx, result)
		}
	}()

	// el listing en curso termina aunque el scheduler se detenga
	workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listingTimeout)
	defer cancel()

	value, _, _ := s.inflight.Do(id, func() (interface{}, error) {
		res := s.reprice(workCtx, id)
		s.report(ctx, res)
		return res, nil
	})
	return value.(entities.RepriceResult)
}

// reprice ejecuta el pipeline completo de un listing
func (s *ListingScheduler) reprice(ctx context.Context, id string) entities.RepriceResult {
	listing, ok := s.listings.Get(id)
	if !ok {
		return s.result(id, "", entities.OutcomeSkipped, "listing no longer managed")
	}
	item := listing.CatalogItem.String()

	catalogPrice, err := s.fetchCatalogPrice(ctx, listing)
	if err != nil {
		return s.result(id, item, entities.OutcomeCatalogFailed, err.Error())
	}

	calculated := s.calculator.Calculate(ctx, catalogPrice, listing.CatalogCurrency)
	if calculated <= 0 {
		res := s.result(id, item, entities.OutcomeCalcFailed, "calculated price is not positive")
		res.CatalogPrice = catalogPrice
		return res
	}
	newPrice := listing.Clamp(calculated)

	current, err := s.account.GetListing(ctx, id)
	if err != nil {
		return s.handleAccountError(ctx, listing, catalogPrice, calculated, err)
	}

	res := s.result(id, item, entities.OutcomeUnchanged, "")
	res.CatalogPrice = catalogPrice
	res.CalculatedPrice = calculated
	res.OldPrice = current.Price
	res.NewPrice = newPrice
	res.Currency = s.settings.Get().AccountCurrency

	if PriceChanged(current.Price, newPrice, s.cfg.PriceEpsilon) {
		if err := s.account.SetPrice(ctx, current, newPrice); err != nil {
			return s.handleAccountError(ctx, listing, catalogPrice, calculated, err)
		}
		res.Outcome = entities.OutcomeUpdated
	} else {
		res.Reason = "price difference below epsilon"
	}

	_, err = s.listings.Update(id, func(l *entities.Listing) error {
		l.RecordApplied(catalogPrice, newPrice, s.now())
		return nil
	})
	if err != nil {
		// removido en paralelo; el precio ya quedó escrito
		logging.Pricing().Warn(ctx, "Listing disappeared before recording applied price", logging.Fields{
			logging.FieldListingID: id,
			logging.FieldError:     err.Error(),
		})
	}

	return res
}

// fetchCatalogPrice reintenta con delay fijo hasta obtener un precio estrictamente positivo
func (s *ListingScheduler) fetchCatalogPrice(ctx context.Context, listing *entities.Listing) (float64, error) {
	var price float64

	err := retry.Do(
		func() error {
			p, ok := s.catalog.GetPrice(ctx, listing.CatalogItem, listing.CatalogCurrency)
			if !ok || p <= 0 {
				return errCatalogNoPrice
			}
			price = p
			return nil
		},
		retry.Attempts(uint(s.cfg.MaxRetries)),
		retry.Delay(s.cfg.LotProcessingDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logging.Pricing().Debug(ctx, "Retrying catalog price", logging.Fields{
				logging.FieldListingID:   listing.ID,
				logging.FieldCatalogItem: listing.CatalogItem.String(),
				logging.FieldAttempt:     n + 1,
			})
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("no positive catalog price after %d attempts: %w", s.cfg.MaxRetries, err)
	}
	return price, nil
}

func (s *ListingScheduler) handleAccountError(ctx context.Context, listing *entities.Listing, catalogPrice, calculated float64, err error) entities.RepriceResult {
	item := listing.CatalogItem.String()

	if errors.Is(err, entities.ErrListingGone) {
		removed := s.listings.Remove(listing.ID)
		if removed {
			logging.Pricing().ListingRemoved(ctx, listing.ID, "account reports listing no longer exists")
		}
		res := s.result(listing.ID, item, entities.OutcomeListingRemoved, "listing not found in account")
		res.CatalogPrice = catalogPrice
		return res
	}

	res := s.result(listing.ID, item, entities.OutcomeWriteFailed, err.Error())
	res.CatalogPrice = catalogPrice
	res.CalculatedPrice = calculated
	return res
}

func (s *ListingScheduler) result(id, item string, outcome entities.RepriceOutcome, reason string) entities.RepriceResult {
	return entities.RepriceResult{
		ListingID:   id,
		CatalogItem: item,
		Outcome:     outcome,
		Reason:      reason,
		Timestamp:   s.now(),
	}
}

// report publica el resultado en logs, métricas y eventos
func (s *ListingScheduler) report(ctx context.Context, res entities.RepriceResult) {
	metrics.RecordRepriceOutcome(string(res.Outcome))

	fields := logging.NewFieldBuilder().
		WithListing(res.ListingID, res.CatalogItem).
		WithPricing(res.CatalogPrice, res.CalculatedPrice, res.Currency).
		Build()
	if res.Outcome == entities.OutcomeUpdated || res.Outcome == entities.OutcomeUnchanged {
		fields[logging.FieldOldPrice] = res.OldPrice
		fields[logging.FieldNewPrice] = res.NewPrice
	}
	logging.Pricing().RepriceOutcome(ctx, res.ListingID, string(res.Outcome), res.Reason, fields)

	if s.events != nil {
		if err := s.events.Publish(ctx, res); err != nil {
			logging.Pricing().Debug(ctx, "Reprice event not fully delivered", logging.Fields{
				logging.FieldError: err.Error(),
			})
		}
	}
}

func (s *ListingScheduler) sweepCaches(ctx context.Context) {
	removed := 0
	for _, sweeper := range s.sweepers {
		removed += sweeper.ClearExpired()
	}
	if removed > 0 {
		logging.Cache().Cleared(ctx, "expired", removed)
	}
}

// saveState persiste listings y settings; un error se loguea y no corta el loop
func (s *ListingScheduler) saveState(ctx context.Context) {
	if s.persistence == nil {
		return
	}

	snapshot := buildSnapshot(s.listings, s.settings, s.now())

	saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	if err := s.persistence.Save(saveCtx, snapshot); err != nil {
		logging.ErrorWithError(ctx, "Failed to persist scheduler state", err, logging.Fields{
			"listings": len(snapshot.Listings),
		})
	}
}

func (s *ListingScheduler) recordCycle(summary entities.RepriceSummary, took time.Duration) {
	stats := entities.ComputeListingStats(s.listings.List())
	metrics.UpdateListingCounts(stats.Total, stats.Active, stats.WithPrices)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
	s.lastCycleAt = s.now()
	s.lastTook = took
	if summary.Total > 0 {
		copied := summary
		s.lastSummary = &copied
	}
}

// sleepCtx espera d o hasta que se cancele ctx; retorna false si se canceló
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
