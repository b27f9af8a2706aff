package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shiva/chauffeur/internal/model"
	"github.com/shiva/chauffeur/internal/pricing"
	"github.com/shiva/chauffeur/pkg/metrics"
)

// Errors surfaced to handlers.
var (
	ErrInvalidInput        = pricing.ErrInvalidInput
	ErrInvalidServiceArea  = pricing.ErrInvalidServiceArea
	ErrSnapshotUnavailable = pricing.ErrSnapshotUnavailable
)

// ReferenceSource supplies pricing reference data. Implemented by
// repository.PricingRepository and repository.FileRepository.
type ReferenceSource interface {
	LoadReferenceData(ctx context.Context) (*model.ReferenceData, error)
	// InvalidateReferenceCache drops shared caches and notifies peers. origin
	// is sent as the message payload so the sender can skip its own echo.
	InvalidateReferenceCache(ctx context.Context, origin string) error
	Invalidations(ctx context.Context) (<-chan string, error)
}

// ─── Service Configuration ──────────────────────────────────

// ServiceConfig holds the parameters of the pricing service.
type ServiceConfig struct {
	// UrgentWindow: a pickup closer than this (and in the future) is urgent
	// when the caller does not say.
	UrgentWindow time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultServiceConfig returns the production parameters.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{UrgentWindow: time.Hour}
}

// ─── PricingService ─────────────────────────────────────────

// PricingService prices quotes against the current reference snapshot.
//
// Snapshot lifecycle:
//  1. The first quote (or an explicit Reload at startup) loads reference
//     data from the source and publishes snapshot v1.
//  2. Reload builds a new snapshot and swaps it in; in-flight quotes keep
//     the snapshot they started with.
//  3. Invalidate drops the shared cache, notifies peers and reloads.
type PricingService struct {
	source ReferenceSource
	engine *pricing.Engine
	store  *pricing.SnapshotStore
	config ServiceConfig
	log    *zap.Logger

	// instanceID tags invalidations this service publishes.
	instanceID string

	loadMu sync.Mutex
}

// NewPricingService creates a pricing service with an empty snapshot store.
func NewPricingService(source ReferenceSource, engine *pricing.Engine, config ServiceConfig, log *zap.Logger) *PricingService {
	if config.UrgentWindow <= 0 {
		config.UrgentWindow = DefaultServiceConfig().UrgentWindow
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &PricingService{
		source: source,
		engine: engine,
		store:  pricing.NewSnapshotStore(),
		config:     config,
		log:        log.Named("pricing"),
		instanceID: uuid.NewString(),
	}
}

// InstanceID identifies this service in invalidation messages.
func (s *PricingService) InstanceID() string { return s.instanceID }

// Quote prices a request. isUrgent overrides the urgency derived from the
// pickup time; nil means derive it.
//
// Steps:
//  1. Validate the request, then get the current snapshot, loading it on
//     first use.
//  2. Derive urgency from the pickup time when not given.
//  3. Compute the breakdown and stamp it with a quote ID.
func (s *PricingService) Quote(ctx context.Context, req model.PricingRequest, isUrgent *bool) (*model.PriceBreakdown, error) {
	if err := pricing.Validate(req); err != nil {
		s.recordError(err)
		return nil, err
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	// ── Step 2: Urgency ─────────────────────────────────
	switch {
	case isUrgent != nil:
		req.IsUrgent = *isUrgent
	case req.PickupTime != nil:
		req.IsUrgent = pricing.IsUrgent(*req.PickupTime, s.config.Now(), s.config.UrgentWindow)
	}

	// ── Step 3: Compute ─────────────────────────────────
	b, err := s.engine.Compute(snap, req)
	if err != nil {
		s.recordError(err)
		s.log.Info("quote rejected",
			zap.Stringer("mode", req.Mode),
			zap.String("departure", req.DepartureAddress),
			zap.Error(err),
		)
		return nil, err
	}
	b.QuoteID = uuid.NewString()

	metrics.Quotes.WithLabelValues(b.Mode.String(), pricingTypeLabel(b)).Inc()
	s.log.Info("quote computed",
		zap.String("quote_id", b.QuoteID),
		zap.Stringer("mode", b.Mode),
		zap.String("pricing_type", pricingTypeLabel(b)),
		zap.String("departure_zone", b.DepartureZone),
		zap.String("arrival_zone", b.ArrivalZone),
		zap.Stringer("total", b.Total),
		zap.Uint64("snapshot_version", b.SnapshotVersion),
	)
	return b, nil
}

// Reload fetches reference data and publishes a new snapshot. On failure
// the previous snapshot stays in use.
func (s *PricingService) Reload(ctx context.Context) (*pricing.Snapshot, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *PricingService) reloadLocked(ctx context.Context) (*pricing.Snapshot, error) {
	data, err := s.source.LoadReferenceData(ctx)
	if err != nil {
		metrics.SnapshotReloads.WithLabelValues("error").Inc()
		s.log.Error("reference data load failed", zap.Error(err))
		return nil, fmt.Errorf("load reference data: %w", err)
	}

	snap, err := s.store.Replace(data, s.config.Now())
	if err != nil {
		metrics.SnapshotReloads.WithLabelValues("invalid").Inc()
		s.log.Error("reference data rejected", zap.Error(err))
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	metrics.SnapshotReloads.WithLabelValues("ok").Inc()
	metrics.SnapshotVersion.Set(float64(snap.Version()))
	stats := snap.Stats()
	s.log.Info("pricing snapshot published",
		zap.Uint64("version", stats.Version),
		zap.Int("zones", stats.Zones),
		zap.Int("zone_locations", stats.ZoneLocations),
		zap.Int("zone_fares", stats.ZoneFares),
		zap.Int("predefined_routes", stats.Routes),
		zap.Int("active_fee_windows", stats.FeeWindows),
		zap.Bool("rates_configured", stats.RatesConfigured),
	)
	return snap, nil
}

// Invalidate clears the shared reference cache, notifies other instances
// and reloads the local snapshot.
func (s *PricingService) Invalidate(ctx context.Context) (*pricing.Snapshot, error) {
	if err := s.source.InvalidateReferenceCache(ctx, s.instanceID); err != nil {
		s.log.Warn("reference cache invalidation failed", zap.Error(err))
		return nil, err
	}
	return s.Reload(ctx)
}

// WatchInvalidations reloads the snapshot whenever another instance
// publishes an invalidation. Messages this instance published are skipped,
// Invalidate has already reloaded. It returns once subscribed; the watcher stops
// with ctx.
func (s *PricingService) WatchInvalidations(ctx context.Context) error {
	ch, err := s.source.Invalidations(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to invalidations: %w", err)
	}
	if ch == nil {
		return nil
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					s.log.Warn("invalidation subscription closed")
					return
				}
				if msg == s.instanceID {
					continue
				}
				s.log.Info("invalidation received", zap.String("origin", msg))
				if _, err := s.Reload(ctx); err != nil && ctx.Err() == nil {
					s.log.Error("reload after invalidation failed", zap.Error(err))
				}
			}
		}
	}()
	return nil
}

// Snapshot returns the published snapshot, or nil before the first load.
func (s *PricingService) Snapshot() *pricing.Snapshot {
	return s.store.Current()
}

// Engine exposes the engine configuration for diagnostics.
func (s *PricingService) Engine() *pricing.Engine {
	return s.engine
}

// snapshot returns the current snapshot, loading it on first use.
func (s *PricingService) snapshot(ctx context.Context) (*pricing.Snapshot, error) {
	if snap := s.store.Current(); snap != nil {
		return snap, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if snap := s.store.Current(); snap != nil {
		return snap, nil
	}
	snap, err := s.reloadLocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	return snap, nil
}

func (s *PricingService) recordError(err error) {
	metrics.QuoteErrors.WithLabelValues(ErrorKind(err)).Inc()
}

// ErrorKind classifies a quote error for metrics and API bodies.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidServiceArea):
		return "invalid_service_area"
	case errors.Is(err, ErrSnapshotUnavailable):
		return "snapshot_unavailable"
	default:
		return "internal_error"
	}
}

func pricingTypeLabel(b *model.PriceBreakdown) string {
	if b.PricingType == "" {
		return "hourly"
	}
	return string(b.PricingType)
}
