package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shiva/chauffeur/internal/model"
	"github.com/shiva/chauffeur/pkg/cache"
)

// PricingRepository loads pricing reference data from PostgreSQL.
//
// Redis, when configured, sits in front of the database as a read-through
// cache of the whole reference set and carries invalidation messages
// between instances.
type PricingRepository struct {
	pool    *pgxpool.Pool
	redis   *redis.Client
	ttl     time.Duration
	channel string
	log     *zap.Logger
}

// NewPricingRepository creates a new pricing repository. rdb may be nil.
func NewPricingRepository(pool *pgxpool.Pool, rdb *redis.Client, ttl time.Duration, channel string, log *zap.Logger) *PricingRepository {
	return &PricingRepository{
		pool:    pool,
		redis:   rdb,
		ttl:     ttl,
		channel: channel,
		log:     log.Named("repository"),
	}
}

// ─── Redis-backed fast path ─────────────────────────────────

const referenceCacheKey = "pricing:refdata"

// LoadReferenceData returns the full reference set.
//
// Strategy:
//  1. Try the Redis cache first.
//  2. On miss (or Redis error), query PostgreSQL, then cache the result.
func (r *PricingRepository) LoadReferenceData(ctx context.Context) (*model.ReferenceData, error) {
	if r.redis != nil {
		raw, err := r.redis.Get(ctx, referenceCacheKey).Bytes()
		switch {
		case err == nil:
			var data model.ReferenceData
			if err := json.Unmarshal(raw, &data); err == nil {
				r.log.Debug("reference data cache hit")
				return &data, nil
			}
			r.log.Warn("reference data cache entry unreadable, reloading", zap.Error(err))
		case !errors.Is(err, redis.Nil):
			r.log.Warn("reference data cache unavailable", zap.Error(err))
		}
	}

	// ── Slow path: PostgreSQL ───────────────────────────
	data, err := r.queryReferenceData(ctx)
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if raw, err := json.Marshal(data); err == nil {
			// Fire-and-forget; a failed write only costs the next load a query.
			if err := r.redis.Set(ctx, referenceCacheKey, raw, r.ttl).Err(); err != nil {
				r.log.Warn("reference data cache write failed", zap.Error(err))
			}
		}
	}
	return data, nil
}

// InvalidateReferenceCache drops the cached reference set and tells other
// instances to reload. The message payload is origin.
func (r *PricingRepository) InvalidateReferenceCache(ctx context.Context, origin string) error {
	if r.redis == nil {
		return nil
	}
	if err := r.redis.Del(ctx, referenceCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate reference cache: %w", err)
	}
	if r.channel == "" {
		return nil
	}
	return cache.Publish(ctx, r.redis, r.channel, origin)
}

// Invalidations streams invalidation messages published by any instance.
// A repository without Redis returns a nil channel, which never delivers.
func (r *PricingRepository) Invalidations(ctx context.Context) (<-chan string, error) {
	if r.redis == nil || r.channel == "" {
		return nil, nil
	}
	return cache.Subscribe(ctx, r.redis, r.channel)
}

// ─── PostgreSQL ─────────────────────────────────────────────

// Money columns are NUMERIC(10,2); they are read as integer cents.
const (
	queryZones = `
		SELECT id, code, name, description, priority
		FROM zones
		ORDER BY id`

	queryZoneLocations = `
		SELECT z.code, zl.value, zl.type
		FROM zone_locations zl
		JOIN zones z ON z.id = zl.zone_id
		ORDER BY zl.id`

	queryZoneFares = `
		SELECT fz.code, tz.code,
		       ROUND(zp.price * 100)::bigint,
		       zp.distance_based,
		       ROUND(zp.base_price * 100)::bigint,
		       ROUND(zp.price_per_km * 100)::bigint
		FROM zone_prices zp
		JOIN zones fz ON fz.id = zp.from_zone_id
		JOIN zones tz ON tz.id = zp.to_zone_id
		ORDER BY zp.id`

	queryRoutes = `
		SELECT id, departure, arrival, ROUND(price * 100)::bigint
		FROM predefined_routes
		ORDER BY id`

	queryTimeBasedFees = `
		SELECT name,
		       to_char(start_time, 'HH24:MI'),
		       to_char(end_time, 'HH24:MI'),
		       ROUND(fee * 100)::bigint,
		       is_active
		FROM time_based_fees
		ORDER BY id`

	queryRates = `
		SELECT ROUND(excess_baggage_fee * 100)::bigint,
		       ROUND(stop_fee * 100)::bigint,
		       ROUND(weekend_fee * 100)::bigint,
		       ROUND(holiday_fee * 100)::bigint,
		       ROUND(price_per_km * 100)::bigint,
		       ROUND(base_distance_price * 100)::bigint
		FROM rates
		ORDER BY id
		LIMIT 1`
)

// queryReferenceData reads every reference table inside one read-only
// transaction so the set is consistent.
func (r *PricingRepository) queryReferenceData(ctx context.Context) (*model.ReferenceData, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("begin reference data tx: %w", err)
	}
	defer tx.Rollback(ctx)

	data := &model.ReferenceData{}

	data.Zones, err = collect(ctx, tx, queryZones, func(row pgx.CollectableRow) (model.Zone, error) {
		var z model.Zone
		err := row.Scan(&z.ID, &z.Code, &z.Name, &z.Description, &z.Priority)
		return z, err
	})
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}

	data.ZoneLocations, err = collect(ctx, tx, queryZoneLocations, func(row pgx.CollectableRow) (model.ZoneLocation, error) {
		var l model.ZoneLocation
		err := row.Scan(&l.ZoneCode, &l.Value, &l.Type)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("query zone locations: %w", err)
	}

	data.ZoneFares, err = collect(ctx, tx, queryZoneFares, func(row pgx.CollectableRow) (model.ZoneFare, error) {
		var f model.ZoneFare
		err := row.Scan(&f.FromZone, &f.ToZone, &f.Price, &f.DistanceBased, &f.BasePrice, &f.PricePerKm)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("query zone prices: %w", err)
	}

	data.Routes, err = collect(ctx, tx, queryRoutes, func(row pgx.CollectableRow) (model.PredefinedRoute, error) {
		var p model.PredefinedRoute
		err := row.Scan(&p.ID, &p.Departure, &p.Arrival, &p.Price)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("query predefined routes: %w", err)
	}

	data.TimeBasedFees, err = collect(ctx, tx, queryTimeBasedFees, func(row pgx.CollectableRow) (model.TimeBasedFee, error) {
		var f model.TimeBasedFee
		err := row.Scan(&f.Name, &f.Start, &f.End, &f.Fee, &f.Active)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("query time based fees: %w", err)
	}

	var rates model.RateConstants
	err = tx.QueryRow(ctx, queryRates).Scan(
		&rates.ExcessBaggageFee, &rates.StopFee, &rates.WeekendFee,
		&rates.HolidayFee, &rates.PricePerKm, &rates.BaseDistancePrice,
	)
	switch {
	case err == nil:
		data.Rates = &rates
	case errors.Is(err, pgx.ErrNoRows):
		r.log.Info("no rates record, engine defaults apply")
	default:
		return nil, fmt.Errorf("query rates: %w", err)
	}

	r.log.Info("reference data loaded from postgres",
		zap.Int("zones", len(data.Zones)),
		zap.Int("zone_locations", len(data.ZoneLocations)),
		zap.Int("zone_fares", len(data.ZoneFares)),
		zap.Int("predefined_routes", len(data.Routes)),
		zap.Int("time_based_fees", len(data.TimeBasedFees)),
	)
	return data, nil
}

func collect[T any](ctx context.Context, tx pgx.Tx, query string, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}
