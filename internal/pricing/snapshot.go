// Package pricing is the fare engine: zone resolution, zone fare table,
// predefined-route matching, surcharges, hourly rates and the composer that
// assembles a PriceBreakdown.
//
// Everything here is synchronous and free of I/O. Reference data is frozen
// into an immutable Snapshot; a SnapshotStore swaps snapshots atomically so
// concurrent quotes never observe a half-loaded table.
package pricing

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/shiva/chauffeur/internal/model"
	"github.com/shiva/chauffeur/pkg/address"
)

type farePair struct {
	from, to string
}

type zoneEntry struct {
	zone      model.Zone
	locations []string // normalized, stored order
}

type routeEntry struct {
	route        model.PredefinedRoute
	dep, arr     string
	depKw, arrKw address.Keywords
}

// Snapshot is an immutable, pre-indexed copy of the reference data.
// All methods are read-only and safe for concurrent use.
type Snapshot struct {
	version  uint64
	loadedAt time.Time

	zones   []zoneEntry // priority descending
	fares   map[farePair]model.ZoneFare
	routes  []routeEntry
	windows []FeeWindow
	rates   model.RateConstants

	ratesConfigured bool
	locationCount   int
}

// NewSnapshot indexes reference data. Zone locations are normalized, route
// keywords are extracted and fee windows parsed up front so that pricing
// calls only do lookups. Inactive fee windows are dropped.
func NewSnapshot(data *model.ReferenceData, version uint64, loadedAt time.Time) (*Snapshot, error) {
	if data == nil {
		data = &model.ReferenceData{}
	}

	s := &Snapshot{
		version:  version,
		loadedAt: loadedAt,
		fares:    make(map[farePair]model.ZoneFare, len(data.ZoneFares)),
	}

	// ── Zones + locations ───────────────────────────────
	byCode := make(map[string]int, len(data.Zones))
	s.zones = make([]zoneEntry, 0, len(data.Zones))
	for _, z := range data.Zones {
		if _, dup := byCode[z.Code]; dup {
			return nil, fmt.Errorf("snapshot: duplicate zone code %q", z.Code)
		}
		byCode[z.Code] = len(s.zones)
		s.zones = append(s.zones, zoneEntry{zone: z})
	}
	for _, loc := range data.ZoneLocations {
		idx, ok := byCode[loc.ZoneCode]
		if !ok {
			continue
		}
		n := address.Normalize(loc.Value)
		if n == "" {
			continue
		}
		s.zones[idx].locations = append(s.zones[idx].locations, n)
		s.locationCount++
	}
	sort.SliceStable(s.zones, func(i, j int) bool {
		return s.zones[i].zone.Priority > s.zones[j].zone.Priority
	})

	// ── Fare table ──────────────────────────────────────
	for _, f := range data.ZoneFares {
		s.fares[farePair{f.FromZone, f.ToZone}] = f
	}

	// ── Predefined routes ───────────────────────────────
	s.routes = make([]routeEntry, 0, len(data.Routes))
	for _, r := range data.Routes {
		dep := address.Normalize(r.Departure)
		arr := address.Normalize(r.Arrival)
		s.routes = append(s.routes, routeEntry{
			route: r,
			dep:   dep,
			arr:   arr,
			depKw: address.ExtractKeywords(dep),
			arrKw: address.ExtractKeywords(arr),
		})
	}

	// ── Fee windows ─────────────────────────────────────
	for _, f := range data.TimeBasedFees {
		if !f.Active {
			continue
		}
		w, err := ParseFeeWindow(f)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		s.windows = append(s.windows, w)
	}

	// ── Rates ───────────────────────────────────────────
	s.rates = model.DefaultRateConstants()
	if data.Rates != nil {
		s.ratesConfigured = true
		s.rates = *data.Rates
	}

	return s, nil
}

func (s *Snapshot) Version() uint64            { return s.version }
func (s *Snapshot) LoadedAt() time.Time        { return s.loadedAt }
func (s *Snapshot) Rates() model.RateConstants { return s.rates }

// SnapshotStats summarizes a snapshot for operators.
type SnapshotStats struct {
	Version         uint64    `json:"version"`
	LoadedAt        time.Time `json:"loaded_at"`
	Zones           int       `json:"zones"`
	ZoneLocations   int       `json:"zone_locations"`
	ZoneFares       int       `json:"zone_fares"`
	Routes          int       `json:"predefined_routes"`
	FeeWindows      int       `json:"active_fee_windows"`
	RatesConfigured bool      `json:"rates_configured"`
}

func (s *Snapshot) Stats() SnapshotStats {
	return SnapshotStats{
		Version:         s.version,
		LoadedAt:        s.loadedAt,
		Zones:           len(s.zones),
		ZoneLocations:   s.locationCount,
		ZoneFares:       len(s.fares),
		Routes:          len(s.routes),
		FeeWindows:      len(s.windows),
		RatesConfigured: s.ratesConfigured,
	}
}

// ─── SnapshotStore ──────────────────────────────────────────

// SnapshotStore publishes the current Snapshot. Readers call Current
// without locking; writers are serialized so versions only ever increase.
type SnapshotStore struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

// NewSnapshotStore returns an empty store; Current is nil until Replace succeeds.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Current returns the published snapshot, or nil if none was loaded yet.
func (s *SnapshotStore) Current() *Snapshot {
	return s.current.Load()
}

// Replace builds a snapshot from data and publishes it. On error the
// previous snapshot stays current.
func (s *SnapshotStore) Replace(data *model.ReferenceData, now time.Time) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := NewSnapshot(data, s.version.Load()+1, now)
	if err != nil {
		return nil, err
	}
	s.version.Inc()
	s.current.Store(snap)
	return snap, nil
}
