package pricing

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shiva/chauffeur/internal/model"
)

func TestEngine_Compute(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewEngine(Config{})

	tuesday := at(2024, time.June, 4, 14, 0) // non-holiday Tuesday
	saturday := at(2024, time.June, 8, 14, 0)

	tests := []struct {
		name string
		req  model.PricingRequest
		want model.PriceBreakdown
	}{
		{
			name: "Predefined route Gare de Lyon → Vincennes",
			req: model.PricingRequest{
				DepartureAddress: "Gare de Lyon, 75012 Paris",
				ArrivalAddress:   "Vincennes, 94300",
				DistanceKm:       ptr(7.5),
				PickupTime:       tuesday,
				Mode:             model.ModeClassic,
			},
			want: model.PriceBreakdown{
				BasePrice:       5500,
				Total:           5500,
				DepartureZone:   "PARIS",
				ArrivalZone:     "PREMIUM",
				PricingType:     model.PricingFixedRate,
				PredefinedRoute: true,
			},
		},
		{
			name: "Zone fare Paris → Premium",
			req: model.PricingRequest{
				DepartureAddress: "Tour Eiffel, 75007 Paris",
				ArrivalAddress:   "Neuilly-sur-Seine",
				PickupTime:       tuesday,
				Mode:             model.ModeClassic,
			},
			want: model.PriceBreakdown{
				BasePrice:     4500,
				Total:         4500,
				DepartureZone: "PARIS",
				ArrivalZone:   "PREMIUM",
				PricingType:   model.PricingFixedRate,
			},
		},
		{
			// 30.00 + 100 km × 2.50
			name: "Distance fallback with default rates",
			req: model.PricingRequest{
				DepartureAddress: "Lyon Part-Dieu",
				ArrivalAddress:   "Marseille Saint-Charles",
				DistanceKm:       ptr(100.0),
				Mode:             model.ModeClassic,
			},
			want: model.PriceBreakdown{
				BasePrice:     28000,
				Total:         28000,
				DepartureZone: model.UnknownZone,
				ArrivalZone:   model.UnknownZone,
				PricingType:   model.PricingDistanceBased,
			},
		},
		{
			// base 44.00 + night 10.00 + stop 10.00 + 2 bags 20.00 + urgent 15.00
			name: "Distance-based zone entry with every option",
			req: model.PricingRequest{
				DepartureAddress:   "Nanterre, 92000",
				ArrivalAddress:     "Tour Eiffel, 75007 Paris",
				DistanceKm:         ptr(12.0),
				PickupTime:         at(2024, time.June, 4, 23, 30),
				Mode:               model.ModeClassic,
				StopCount:          1,
				ExcessBaggageCount: 2,
				IsUrgent:           true,
			},
			want: model.PriceBreakdown{
				BasePrice:        4400,
				TimeBasedFee:     1000,
				StopFee:          1000,
				ExcessBaggageFee: 2000,
				UrgentBookingFee: 1500,
				Total:            9900,
				DepartureZone:    "BANLIEUE",
				ArrivalZone:      "PARIS",
				PricingType:      model.PricingDistanceBased,
			},
		},
		{
			name: "Hourly Tour Eiffel on Saturday, stop ignored",
			req: model.PricingRequest{
				DepartureAddress: "Tour Eiffel, 75007 Paris",
				PickupTime:       saturday,
				Mode:             model.ModeHourly,
				Hours:            ptr(3.0),
				StopCount:        1,
			},
			want: model.PriceBreakdown{
				BasePrice:         20000,
				WeekendHolidayFee: 1500,
				Total:             21500,
				DepartureZone:     "PARIS",
				Hours:             3,
			},
		},
		{
			name: "Hourly clamps to 5h offer",
			req: model.PricingRequest{
				DepartureAddress: "Gare de Lyon, 75012 Paris",
				Mode:             model.ModeHourly,
				Hours:            ptr(10.0),
			},
			want: model.PriceBreakdown{
				BasePrice:     35000,
				Total:         35000,
				DepartureZone: "PARIS",
				Hours:         5,
			},
		},
		{
			name: "No pickup time means no surcharges",
			req: model.PricingRequest{
				DepartureAddress:   "Tour Eiffel, 75007 Paris",
				ArrivalAddress:     "Neuilly-sur-Seine",
				Mode:               model.ModeClassic,
				ExcessBaggageCount: 2,
				IsUrgent:           true,
			},
			want: model.PriceBreakdown{
				BasePrice:     4500,
				Total:         4500,
				DepartureZone: "PARIS",
				ArrivalZone:   "PREMIUM",
				PricingType:   model.PricingFixedRate,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Compute(snap, tt.req)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if got.BasePrice != tt.want.BasePrice {
				t.Errorf("BasePrice = %s, want %s", got.BasePrice, tt.want.BasePrice)
			}
			if got.TimeBasedFee != tt.want.TimeBasedFee {
				t.Errorf("TimeBasedFee = %s, want %s", got.TimeBasedFee, tt.want.TimeBasedFee)
			}
			if got.StopFee != tt.want.StopFee {
				t.Errorf("StopFee = %s, want %s", got.StopFee, tt.want.StopFee)
			}
			if got.ExcessBaggageFee != tt.want.ExcessBaggageFee {
				t.Errorf("ExcessBaggageFee = %s, want %s", got.ExcessBaggageFee, tt.want.ExcessBaggageFee)
			}
			if got.WeekendHolidayFee != tt.want.WeekendHolidayFee {
				t.Errorf("WeekendHolidayFee = %s, want %s", got.WeekendHolidayFee, tt.want.WeekendHolidayFee)
			}
			if got.UrgentBookingFee != tt.want.UrgentBookingFee {
				t.Errorf("UrgentBookingFee = %s, want %s", got.UrgentBookingFee, tt.want.UrgentBookingFee)
			}
			if got.Total != tt.want.Total {
				t.Errorf("Total = %s, want %s", got.Total, tt.want.Total)
			}
			if got.DepartureZone != tt.want.DepartureZone || got.ArrivalZone != tt.want.ArrivalZone {
				t.Errorf("zones = %s→%s, want %s→%s", got.DepartureZone, got.ArrivalZone, tt.want.DepartureZone, tt.want.ArrivalZone)
			}
			if got.PricingType != tt.want.PricingType {
				t.Errorf("PricingType = %q, want %q", got.PricingType, tt.want.PricingType)
			}
			if got.PredefinedRoute != tt.want.PredefinedRoute {
				t.Errorf("PredefinedRoute = %v, want %v", got.PredefinedRoute, tt.want.PredefinedRoute)
			}
			if got.Hours != tt.want.Hours {
				t.Errorf("Hours = %v, want %v", got.Hours, tt.want.Hours)
			}
			if got.Total != got.Sum() {
				t.Errorf("Total %s != sum of components %s", got.Total, got.Sum())
			}
		})
	}
}

func TestEngine_Compute_Reasons(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewEngine(Config{})

	got, err := engine.Compute(snap, model.PricingRequest{
		DepartureAddress: "Tour Eiffel, 75007 Paris",
		ArrivalAddress:   "Neuilly-sur-Seine",
		PickupTime:       at(2024, time.December, 25, 23, 0), // Wednesday, Christmas, night
		Mode:             model.ModeClassic,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.TimeBasedFeeName == nil || *got.TimeBasedFeeName != "Nuit" {
		t.Errorf("TimeBasedFeeName = %v, want Nuit", got.TimeBasedFeeName)
	}
	if got.WeekendHolidayReason == nil || *got.WeekendHolidayReason != ReasonHoliday {
		t.Errorf("WeekendHolidayReason = %v, want %q", got.WeekendHolidayReason, ReasonHoliday)
	}
	if got.Total != 4500+1000+1500 {
		t.Errorf("Total = %s, want 70.00", got.Total)
	}

	got, err = engine.Compute(snap, model.PricingRequest{
		DepartureAddress: "Tour Eiffel, 75007 Paris",
		ArrivalAddress:   "Neuilly-sur-Seine",
		PickupTime:       at(2024, time.June, 4, 14, 0),
		Mode:             model.ModeClassic,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.TimeBasedFeeName != nil || got.WeekendHolidayReason != nil {
		t.Errorf("expected nil fee name and reason, got %v / %v", got.TimeBasedFeeName, got.WeekendHolidayReason)
	}
}

func TestEngine_Compute_TimeZone(t *testing.T) {
	snap := testSnapshot(t)
	paris := time.FixedZone("CEST", 2*60*60)
	engine := NewEngine(Config{Location: paris})

	// 21:30 UTC is 23:30 in Paris: inside the night window.
	got, err := engine.Compute(snap, model.PricingRequest{
		DepartureAddress: "Tour Eiffel, 75007 Paris",
		ArrivalAddress:   "Neuilly-sur-Seine",
		PickupTime:       at(2024, time.June, 4, 21, 30),
		Mode:             model.ModeClassic,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.TimeBasedFee != 1000 {
		t.Errorf("TimeBasedFee = %s, want 10.00", got.TimeBasedFee)
	}
}

func TestEngine_Compute_HourlyOutsideParis(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewEngine(Config{})

	for _, dep := range []string{"Nanterre, 92000", "Lyon Part-Dieu"} {
		_, err := engine.Compute(snap, model.PricingRequest{
			DepartureAddress: dep,
			Mode:             model.ModeHourly,
			Hours:            ptr(3.0),
		})
		if !errors.Is(err, ErrInvalidServiceArea) {
			t.Errorf("Compute(hourly from %q) error = %v, want ErrInvalidServiceArea", dep, err)
		}
	}
}

func TestEngine_Compute_InvalidInput(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewEngine(Config{})

	base := model.PricingRequest{
		DepartureAddress: "Tour Eiffel, 75007 Paris",
		ArrivalAddress:   "Neuilly-sur-Seine",
		Mode:             model.ModeClassic,
	}

	tests := []struct {
		name   string
		mutate func(r *model.PricingRequest)
	}{
		{"unknown mode", func(r *model.PricingRequest) { r.Mode = model.ModeUnknown }},
		{"missing departure", func(r *model.PricingRequest) { r.DepartureAddress = "  " }},
		{"missing arrival", func(r *model.PricingRequest) { r.ArrivalAddress = "" }},
		{"two stops", func(r *model.PricingRequest) { r.StopCount = 2 }},
		{"negative stops", func(r *model.PricingRequest) { r.StopCount = -1 }},
		{"negative baggage", func(r *model.PricingRequest) { r.ExcessBaggageCount = -1 }},
		{"negative distance", func(r *model.PricingRequest) { r.DistanceKm = ptr(-3.0) }},
		{"infinite distance", func(r *model.PricingRequest) { r.DistanceKm = ptr(math.Inf(1)) }},
		{"NaN distance", func(r *model.PricingRequest) { r.DistanceKm = ptr(math.NaN()) }},
		{"distance beyond cents range", func(r *model.PricingRequest) { r.DistanceKm = ptr(1e18) }},
		{"distance above bound", func(r *model.PricingRequest) { r.DistanceKm = ptr(MaxDistanceKm + 1.0) }},
		{"hourly without hours", func(r *model.PricingRequest) { r.Mode = model.ModeHourly }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			if _, err := engine.Compute(snap, req); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Compute() error = %v, want ErrInvalidInput", err)
			}
		})
	}

	// Hourly mode does not need an arrival.
	req := base
	req.Mode = model.ModeHourly
	req.ArrivalAddress = ""
	req.Hours = ptr(2.0)
	if _, err := engine.Compute(snap, req); err != nil {
		t.Errorf("Compute(hourly, no arrival) error = %v", err)
	}
}

func TestEngine_Compute_MaxDistance(t *testing.T) {
	// 30.00 + 5000 km × 2.50
	got, err := NewEngine(Config{}).Compute(testSnapshot(t), model.PricingRequest{
		DepartureAddress: "Lyon Part-Dieu",
		ArrivalAddress:   "Lisboa Oriente",
		DistanceKm:       ptr(float64(MaxDistanceKm)),
		Mode:             model.ModeClassic,
	})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if got.Total != 1253000 {
		t.Errorf("Total = %s, want 12530.00", got.Total)
	}
}

func TestEngine_Compute_ConfiguredZeroRates(t *testing.T) {
	data := testReferenceData()
	data.Rates = &model.RateConstants{
		ExcessBaggageFee: 1000, StopFee: 1000, WeekendFee: 0,
		HolidayFee: 1500, PricePerKm: 250, BaseDistancePrice: 3000,
	}
	snap, err := NewSnapshot(data, 1, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	got, err := NewEngine(Config{}).Compute(snap, model.PricingRequest{
		DepartureAddress: "Tour Eiffel, 75007 Paris",
		PickupTime:       at(2024, time.June, 8, 14, 0),
		Mode:             model.ModeHourly,
		Hours:            ptr(3.0),
	})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if got.WeekendHolidayFee != 0 || got.Total != 20000 {
		t.Errorf("weekend fee = %s, total = %s; want 0.00 and 200.00", got.WeekendHolidayFee, got.Total)
	}
}

func TestEngine_Compute_NoSnapshot(t *testing.T) {
	_, err := NewEngine(Config{}).Compute(nil, model.PricingRequest{
		DepartureAddress: "a", ArrivalAddress: "b", Mode: model.ModeClassic,
	})
	if !errors.Is(err, ErrSnapshotUnavailable) {
		t.Errorf("Compute(nil snapshot) error = %v, want ErrSnapshotUnavailable", err)
	}
}

func TestEngine_Compute_ZoneSymmetry(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewEngine(Config{})

	ab, err := engine.Compute(snap, model.PricingRequest{
		DepartureAddress: "Tour Eiffel, 75007 Paris", ArrivalAddress: "Boulogne-Billancourt", Mode: model.ModeClassic,
	})
	if err != nil {
		t.Fatal(err)
	}
	ba, err := engine.Compute(snap, model.PricingRequest{
		DepartureAddress: "Boulogne-Billancourt", ArrivalAddress: "Tour Eiffel, 75007 Paris", Mode: model.ModeClassic,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ab.BasePrice != ba.BasePrice {
		t.Errorf("A→B %s != B→A %s", ab.BasePrice, ba.BasePrice)
	}
}

func TestEngine_Compute_Additivity(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewEngine(Config{})

	deps := []string{"Gare de Lyon, 75012 Paris", "Nanterre, 92000", "Lyon", "Tour Eiffel, 75007 Paris"}
	arrs := []string{"Vincennes, 94300", "Aéroport Charles de Gaulle, 95700 Roissy", "Marseille"}
	times := []*time.Time{nil, at(2024, time.June, 4, 8, 15), at(2024, time.June, 8, 23, 0), at(2024, time.May, 1, 3, 0)}

	for _, dep := range deps {
		for _, arr := range arrs {
			for _, pt := range times {
				for stops := 0; stops <= 1; stops++ {
					for bags := 0; bags <= 2; bags++ {
						req := model.PricingRequest{
							DepartureAddress:   dep,
							ArrivalAddress:     arr,
							DistanceKm:         ptr(17.35),
							PickupTime:         pt,
							Mode:               model.ModeClassic,
							StopCount:          stops,
							ExcessBaggageCount: bags,
							IsUrgent:           bags == 1,
						}
						b, err := engine.Compute(snap, req)
						if err != nil {
							t.Fatalf("Compute(%+v) error = %v", req, err)
						}
						want := b.BasePrice + b.TimeBasedFee + b.StopFee + b.WeekendHolidayFee + b.ExcessBaggageFee + b.UrgentBookingFee
						if b.Total != want {
							t.Errorf("Total %s != components %s for %+v", b.Total, want, req)
						}
					}
				}
			}
		}
	}
}

func TestSnapshotStore_ConcurrentReload(t *testing.T) {
	store := NewSnapshotStore()
	if store.Current() != nil {
		t.Fatal("new store should have no snapshot")
	}
	engine := NewEngine(Config{})
	data := testReferenceData()

	if _, err := store.Replace(data, time.Now()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				b, err := engine.Compute(store.Current(), model.PricingRequest{
					DepartureAddress: "Gare de Lyon, 75012 Paris",
					ArrivalAddress:   "Vincennes, 94300",
					Mode:             model.ModeClassic,
				})
				if err != nil || b.Total != 5500 {
					t.Errorf("concurrent Compute = %v, %v", b, err)
					return
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		if _, err := store.Replace(data, time.Now()); err != nil {
			t.Error(err)
		}
	}
	wg.Wait()

	if v := store.Current().Version(); v != 21 {
		t.Errorf("Version() = %d, want 21", v)
	}

	// A failed reload keeps the previous snapshot.
	bad := &model.ReferenceData{Zones: []model.Zone{{Code: "X"}, {Code: "X"}}}
	if _, err := store.Replace(bad, time.Now()); err == nil {
		t.Error("Replace(bad) expected error")
	}
	if v := store.Current().Version(); v != 21 {
		t.Errorf("Version() after failed reload = %d, want 21", v)
	}
}
