package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shiva/chauffeur/internal/model"
	"github.com/shiva/chauffeur/internal/pricing"
	"github.com/shiva/chauffeur/internal/service"
	"github.com/shiva/chauffeur/pkg/geo"
	"github.com/shiva/chauffeur/pkg/holiday"
)

// QuoteRequest is the JSON body for POST /api/v1/fare/quote.
type QuoteRequest struct {
	DepartureAddress   string          `json:"departure_address"`
	ArrivalAddress     string          `json:"arrival_address"`
	DistanceKm         *float64        `json:"distance_km"`
	Departure          *model.Location `json:"departure"`
	Arrival            *model.Location `json:"arrival"`
	PickupTime         *time.Time      `json:"pickup_time"`
	Mode               string          `json:"mode"`
	Hours              *float64        `json:"hours"`
	StopCount          int             `json:"stop_count"`
	ExcessBaggageCount int             `json:"excess_baggage_count"`
	IsUrgent           *bool           `json:"is_urgent"`
}

// toPricingRequest converts the wire request. When distance_km is absent
// but both coordinates are present, the straight-line distance is used.
func (q QuoteRequest) toPricingRequest() (model.PricingRequest, error) {
	mode, err := model.ParseMode(q.Mode)
	if err != nil {
		return model.PricingRequest{}, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	req := model.PricingRequest{
		DepartureAddress:   q.DepartureAddress,
		ArrivalAddress:     q.ArrivalAddress,
		DistanceKm:         q.DistanceKm,
		PickupTime:         q.PickupTime,
		Mode:               mode,
		Hours:              q.Hours,
		StopCount:          q.StopCount,
		ExcessBaggageCount: q.ExcessBaggageCount,
	}
	if req.DistanceKm == nil {
		if km, ok := geo.EstimateDistanceKm(q.Departure, q.Arrival); ok {
			req.DistanceKm = &km
		}
	}
	return req, nil
}

// PricingHandler handles fare quote HTTP requests.
type PricingHandler struct {
	pricingSvc *service.PricingService
	log        *zap.Logger
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(pricingSvc *service.PricingService, log *zap.Logger) *PricingHandler {
	return &PricingHandler{pricingSvc: pricingSvc, log: log.Named("http")}
}

// Quote handles POST /api/v1/fare/quote
//
// Request body:
//
//	{
//	  "departure_address": "Gare de Lyon, 75012 Paris",
//	  "arrival_address": "Vincennes, 94300",
//	  "pickup_time": "2024-06-04T14:00:00+02:00",
//	  "mode": "classic", "stop_count": 0, "excess_baggage_count": 1
//	}
//
// Response: PriceBreakdown.
func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var body QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_input",
			Message: "invalid JSON body",
		})
		return
	}

	req, err := body.toPricingRequest()
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	breakdown, err := h.pricingSvc.Quote(r.Context(), req, body.IsUrgent)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

// ReloadResponse is returned by POST /api/v1/fare/reload.
type ReloadResponse struct {
	Version  uint64    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Reload handles POST /api/v1/fare/reload
//
// Drops the shared reference cache, notifies other instances and reloads
// the local snapshot.
func (h *PricingHandler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.pricingSvc.Invalidate(r.Context())
	if err != nil {
		h.log.Error("reload failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "reload_failed",
			Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{Version: snap.Version(), LoadedAt: snap.LoadedAt()})
}

// HolidayDate is one public holiday in a snapshot report.
type HolidayDate struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// SnapshotResponse is returned by GET /api/v1/fare/snapshot.
type SnapshotResponse struct {
	pricing.SnapshotStats
	Rates    model.RateConstants `json:"rates"`
	Timezone string              `json:"timezone"`
	Holidays []HolidayDate       `json:"holidays"`
}

// Snapshot handles GET /api/v1/fare/snapshot
//
// Reports the snapshot in use and the current year's French holidays.
func (h *PricingHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.pricingSvc.Snapshot()
	if snap == nil {
		writeServiceError(w, h.log, service.ErrSnapshotUnavailable)
		return
	}

	loc := h.pricingSvc.Engine().Config().Location
	if loc == nil {
		loc = time.UTC
	}
	year := time.Now().In(loc).Year()

	resp := SnapshotResponse{
		SnapshotStats: snap.Stats(),
		Rates:         snap.Rates(),
		Timezone:      loc.String(),
	}
	for _, hd := range holiday.FrenchHolidays(year) {
		resp.Holidays = append(resp.Holidays, HolidayDate{
			Name: hd.Name,
			Date: hd.Date(year).Format(time.DateOnly),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
