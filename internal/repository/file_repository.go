package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/shiva/chauffeur/internal/model"
)

// FileRepository reads reference data from a YAML document. It is the
// source for local runs and tests where no database is available.
type FileRepository struct {
	path string
	log  *zap.Logger
}

// NewFileRepository creates a repository reading path on every load.
func NewFileRepository(path string, log *zap.Logger) *FileRepository {
	return &FileRepository{path: path, log: log.Named("repository")}
}

// LoadReferenceData parses the file. The file is re-read on every call so
// a reload picks up edits.
func (r *FileRepository) LoadReferenceData(ctx context.Context) (*model.ReferenceData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read reference data file: %w", err)
	}

	data, err := ParseReferenceYAML(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}

	r.log.Info("reference data loaded from file",
		zap.String("path", r.path),
		zap.Int("zones", len(data.Zones)),
		zap.Int("predefined_routes", len(data.Routes)),
	)
	return data, nil
}

// InvalidateReferenceCache is a no-op: the file is never cached.
func (r *FileRepository) InvalidateReferenceCache(context.Context, string) error { return nil }

// Invalidations returns a nil channel; file sources have no peers.
func (r *FileRepository) Invalidations(context.Context) (<-chan string, error) { return nil, nil }

// ParseReferenceYAML decodes a reference data document. Unknown keys are
// rejected so typos do not silently drop data.
//
//	zones:
//	  - {code: PARIS, name: Paris, priority: 10}
//	zone_locations:
//	  - {zone: PARIS, value: "75001", type: postal_code}
//	zone_fares:
//	  - {from: PARIS, to: CDG, price: 65.00}
//	predefined_routes:
//	  - {departure: "Gare de Lyon, 75012 Paris", arrival: "Orly", price: 55}
//	time_based_fees:
//	  - {name: Nuit, start: "22:00", end: "05:00", fee: 10, active: true}
//	rates:
//	  excess_baggage_fee: 10
func ParseReferenceYAML(raw []byte) (*model.ReferenceData, error) {
	var data model.ReferenceData
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse reference data: empty document")
		}
		return nil, fmt.Errorf("parse reference data: %w", err)
	}
	return &data, nil
}
