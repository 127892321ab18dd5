// Package ingest accepts batches of device-identified sensor readings,
// persists them atomically, updates device liveness, and runs threshold
// evaluation on every accepted reading.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Preko700/GreenView-sub000/internal/alert"
	"github.com/Preko700/GreenView-sub000/internal/model"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

// Service is the ingestion pipeline. Batches arrive from the connection
// session, the HTTP ingest endpoint, or the MQTT bridge; all three paths
// converge here.
type Service struct {
	store  store.Store
	alerts *alert.Evaluator
	now    func() time.Time
}

// NewService creates the ingestion pipeline.
func NewService(st store.Store, alerts *alert.Evaluator) *Service {
	return &Service{
		store:  st,
		alerts: alerts,
		now:    time.Now,
	}
}

// Ingest processes one batch. Item-level validation failures are reported in
// the result without aborting the batch; a storage failure rolls the whole
// batch back and is returned as an error.
func (s *Service) Ingest(ctx context.Context, items []store.ReadingItem) (store.IngestResult, error) {
	now := s.now().UTC()

	res, err := s.store.IngestReadings(ctx, now, items)
	if err != nil {
		return store.IngestResult{}, fmt.Errorf("ingest batch failed: %w", err)
	}

	// Threshold evaluation runs after the batch commits; a notification
	// failure never affects the persisted readings.
	configs := make(map[string]model.DeviceConfiguration)
	for _, r := range res.Readings {
		cfg, ok := configs[r.DeviceSerial]
		if !ok {
			cfg, err = s.store.Configuration(ctx, r.DeviceSerial)
			if err != nil {
				log.Printf("ingest: no configuration for device %s, skipping alert evaluation: %v",
					r.DeviceSerial, err)
				continue
			}
			configs[r.DeviceSerial] = cfg
		}
		s.alerts.Evaluate(ctx, cfg, r)
	}
	return res, nil
}
