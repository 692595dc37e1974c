package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meterdata-cloud/internal/observability/metrics"
	readings "meterdata-cloud/internal/readings/domain"
	"meterdata-cloud/internal/timeline"
)

// IngestService stores raw interval readings and serves them back as
// per-day slot timelines.
type IngestService struct {
	repo readings.Repository
}

// NewIngestService constructs a service.
func NewIngestService(repo readings.Repository) (*IngestService, error) {
	if repo == nil {
		return nil, errors.New("readings service: nil repository")
	}
	return &IngestService{repo: repo}, nil
}

// Ingest validates and stores a batch of readings. The batch is all-or-nothing;
// one invalid reading rejects the whole request so callers notice bad feeds.
func (s *IngestService) Ingest(ctx context.Context, batch []readings.Reading) (int, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	accepted := 0
	defer func() {
		metrics.ObserveIngest(result, accepted, time.Since(start))
	}()

	if len(batch) == 0 {
		result = metrics.ResultError
		return 0, errors.New("readings service: empty batch")
	}
	for i, reading := range batch {
		if !reading.Valid() {
			result = metrics.ResultError
			return 0, fmt.Errorf("readings service: invalid reading at index %d", i)
		}
	}
	if err := s.repo.InsertReadings(ctx, batch); err != nil {
		result = metrics.ResultError
		return 0, fmt.Errorf("readings service: insert: %w", err)
	}
	accepted = len(batch)
	return accepted, nil
}

// IntervalTimeline loads a meter's readings for [start, end] and lays them out
// on a fixed-interval timeline. Days with no data stay fully null so gaps are
// visible to the caller.
func (s *IngestService) IntervalTimeline(ctx context.Context, meterNumber string, kind readings.Kind, start, end time.Time, intervalMinutes int) (*timeline.Timeline, error) {
	tl, err := timeline.New(start, end, intervalMinutes)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.QueryRange(ctx, meterNumber, kind, start, end)
	if err != nil {
		return nil, fmt.Errorf("readings service: query: %w", err)
	}
	for _, reading := range stored {
		tl.Insert(reading.TS, reading.Value)
	}
	return tl, nil
}
