package service

import (
	"context"
	"log/slog"

	"github.com/carlajeanne/plantpal-backend/internal/domain"
	"github.com/carlajeanne/plantpal-backend/internal/repository"
)

const (
	defaultWindowHours = 24
	defaultListLimit   = 50
)

// ReadingService implements soil-moisture ingestion and the query API.
type ReadingService struct {
	readings repository.ReadingRepository
	logger   *slog.Logger
}

// NewReadingService creates a new reading service.
func NewReadingService(readings repository.ReadingRepository, logger *slog.Logger) *ReadingService {
	return &ReadingService{readings: readings, logger: logger}
}

// Record stores a single moisture reading. The timestamp is assigned by the
// database; any clock the device reports is ignored. deviceID is accepted
// for log correlation only and is not persisted.
func (s *ReadingService) Record(ctx context.Context, moistureLevel float64, deviceID string) (*domain.Reading, error) {
	reading, err := s.readings.Insert(ctx, moistureLevel)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reading recorded",
		slog.Int64("reading_id", reading.ID),
		slog.Float64("moisture_level", reading.MoistureLevel),
		slog.String("device_id", deviceID),
	)

	return reading, nil
}

// List returns readings from the trailing window, newest first. Non-positive
// hours or limit fall back to the defaults (24 hours, 50 rows) rather than
// erroring, matching what the dashboard expects when it omits the params.
func (s *ReadingService) List(ctx context.Context, hours, limit int) ([]domain.Reading, error) {
	if hours <= 0 {
		hours = defaultWindowHours
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	return s.readings.ListSince(ctx, hours, limit)
}

// Latest returns the most recent reading, or ErrNotFound when no readings
// have ever been recorded.
func (s *ReadingService) Latest(ctx context.Context) (*domain.Reading, error) {
	return s.readings.Latest(ctx)
}

// Stats aggregates the trailing window. An empty window is not an error: the
// result carries a zero count and nil aggregates so the caller can tell
// "no data" apart from "all readings are zero".
func (s *ReadingService) Stats(ctx context.Context, hours int) (*domain.Statistics, error) {
	if hours <= 0 {
		hours = defaultWindowHours
	}

	return s.readings.Stats(ctx, hours)
}
