package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carlajeanne/plantpal-backend/internal/domain"
	apperrors "github.com/carlajeanne/plantpal-backend/pkg/errors"
)

// ReadingRepository implements repository.ReadingRepository using PostgreSQL.
type ReadingRepository struct {
	db DB
}

// NewReadingRepository creates a new PostgreSQL-backed reading repository.
func NewReadingRepository(db DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Insert appends a reading. The timestamp is assigned by the database at
// insert time; the device clock is never trusted.
func (r *ReadingRepository) Insert(ctx context.Context, moistureLevel float64) (*domain.Reading, error) {
	query := `
		INSERT INTO soil_moisture (moisture_level, reading_timestamp)
		VALUES ($1, NOW())
		RETURNING id, moisture_level, reading_timestamp`

	var reading domain.Reading
	err := r.db.QueryRow(ctx, query, moistureLevel).Scan(
		&reading.ID,
		&reading.MoistureLevel,
		&reading.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reading: %w", err)
	}

	return &reading, nil
}

// ListSince returns readings with a timestamp inside the trailing window,
// newest first, capped at limit rows.
func (r *ReadingRepository) ListSince(ctx context.Context, hours, limit int) ([]domain.Reading, error) {
	query := `
		SELECT id, moisture_level, reading_timestamp
		FROM soil_moisture
		WHERE reading_timestamp >= NOW() - ($1 * INTERVAL '1 hour')
		ORDER BY reading_timestamp DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, hours, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.Reading
	for rows.Next() {
		var reading domain.Reading
		if err := rows.Scan(&reading.ID, &reading.MoistureLevel, &reading.Timestamp); err != nil {
			return nil, fmt.Errorf("scan reading row: %w", err)
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reading rows: %w", err)
	}

	if readings == nil {
		readings = []domain.Reading{}
	}

	return readings, nil
}

// Latest returns the single most recent reading, or ErrNotFound when the
// table is empty.
func (r *ReadingRepository) Latest(ctx context.Context) (*domain.Reading, error) {
	query := `
		SELECT id, moisture_level, reading_timestamp
		FROM soil_moisture
		ORDER BY reading_timestamp DESC
		LIMIT 1`

	var reading domain.Reading
	err := r.db.QueryRow(ctx, query).Scan(
		&reading.ID,
		&reading.MoistureLevel,
		&reading.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan latest reading: %w", err)
	}

	return &reading, nil
}

// Stats computes count, avg, min, max, and the window's earliest/latest
// timestamps in one aggregate pass. The aggregate columns are NULL when the
// window is empty, which scans cleanly into the nil-able Statistics fields.
func (r *ReadingRepository) Stats(ctx context.Context, hours int) (*domain.Statistics, error) {
	query := `
		SELECT
			COUNT(*) AS total_readings,
			AVG(moisture_level) AS avg_moisture,
			MIN(moisture_level) AS min_moisture,
			MAX(moisture_level) AS max_moisture,
			MIN(reading_timestamp) AS earliest_reading,
			MAX(reading_timestamp) AS latest_reading
		FROM soil_moisture
		WHERE reading_timestamp >= NOW() - ($1 * INTERVAL '1 hour')`

	var stats domain.Statistics
	err := r.db.QueryRow(ctx, query, hours).Scan(
		&stats.Count,
		&stats.Avg,
		&stats.Min,
		&stats.Max,
		&stats.Earliest,
		&stats.Latest,
	)
	if err != nil {
		return nil, fmt.Errorf("scan reading stats: %w", err)
	}

	return &stats, nil
}
