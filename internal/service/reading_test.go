package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carlajeanne/plantpal-backend/internal/domain"
	apperrors "github.com/carlajeanne/plantpal-backend/pkg/errors"
)

func newReadingService(repo *mockReadingRepository) *ReadingService {
	return NewReadingService(repo, slog.New(slog.DiscardHandler))
}

func TestReadingService_Record(t *testing.T) {
	repo := new(mockReadingRepository)
	svc := newReadingService(repo)

	stored := &domain.Reading{ID: 1, MoistureLevel: 42.5, Timestamp: time.Now().UTC()}
	repo.On("Insert", mock.Anything, 42.5).Return(stored, nil)

	reading, err := svc.Record(context.Background(), 42.5, "esp32-balcony")
	require.NoError(t, err)
	assert.Equal(t, int64(1), reading.ID)
	assert.Equal(t, 42.5, reading.MoistureLevel)
	repo.AssertExpectations(t)
}

func TestReadingService_List_DefaultsApplied(t *testing.T) {
	repo := new(mockReadingRepository)
	svc := newReadingService(repo)

	repo.On("ListSince", mock.Anything, 24, 50).Return([]domain.Reading{}, nil)

	tests := []struct {
		name         string
		hours, limit int
	}{
		{"both zero", 0, 0},
		{"negative hours", -3, 0},
		{"negative limit", 0, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), tt.hours, tt.limit)
			require.NoError(t, err)
		})
	}
	repo.AssertNumberOfCalls(t, "ListSince", len(tests))
}

func TestReadingService_List_ExplicitWindow(t *testing.T) {
	repo := new(mockReadingRepository)
	svc := newReadingService(repo)

	now := time.Now().UTC()
	rows := []domain.Reading{
		{ID: 2, MoistureLevel: 50.0, Timestamp: now},
		{ID: 1, MoistureLevel: 48.0, Timestamp: now.Add(-time.Hour)},
	}
	repo.On("ListSince", mock.Anything, 6, 10).Return(rows, nil)

	readings, err := svc.List(context.Background(), 6, 10)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, int64(2), readings[0].ID)
}

func TestReadingService_Latest_Empty(t *testing.T) {
	repo := new(mockReadingRepository)
	svc := newReadingService(repo)

	repo.On("Latest", mock.Anything).Return(nil, apperrors.ErrNotFound)

	_, err := svc.Latest(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReadingService_Stats_DefaultWindow(t *testing.T) {
	repo := new(mockReadingRepository)
	svc := newReadingService(repo)

	repo.On("Stats", mock.Anything, 24).Return(&domain.Statistics{Count: 0}, nil)

	stats, err := svc.Stats(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Count)
	assert.Nil(t, stats.Avg)
	repo.AssertCalled(t, "Stats", mock.Anything, 24)
}

func TestReadingService_Stats_PopulatedWindow(t *testing.T) {
	repo := new(mockReadingRepository)
	svc := newReadingService(repo)

	avg := 51.5
	repo.On("Stats", mock.Anything, 12).Return(&domain.Statistics{Count: 4, Avg: &avg}, nil)

	stats, err := svc.Stats(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Count)
	require.NotNil(t, stats.Avg)
	assert.Equal(t, 51.5, *stats.Avg)
}
