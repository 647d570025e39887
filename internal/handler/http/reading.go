package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carlajeanne/plantpal-backend/internal/service"
	apperrors "github.com/carlajeanne/plantpal-backend/pkg/errors"
)

// ReadingHandler exposes ingestion and the soil-moisture query API.
type ReadingHandler struct {
	readings *service.ReadingService
	logger   *slog.Logger
}

// NewReadingHandler creates a new reading handler.
func NewReadingHandler(readings *service.ReadingService, logger *slog.Logger) *ReadingHandler {
	return &ReadingHandler{readings: readings, logger: logger}
}

// recordRequest uses a pointer so an absent moisture_level can be told apart
// from an explicit zero, which is a legitimate reading for bone-dry soil.
type recordRequest struct {
	MoistureLevel *float64 `json:"moisture_level"`
	DeviceID      string   `json:"device_id"`
}

// Record handles POST /api/v1/readings, the unauthenticated device ingestion
// endpoint.
func (h *ReadingHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.MoistureLevel == nil {
		writeError(w, h.logger, apperrors.InvalidInput("moisture_level is required"))
		return
	}

	reading, err := h.readings.Record(r.Context(), *req.MoistureLevel, req.DeviceID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "reading recorded",
		"reading": reading,
	})
}

// List handles GET /api/v1/readings?hours=24&limit=50.
func (h *ReadingHandler) List(w http.ResponseWriter, r *http.Request) {
	hours, err := queryInt(r, "hours")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	readings, err := h.readings.List(r.Context(), hours, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(readings),
		"readings": readings,
	})
}

// Latest handles GET /api/v1/readings/latest.
func (h *ReadingHandler) Latest(w http.ResponseWriter, r *http.Request) {
	reading, err := h.readings.Latest(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"latest_reading": reading,
	})
}

// Stats handles GET /api/v1/readings/stats?hours=24.
func (h *ReadingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	hours, err := queryInt(r, "hours")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if hours <= 0 {
		hours = 24
	}

	stats, err := h.readings.Stats(r.Context(), hours)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period_hours": hours,
		"statistics":   stats,
	})
}

// queryInt parses an optional integer query parameter, returning 0 when it
// is absent.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput(name + " must be an integer")
	}
	return v, nil
}
