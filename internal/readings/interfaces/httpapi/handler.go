// Package httpapi exposes interval-reading ingestion and timeline queries.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"meterdata-cloud/internal/auth"
	"meterdata-cloud/internal/readings/application"
	readings "meterdata-cloud/internal/readings/domain"
	"meterdata-cloud/internal/timeline"
)

const timeLayout = time.RFC3339

// IngestHandler accepts interval-reading batches, as JSON or as an uploaded
// interval workbook.
type IngestHandler struct {
	service *application.IngestService
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *application.IngestService, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("readings ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

// ServeHTTP handles POST /ingest/readings. A workbook upload is signaled by
// the spreadsheet content type; anything else is treated as JSON.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var batch []readings.Reading
	var err error
	if isWorkbookRequest(r) {
		batch, err = application.ParseIntervalWorkbook(r.Body, kindFromQuery(r))
	} else {
		batch, err = decodeJSONBatch(r)
	}
	if err != nil {
		h.logger.Printf("readings ingest: decode error: %v", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	accepted, err := h.service.Ingest(r.Context(), batch)
	if err != nil {
		h.logger.Printf("readings ingest: %v", err)
		http.Error(w, "ingest error", http.StatusInternalServerError)
		return
	}
	caller, _ := auth.FromContext(r.Context())
	h.logger.Printf("readings ingest: accepted=%d subject=%s", accepted, caller.Subject)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"accepted": accepted})
}

func isWorkbookRequest(r *http.Request) bool {
	switch r.Header.Get("Content-Type") {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel":
		return true
	}
	return false
}

func kindFromQuery(r *http.Request) readings.Kind {
	if kind := r.URL.Query().Get("kind"); kind != "" {
		return readings.Kind(kind)
	}
	return readings.KindUse
}

type ingestRequest struct {
	MeterNumber string        `json:"meterNumber"`
	Kind        string        `json:"kind"`
	Unit        string        `json:"unit"`
	Points      []ingestPoint `json:"points"`
}

type ingestPoint struct {
	TS    int64   `json:"ts"`
	Value float64 `json:"value"`
}

func decodeJSONBatch(r *http.Request) ([]readings.Reading, error) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	if req.MeterNumber == "" {
		return nil, errors.New("missing meterNumber")
	}
	if len(req.Points) == 0 {
		return nil, errors.New("no points")
	}
	kind := readings.KindUse
	if req.Kind != "" {
		kind = readings.Kind(req.Kind)
	}
	batch := make([]readings.Reading, 0, len(req.Points))
	for _, point := range req.Points {
		ts, err := parseTimestamp(point.TS)
		if err != nil {
			return nil, err
		}
		batch = append(batch, readings.Reading{
			MeterNumber: req.MeterNumber,
			Kind:        kind,
			TS:          ts,
			Value:       point.Value,
			Unit:        req.Unit,
		})
	}
	return batch, nil
}

func parseTimestamp(value int64) (time.Time, error) {
	if value <= 0 {
		return time.Time{}, errors.New("invalid ts")
	}
	// Accept milliseconds or seconds.
	if value > 1_000_000_000_000 {
		return time.UnixMilli(value).UTC(), nil
	}
	return time.Unix(value, 0).UTC(), nil
}

// TimelineHandler serves a meter's readings laid out on a fixed-interval
// timeline.
type TimelineHandler struct {
	service *application.IngestService
}

// NewTimelineHandler constructs a timeline handler.
func NewTimelineHandler(service *application.IngestService) (*TimelineHandler, error) {
	if service == nil {
		return nil, errors.New("readings timeline: nil service")
	}
	return &TimelineHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/timeline.
func (h *TimelineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	meterNumber := r.URL.Query().Get("meter_number")
	if meterNumber == "" {
		http.Error(w, "meter_number is required", http.StatusBadRequest)
		return
	}
	from, err := parseTimeQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}
	intervalMinutes := 15
	if raw := r.URL.Query().Get("interval"); raw != "" {
		intervalMinutes, err = strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "bad interval", http.StatusBadRequest)
			return
		}
	}
	includeEmpty := r.URL.Query().Get("include_empty") != "false"

	tl, err := h.service.IntervalTimeline(r.Context(), meterNumber, kindFromQuery(r), from, to, intervalMinutes)
	if err != nil {
		if errors.Is(err, timeline.ErrInvalidInterval) || errors.Is(err, timeline.ErrInvalidRange) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "timeline error", http.StatusInternalServerError)
		return
	}
	days, err := tl.Serialize(includeEmpty)
	if err != nil {
		http.Error(w, "timeline error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"meterNumber": meterNumber,
		"interval":    intervalMinutes,
		"days":        days,
	})
}

func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	ts, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad %s", key)
	}
	return ts.UTC(), nil
}
