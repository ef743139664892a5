package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"winequality/db"
	"winequality/ml"
	"winequality/monitoring"
	"winequality/pipeline"
)

// Version is reported by the metadata endpoint.
var Version = "1.0"

type Handler struct {
	pipeline  *pipeline.Pipeline
	logger    *zap.Logger
	observers []pipeline.Observer
	metrics   *monitoring.MetricsCollector
	feed      *monitoring.WebSocketHub
	store     *db.Store
}

type Option func(*Handler)

func WithMetrics(metrics *monitoring.MetricsCollector) Option {
	return func(h *Handler) {
		h.metrics = metrics
		h.observers = append(h.observers, metrics)
	}
}

func WithFeed(feed *monitoring.WebSocketHub) Option {
	return func(h *Handler) {
		h.feed = feed
		h.observers = append(h.observers, feed)
	}
}

func WithStore(store *db.Store) Option {
	return func(h *Handler) {
		h.store = store
		h.observers = append(h.observers, store)
	}
}

func WithObserver(observer pipeline.Observer) Option {
	return func(h *Handler) {
		h.observers = append(h.observers, observer)
	}
}

func NewHandler(p *pipeline.Pipeline, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{pipeline: p, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /example", h.handleExample)
	mux.HandleFunc("POST /predict", h.handlePredict)

	if h.metrics != nil {
		mux.HandleFunc("GET /api/metrics", h.handleMetrics)
	}
	if h.store != nil {
		mux.HandleFunc("GET /api/predictions", h.handleRecentPredictions)
	}
	if h.feed != nil {
		mux.HandleFunc("GET /ws/predictions", h.feed.HandleWebSocket)
	}
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	ScalerLoaded bool   `json:"scaler_loaded"`
}

type exampleResponse struct {
	ExampleInput   ml.WineSample           `json:"example_input"`
	ExpectedOutput pipeline.ExpectedOutput `json:"expected_output"`
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Wine Quality Prediction API",
		"version": Version,
		"endpoints": map[string]string{
			"/":        "API information",
			"/health":  "Health check",
			"/predict": "Quality prediction (POST)",
			"/example": "Example input payload",
		},
		"features": ml.FeatureNames(),
	})
}

// Health reports whether both artifacts were loaded at startup.
func (h *Handler) Health() HealthStatus {
	health := HealthStatus{
		ModelLoaded:  h.pipeline.ClassifierLoaded(),
		ScalerLoaded: h.pipeline.ScalerLoaded(),
	}
	if health.ModelLoaded && health.ScalerLoaded {
		health.Status = "healthy"
	} else {
		health.Status = "unhealthy"
	}
	return health
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.Health()
	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, health)
}

func (h *Handler) handleExample(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, exampleResponse{
		ExampleInput:   pipeline.ExampleSample,
		ExpectedOutput: pipeline.ExampleOutput,
	})
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	started := GetStartTime(r.Context())
	if started.IsZero() {
		started = time.Now()
	}
	requestID := GetRequestID(r.Context())

	record, err := pipeline.DecodeRecord(r.Body)
	if err != nil {
		event := pipeline.NewEvent(requestID, started, nil, err)
		event.ErrorKind = "decode"
		h.notify(event)

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	result, err := h.pipeline.Predict(record)
	h.notify(pipeline.NewEvent(requestID, started, result, err))
	if err != nil {
		var validationErr *pipeline.ValidationError
		if errors.As(err, &validationErr) {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing fields", Missing: validationErr.Missing})
			return
		}
		h.logger.Warn("prediction failed",
			zap.String("request_id", requestID),
			zap.String("kind", pipeline.ErrorKind(err)),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Debug("prediction",
		zap.String("request_id", requestID),
		zap.String("quality", string(result.Quality)),
		zap.Float64("confidence", result.Confidence))
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte(h.metrics.ExportPrometheus()))
		return
	}
	respondJSON(w, http.StatusOK, h.metrics.Snapshot())
}

func (h *Handler) handleRecentPredictions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 1000 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = l
	}

	rows, err := h.store.Recent(limit)
	if err != nil {
		h.logger.Error("query predictions", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to query predictions")
		return
	}
	if rows == nil {
		rows = []db.PredictionRow{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"predictions": rows})
}

func (h *Handler) notify(event pipeline.Event) {
	for _, observer := range h.observers {
		observer.Observe(event)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(payload, '\n'))
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
