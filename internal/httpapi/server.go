package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/voxbatch/voxbatch/internal/batch"
	"github.com/voxbatch/voxbatch/internal/bus"
	"github.com/voxbatch/voxbatch/internal/config"
	"github.com/voxbatch/voxbatch/internal/tts"
)

// Server exposes the synthesis API: single-item synthesis, batch synthesis
// returning a zip, and the voice catalog.
type Server struct {
	cfg   config.Config
	synth tts.Synthesizer
	proc  *batch.Processor
	bus   *bus.Client
	log   *slog.Logger
	mux   *http.ServeMux

	synthTotal    metric.Int64Counter
	synthDuration metric.Float64Histogram
	batchItems    metric.Int64Counter
}

// NewServer wires the API around a synthesizer. busClient may be nil, in
// which case no progress events are published.
func NewServer(cfg config.Config, synth tts.Synthesizer, busClient *bus.Client, logger *slog.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		synth: synth,
		proc:  batch.NewProcessor(synth, cfg.Batch.MaxWorkers, logger),
		bus:   busClient,
		log:   logger.With(slog.String("component", "httpapi")),
		mux:   http.NewServeMux(),
	}
	s.initMetrics()
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/synthesize", s.handleSynthesize)
	s.mux.HandleFunc("POST /v1/batch", s.handleBatch)
	s.mux.HandleFunc("GET /v1/voices", s.handleVoices)
}

func (s *Server) initMetrics() {
	meter := otel.Meter("github.com/voxbatch/voxbatch/internal/httpapi")

	var err error
	s.synthTotal, err = meter.Int64Counter("tts_synthesis_total",
		metric.WithDescription("Completed synthesis calls by outcome"))
	if err != nil {
		s.log.Warn("failed to create synthesis counter", slog.String("error", err.Error()))
	}
	s.synthDuration, err = meter.Float64Histogram("tts_synthesis_duration_seconds",
		metric.WithDescription("Wall-clock duration of synthesis calls"),
		metric.WithUnit("s"))
	if err != nil {
		s.log.Warn("failed to create synthesis histogram", slog.String("error", err.Error()))
	}
	s.batchItems, err = meter.Int64Counter("tts_batch_items_total",
		metric.WithDescription("Completed batch items by outcome"))
	if err != nil {
		s.log.Warn("failed to create batch counter", slog.String("error", err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
