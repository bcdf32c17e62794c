package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/voxbatch/voxbatch/internal/archive"
	"github.com/voxbatch/voxbatch/internal/protocol"
	"github.com/voxbatch/voxbatch/internal/taskset"
	"github.com/voxbatch/voxbatch/internal/tts"
)

type synthesizeRequest struct {
	Text         string   `json:"text"`
	Voice        string   `json:"voice"`
	ContextTexts []string `json:"context_texts,omitempty"`
	SectionID    string   `json:"section_id,omitempty"`
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var body synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return
	}
	voice := body.Voice
	if voice == "" {
		voice = s.cfg.TTS.DefaultVoice
	}

	start := time.Now()
	audio, err := s.synth.Synthesize(r.Context(), tts.SynthRequest{
		Text:         body.Text,
		Voice:        voice,
		ContextTexts: body.ContextTexts,
		SectionID:    body.SectionID,
	})
	s.recordSynthesis(r.Context(), time.Since(start), err == nil)

	if err != nil {
		s.log.Warn("synthesis failed",
			slog.String("voice", voice), slog.String("error", err.Error()))
		resp := errorResponse{Error: err.Error()}
		var terr *tts.Error
		if errors.As(err, &terr) {
			resp.StatusCode = terr.StatusCode
			resp.Body = terr.Body
		}
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	_, _ = w.Write(audio)
}

type batchItemRequest struct {
	Text         string   `json:"text"`
	Voice        string   `json:"voice,omitempty"`
	ContextTexts []string `json:"context_texts,omitempty"`
	SectionID    string   `json:"section_id,omitempty"`
}

type batchRequest struct {
	// Items takes precedence; Text is the line-delimited fallback where
	// blank lines and '#' comments are skipped.
	Items        []batchItemRequest `json:"items,omitempty"`
	Text         string             `json:"text,omitempty"`
	Voice        string             `json:"voice,omitempty"`
	ContextTexts []string           `json:"context_texts,omitempty"`
	SectionID    string             `json:"section_id,omitempty"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	defaultVoice := body.Voice
	if defaultVoice == "" {
		defaultVoice = s.cfg.TTS.DefaultVoice
	}

	var tasks []tts.Task
	if len(body.Items) > 0 {
		for _, item := range body.Items {
			if item.Text == "" {
				continue
			}
			voice := item.Voice
			if voice == "" {
				voice = defaultVoice
			}
			tasks = append(tasks, tts.Task{
				Index:        len(tasks),
				Text:         item.Text,
				Voice:        voice,
				ContextTexts: item.ContextTexts,
				SectionID:    item.SectionID,
			})
		}
	} else {
		tasks = taskset.ParseLines(body.Text, defaultVoice, body.ContextTexts, body.SectionID)
	}
	if len(tasks) == 0 {
		writeError(w, http.StatusBadRequest, "no synthesizable items in request")
		return
	}

	batchID := uuid.NewString()
	start := time.Now()
	s.log.Info("batch started",
		slog.String("batch_id", batchID), slog.Int("tasks", len(tasks)))

	results := s.proc.Process(r.Context(), tasks, func(res tts.Result) {
		s.recordBatchItem(r.Context(), res.Success())
		s.bus.PublishJSON(protocol.SubjectBatchItem, protocol.BatchItem{
			BatchID:   batchID,
			Index:     res.Index,
			Text:      res.Text,
			Success:   res.Success(),
			Error:     res.Err,
			AudioSize: len(res.Audio),
			Timestamp: time.Now().UTC(),
		})
	})

	failed := 0
	for _, res := range results {
		if !res.Success() {
			failed++
		}
	}
	elapsed := time.Since(start)

	s.bus.PublishJSON(protocol.SubjectBatchDone, protocol.BatchDone{
		BatchID:   batchID,
		Total:     len(results),
		Failed:    failed,
		ElapsedMS: elapsed.Milliseconds(),
		Timestamp: time.Now().UTC(),
	})
	s.log.Info("batch finished",
		slog.String("batch_id", batchID),
		slog.Int("tasks", len(results)),
		slog.Int("failed", failed),
		slog.Duration("elapsed", elapsed))

	if failed == len(results) {
		writeError(w, http.StatusBadGateway,
			fmt.Sprintf("all %d items failed, first error: %s", failed, results[0].Err))
		return
	}

	zipData, err := archive.BuildZip(results)
	if err != nil {
		s.log.Error("failed to build archive",
			slog.String("batch_id", batchID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.Itoa(len(zipData)))
	w.Header().Set("X-Batch-Id", batchID)
	w.Header().Set("X-Batch-Total", strconv.Itoa(len(results)))
	w.Header().Set("X-Batch-Failed", strconv.Itoa(failed))
	_, _ = w.Write(zipData)
}

func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, DefaultVoices)
}

func (s *Server) recordSynthesis(ctx context.Context, elapsed time.Duration, success bool) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	if s.synthTotal != nil {
		s.synthTotal.Add(ctx, 1, attrs)
	}
	if s.synthDuration != nil {
		s.synthDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

func (s *Server) recordBatchItem(ctx context.Context, success bool) {
	if s.batchItems != nil {
		s.batchItems.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	}
}
