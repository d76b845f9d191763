// Package api exposes the analysis engine over HTTP: capture upload,
// per-job chat, health, and metrics. Handlers orchestrate the peripheral
// collaborators (blob storage, persistence, AI) around the engine; none of
// them can alter an analysis result.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"sip_call_diagnoser_go/internal/capture"
	"sip_call_diagnoser_go/internal/engine"
	"sip_call_diagnoser_go/internal/explain"
	"sip_call_diagnoser_go/internal/store"
)

const maxUploadBytes = 512 << 20

// Server wires the engine and its optional collaborators to HTTP routes.
type Server struct {
	analyzer *engine.Analyzer
	db       *store.Store
	blobs    *store.BlobStore
	ai       *explain.Client
	cors     []string
	log      logrus.FieldLogger
}

func New(analyzer *engine.Analyzer, db *store.Store, blobs *store.BlobStore, ai *explain.Client, corsOrigins []string) *Server {
	return &Server{
		analyzer: analyzer,
		db:       db,
		blobs:    blobs,
		ai:       ai,
		cors:     corsOrigins,
		log:      logrus.WithField("component", "api"),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /analyze/sip", s.handleAnalyze)
	mux.HandleFunc("POST /chat/{job_id}", s.handleChat)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.withCORS(mux)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeResponse struct {
	JobID          string                 `json:"job_id"`
	File           string                 `json:"file"`
	BucketPath     string                 `json:"bucket_path,omitempty"`
	PacketStats    *capture.PacketStats   `json:"packet_stats,omitempty"`
	CaptureContext string                 `json:"capture_context"`
	TotalCalls     int                    `json:"total_calls"`
	FileSummary    engine.FileSummary     `json:"file_summary"`
	FileAIInsight  string                 `json:"file_ai_insight,omitempty"`
	Calls          []engine.PerCallResult `json:"calls"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file received")
		return
	}
	defer file.Close()

	filename := header.Filename
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".pcap" && ext != ".pcapng" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("only pcap/pcapng supported: %s", filename))
		return
	}

	jobID := uuid.NewString()

	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	tmp.Close()

	// Original capture goes to blob storage before analysis; failures are
	// logged and forgotten.
	bucketPath := ""
	if s.blobs != nil {
		key := jobID + "/" + filename
		if location, err := s.blobs.UploadFile(ctx, tmpPath, key); err != nil {
			s.log.WithError(err).Warn("capture upload to blob storage failed")
		} else {
			bucketPath = location
		}
	}

	result, err := s.analyzer.AnalyzeCapture(ctx, tmpPath)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrDecodeUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, engine.ErrDecodeTimeout):
			writeError(w, http.StatusGatewayTimeout, err.Error())
		default:
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		}
		return
	}

	stats, err := capture.Stats(tmpPath)
	if err != nil {
		s.log.WithError(err).Warn("capture stats unavailable")
		stats = nil
	}

	insight := ""
	if s.ai != nil {
		insight = s.ai.FileInsight(ctx, filename, result)
	}

	s.persist(ctx, result, jobID, filename, bucketPath)

	resp := analyzeResponse{
		JobID:          jobID,
		File:           filename,
		BucketPath:     bucketPath,
		PacketStats:    stats,
		CaptureContext: captureContext(result, stats),
		TotalCalls:     result.TotalCalls,
		FileSummary:    result.FileSummary,
		FileAIInsight:  insight,
		Calls:          result.Calls,
	}
	writeJSON(w, http.StatusOK, resp)
}

// persist writes the job and call rows through the async store; a disabled
// store makes every call a no-op.
func (s *Server) persist(ctx context.Context, result *engine.AnalysisResult, jobID, filename, bucketPath string) {
	s.db.InsertJob(store.JobRow{
		ID:             jobID,
		Filename:       filename,
		TotalCalls:     result.TotalCalls,
		BucketPath:     bucketPath,
		OverallVerdict: result.FileSummary.OverallVerdict,
	})
	for _, call := range result.Calls {
		explanation := ""
		if s.ai != nil {
			// Best-effort: ExplainCall degrades to a stub on failure.
			explanation = s.ai.ExplainCall(ctx, call)
		}
		timeline, _ := json.Marshal(call.Timeline)
		s.db.InsertCall(store.CallRow{
			ID:                  uuid.NewString(),
			JobID:               jobID,
			CallID:              call.CallID,
			FinalVerdict:        string(call.FinalOutcome),
			Outcome:             string(call.Outcome),
			Reason:              call.Reason,
			RootCause:           call.RootCause,
			FailureStage:        string(call.FailureStage),
			ProtocolResponsible: string(call.ProtocolResponsible),
			Timeline:            timeline,
			AIExplanation:       explanation,
		})
	}
}

type chatRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	calls, err := s.db.CallsByJob(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	answer, err := s.ai.ChatAboutJob(r.Context(), calls, req.Question)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"job_id":   jobID,
		"question": req.Question,
		"answer":   answer,
	})
}

// captureContext classifies the capture from what the analysis decoded.
func captureContext(result *engine.AnalysisResult, stats *capture.PacketStats) string {
	sipEvents := 0
	rtpRecords := 0
	for _, call := range result.Calls {
		rtpRecords += call.Rtp.TotalPackets
		for _, entry := range call.Timeline {
			if entry.Kind == engine.TimelineKindSIP {
				sipEvents++
			}
		}
	}
	total := 0
	if stats != nil {
		total = stats.TotalPackets
	}
	return capture.Context(sipEvents, rtpRecords, total)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
