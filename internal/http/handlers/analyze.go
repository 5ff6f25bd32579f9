package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/realitycheck-ai/internal/analyzer"
	"github.com/wolfman30/realitycheck-ai/internal/audit"
	"github.com/wolfman30/realitycheck-ai/pkg/logging"
)

// DefaultMaxUploadBytes matches the web client's 5 MB upload limit.
const DefaultMaxUploadBytes int64 = 5 * 1024 * 1024

const (
	tooLargeMessage   = "File is too large. Please upload a file under 5 MB."
	badRequestMessage = "The request could not be read. Please try again."
	auditTimeout      = 2 * time.Second
)

var errUnreadableHistory = errors.New("history is not a list of turns")

// Analyzer runs one analyze call.
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (analyzer.Outcome, error)
}

// EventRecorder persists analyze metadata.
type EventRecorder interface {
	Record(ctx context.Context, ev audit.Event) error
}

// AnalyzeConfig configures AnalyzeHandler.
type AnalyzeConfig struct {
	MaxUploadBytes     int64
	ExposeErrorDetails bool
	PromptVersion      string
	Provider           string
}

// AnalyzeHandler serves POST /api/analyze.
type AnalyzeHandler struct {
	analyzer Analyzer
	recorder EventRecorder
	cfg      AnalyzeConfig
	logger   *logging.Logger
}

func NewAnalyzeHandler(a Analyzer, recorder EventRecorder, cfg AnalyzeConfig, logger *logging.Logger) *AnalyzeHandler {
	if a == nil {
		panic("handlers: analyzer cannot be nil")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AnalyzeHandler{analyzer: a, recorder: recorder, cfg: cfg, logger: logger}
}

type analyzeResponse struct {
	ResponseType string `json:"responseType"`
	Content      any    `json:"content"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	req, err := h.decodeRequest(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("analyze request too large", "limit_bytes", tooLarge.Limit)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: tooLargeMessage})
			return
		}
		h.logger.Warn("analyze request rejected", "error", err)
		resp := errorResponse{Error: badRequestMessage}
		if errors.Is(err, errUnreadableHistory) {
			resp.Error = analyzer.KindInvalidInput.UserMessage()
		}
		if h.cfg.ExposeErrorDetails {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	outcome, err := h.analyzer.Analyze(r.Context(), req)
	latency := time.Since(start)

	if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		// The timeout middleware owns the 504.
		h.logger.Warn("analyze deadline exceeded", "latency_ms", latency.Milliseconds())
		h.record(r.Context(), req, outcome, err, latency)
		return
	}

	if err != nil {
		aerr := analyzer.AsError(err)
		resp := errorResponse{Error: aerr.Kind.UserMessage()}
		if h.cfg.ExposeErrorDetails {
			resp.Details = aerr.Detail()
		}
		writeJSON(w, statusForKind(aerr.Kind), resp)
	} else {
		writeJSON(w, http.StatusOK, analyzeResponse{
			ResponseType: outcome.ResponseType(),
			Content:      outcome.Content(),
		})
	}

	// Flush before the audit insert so its latency stays off the response.
	_ = http.NewResponseController(w).Flush()
	h.record(r.Context(), req, outcome, err, latency)
}

func statusForKind(kind analyzer.ErrorKind) int {
	switch kind {
	case analyzer.KindNoContent, analyzer.KindInvalidInput:
		return http.StatusBadRequest
	case analyzer.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// decodeRequest reads a JSON body or the web client's multipart form.
func (h *AnalyzeHandler) decodeRequest(r *http.Request) (analyzer.Request, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return h.decodeMultipart(r)
	case "application/json", "":
		return decodeJSON(r.Body)
	default:
		return analyzer.Request{}, fmt.Errorf("unsupported content type %q", mediaType)
	}
}

type jsonAnalyzeRequest struct {
	Text    string          `json:"text"`
	History json.RawMessage `json:"history"`
}

func decodeJSON(body io.Reader) (analyzer.Request, error) {
	var payload jsonAnalyzeRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return analyzer.Request{}, nil
		}
		return analyzer.Request{}, fmt.Errorf("decode body: %w", err)
	}

	history, err := decodeHistory(payload.History)
	if err != nil {
		return analyzer.Request{}, err
	}
	return analyzer.Request{Text: payload.Text, History: history}, nil
}

// decodeHistory accepts a JSON array or a JSON string holding an array.
func decodeHistory(raw json.RawMessage) ([]analyzer.Turn, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", errUnreadableHistory, err)
		}
		if strings.TrimSpace(inner) == "" {
			return nil, nil
		}
		raw = json.RawMessage(inner)
	}
	var turns []analyzer.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("%w: %v", errUnreadableHistory, err)
	}
	return turns, nil
}

// decodeMultipart streams the form. File parts only set FileSubmitted and
// their bytes are discarded.
func (h *AnalyzeHandler) decodeMultipart(r *http.Request) (analyzer.Request, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return analyzer.Request{}, fmt.Errorf("read multipart: %w", err)
	}

	var (
		req        analyzer.Request
		rawHistory string
	)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return analyzer.Request{}, fmt.Errorf("read multipart: %w", err)
		}

		switch part.FormName() {
		case "file":
			if part.FileName() != "" {
				req.FileSubmitted = true
			}
			_, err = io.Copy(io.Discard, part)
		case "text":
			var b []byte
			b, err = io.ReadAll(part)
			req.Text = string(b)
		case "history":
			var b []byte
			b, err = io.ReadAll(part)
			rawHistory = string(b)
		default:
			_, err = io.Copy(io.Discard, part)
		}
		_ = part.Close()
		if err != nil {
			return analyzer.Request{}, fmt.Errorf("read multipart: %w", err)
		}
	}

	if strings.TrimSpace(rawHistory) != "" {
		turns, err := decodeHistory(json.RawMessage(rawHistory))
		if err != nil {
			// The web client sends history as a JSON string; unreadable history starts a fresh analysis.
			h.logger.Warn("ignoring unreadable history field",
				"error", err,
				"history_bytes", len(rawHistory),
				"mode", analyzer.Classify(nil),
			)
		} else {
			req.History = turns
		}
	}
	return req, nil
}

func (h *AnalyzeHandler) record(ctx context.Context, req analyzer.Request, outcome analyzer.Outcome, err error, latency time.Duration) {
	if h.recorder == nil {
		return
	}
	ev := audit.Event{
		Outcome:               string(outcome.Kind),
		Mode:                  string(outcome.Mode),
		ConfidenceSynthesized: outcome.ConfidenceSynthesized,
		BandingMismatch:       outcome.BandingMismatch,
		FileSubmitted:         req.FileSubmitted,
		HistoryLen:            len(req.History),
		TextLen:               len(req.Text),
		PromptVersion:         h.cfg.PromptVersion,
		Provider:              h.cfg.Provider,
		Latency:               latency,
	}
	if outcome.Assessment != nil {
		score := outcome.Assessment.Score
		ev.Score = &score
		ev.Verdict = string(outcome.Assessment.Verdict)
	}
	if err != nil {
		ev.ErrorKind = string(analyzer.KindOf(err))
		ev.Outcome = ev.ErrorKind
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if rerr := h.recorder.Record(recordCtx, ev); rerr != nil {
		h.logger.Error("failed to record analysis event", "error", rerr)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
