// Package handlers exposes the evaluation pipeline and run history over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MathematicalSoftware/AdEvaluator/internal/config"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/evaluation"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/history"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/sales"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/settings"
)

// Handler serves evaluation and history endpoints.
type Handler struct {
	cfg          *config.Config
	service      *evaluation.Service
	settingsRepo *settings.Repository
	historyRepo  *history.Repository
	log          zerolog.Logger
}

// NewHandler creates the evaluation handler.
func NewHandler(cfg *config.Config, service *evaluation.Service, settingsRepo *settings.Repository, historyRepo *history.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:          cfg,
		service:      service,
		settingsRepo: settingsRepo,
		historyRepo:  historyRepo,
		log:          log.With().Str("component", "evaluation_handlers").Logger(),
	}
}

// evaluateRequest carries per-run overrides. Unset fields fall back to the
// stored settings; pointer fields distinguish "not sent" from an explicit
// empty value (an empty column name enables header inference).
type evaluateRequest struct {
	Path string `json:"path,omitempty"` // Server-side path of the sales report
	CSV  string `json:"csv,omitempty"`  // Inline report content, alternative to Path

	BoundaryDate string  `json:"boundary_date,omitempty"`
	DateColumn   *string `json:"date_column,omitempty"`
	AmountColumn *string `json:"amount_column,omitempty"`
	TypeColumn   *string `json:"type_column,omitempty"`
	TypeFilter   *string `json:"type_filter,omitempty"`
	DateLayout   string  `json:"date_layout,omitempty"`
	DecimalComma *bool   `json:"decimal_comma,omitempty"`
	Strict       bool    `json:"strict,omitempty"`

	MovingAverageDays *int   `json:"moving_average_days,omitempty"`
	Simulations       *int   `json:"simulations,omitempty"`
	Seed              uint64 `json:"seed,omitempty"`

	Save bool `json:"save,omitempty"` // Store the result in the run history
}

type evaluateResponse struct {
	Result *evaluation.EvaluationResult `json:"result,omitempty"`
	Error  string                       `json:"error,omitempty"`
}

// HandleEvaluate runs one evaluation. Structural failures (missing column)
// return 422 with the offending column named; an insufficient-data failure
// also returns 422 but keeps the partial result so the client can display
// the aggregates and explain what went wrong.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	snapshot, err := h.settingsRepo.Snapshot(h.cfg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load settings")
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	runReq, closeSource, errMsg := h.buildRunRequest(&req, snapshot)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}
	defer closeSource()

	result, err := h.service.Run(r.Context(), *runReq)
	if err != nil {
		var columnErr *sales.ColumnNotFoundError
		var insufficientErr *evaluation.InsufficientDataError
		switch {
		case errors.As(err, &columnErr):
			respondJSON(w, http.StatusUnprocessableEntity, evaluateResponse{Error: columnErr.Error()})
		case errors.As(err, &insufficientErr):
			// Partial result: aggregates and warnings without a test outcome
			respondJSON(w, http.StatusUnprocessableEntity, evaluateResponse{Result: result, Error: insufficientErr.Error()})
		default:
			respondJSON(w, http.StatusUnprocessableEntity, evaluateResponse{Error: err.Error()})
		}
		return
	}

	if req.Save {
		if err := h.historyRepo.Save(result); err != nil {
			h.log.Error().Err(err).Str("run_id", result.RunID).Msg("Failed to store run")
		}
	}

	respondJSON(w, http.StatusOK, evaluateResponse{Result: result})
}

// buildRunRequest resolves the request against the stored settings.
// Returns a message instead of an error type: every failure here is a 400.
// The caller must invoke the returned cleanup func once the run finishes;
// it closes the sales report when the source is a file.
func (h *Handler) buildRunRequest(req *evaluateRequest, snapshot *settings.Snapshot) (*evaluation.RunRequest, func(), string) {
	noop := func() {}
	mapping := sales.ColumnMapping{
		DateColumn:   snapshot.DateColumn,
		AmountColumn: snapshot.AmountColumn,
		TypeColumn:   snapshot.TypeColumn,
		TypeFilter:   snapshot.TypeFilter,
	}
	if req.DateColumn != nil {
		mapping.DateColumn = *req.DateColumn
	}
	if req.AmountColumn != nil {
		mapping.AmountColumn = *req.AmountColumn
	}
	if req.TypeColumn != nil {
		mapping.TypeColumn = *req.TypeColumn
	}
	if req.TypeFilter != nil {
		mapping.TypeFilter = *req.TypeFilter
	}

	dateLayout := snapshot.DateLayout
	if req.DateLayout != "" {
		dateLayout = req.DateLayout
	}
	if dateLayout == "" {
		dateLayout = config.DefaultDateLayout
	}

	boundaryStr := snapshot.BoundaryDate
	if req.BoundaryDate != "" {
		boundaryStr = req.BoundaryDate
	}
	if boundaryStr == "" {
		return nil, noop, "advertising start date is not set"
	}
	boundary, err := time.Parse(dateLayout, boundaryStr)
	if err != nil {
		return nil, noop, "invalid advertising start date: " + boundaryStr
	}

	decimalComma := snapshot.DecimalComma
	if req.DecimalComma != nil {
		decimalComma = *req.DecimalComma
	}

	maDays := snapshot.MovingAverageDays
	if req.MovingAverageDays != nil {
		maDays = *req.MovingAverageDays
	}
	sims := snapshot.Simulations
	if req.Simulations != nil {
		sims = *req.Simulations
	}

	runReq := &evaluation.RunRequest{
		Mapping:           mapping,
		DateLayout:        dateLayout,
		DecimalComma:      decimalComma,
		Strict:            req.Strict,
		Boundary:          boundary,
		MovingAverageDays: maDays,
		Simulations:       sims,
		Seed:              req.Seed,
	}

	switch {
	case req.CSV != "":
		runReq.Source = strings.NewReader(req.CSV)
		runReq.Input = "inline"
	case req.Path != "":
		f, err := os.Open(req.Path)
		if err != nil {
			return nil, noop, "failed to open sales report: " + err.Error()
		}
		runReq.Source = f
		runReq.Input = req.Path
		return runReq, func() { f.Close() }, ""
	case snapshot.InputFile != "":
		f, err := os.Open(snapshot.InputFile)
		if err != nil {
			return nil, noop, "failed to open configured sales report: " + err.Error()
		}
		runReq.Source = f
		runReq.Input = snapshot.InputFile
		return runReq, func() { f.Close() }, ""
	default:
		return nil, noop, "no sales report provided: set \"path\" or \"csv\", or configure an input file"
	}

	return runReq, noop, ""
}

// HandleListHistory returns recent stored runs, newest first.
func (h *Handler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	summaries, err := h.historyRepo.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if summaries == nil {
		summaries = []history.RunSummary{}
	}
	respondJSON(w, http.StatusOK, summaries)
}

// HandleGetRun returns one stored run in full.
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	result, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandleGetRunReport renders a stored run as the plain-text report.
func (h *Handler) HandleGetRunReport(w http.ResponseWriter, r *http.Request) {
	result, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(evaluation.RenderReport(result)))
}

// HandleDeleteRun removes a stored run.
func (h *Handler) HandleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if err := h.historyRepo.Delete(runID); err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to delete run")
		respondError(w, http.StatusInternalServerError, "failed to delete run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*evaluation.EvaluationResult, bool) {
	runID := chi.URLParam(r, "id")
	result, err := h.historyRepo.Get(runID)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to load run")
		respondError(w, http.StatusInternalServerError, "failed to load run")
		return nil, false
	}
	if result == nil {
		respondError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	return result, true
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
