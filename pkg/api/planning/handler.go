// Package planning serves projections, assumptions and exports over HTTP.
package planning

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"noro_planning/pkg/core/assumption"
	"noro_planning/pkg/core/export"
	"noro_planning/pkg/core/projection"
	"noro_planning/pkg/core/store"
	"noro_planning/pkg/core/validate"
)

// maxBodyBytes bounds PUT /assumptions bodies.
const maxBodyBytes = 1 << 20

// Handler serves the planning API from one assumption store.
type Handler struct {
	store *store.AssumptionStore
}

// NewHandler returns a Handler backed by s.
func NewHandler(s *store.AssumptionStore) *Handler {
	return &Handler{store: s}
}

// SaveResponse is returned after the assumptions were written.
type SaveResponse struct {
	Revision    string                  `json:"revision"`
	Assumptions *assumption.Assumptions `json:"assumptions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter mounts the planning routes under /api/planning.
func NewRouter(logger zerolog.Logger, h *Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(RequestLogger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/planning", func(r chi.Router) {
		r.Get("/assumptions", h.GetAssumptions)
		r.Put("/assumptions", h.PutAssumptions)
		r.Post("/assumptions/reset", h.ResetAssumptions)

		r.Route("/{unit}", func(r chi.Router) {
			r.Get("/months/{year}", h.GetMonths)
			r.Get("/pl/{year}", h.GetPL)
			r.Get("/cash/{year}", h.GetCash)
			r.Get("/annual", h.GetAnnual)
			r.Get("/checks", h.GetChecks)
			r.Get("/export/{series}.csv", h.ExportCSV)
			r.Get("/report.html", h.Report)
		})
	})
	return router
}

func (h *Handler) GetAssumptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.store.LoadOrDefault(r.Context()))
}

// PutAssumptions accepts either a bare assumptions object or a saved
// document envelope. Absent fields take their default values.
func (h *Handler) PutAssumptions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("failed to read body: %w", err))
		return
	}
	// Client writes are never repaired: a truncated body must not be saved.
	a, err := assumption.DecodeStrict(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	rev, err := h.store.Save(r.Context(), a)
	switch {
	case errors.Is(err, assumption.ErrInvalid):
		writeError(w, r, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("revision", rev).Msg("assumptions saved")
	writeJSON(w, r, http.StatusOK, SaveResponse{Revision: rev, Assumptions: a})
}

func (h *Handler) ResetAssumptions(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.Reset(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, r, http.StatusOK, a)
}

func (h *Handler) GetMonths(w http.ResponseWriter, r *http.Request) {
	e, unit, year, ok := h.yearRequest(w, r)
	if !ok {
		return
	}
	months, err := e.ProjectMonths(year, unit)
	h.respond(w, r, months, err)
}

func (h *Handler) GetPL(w http.ResponseWriter, r *http.Request) {
	e, unit, year, ok := h.yearRequest(w, r)
	if !ok {
		return
	}
	pl, err := e.ProjectPL(year, unit)
	h.respond(w, r, pl, err)
}

func (h *Handler) GetCash(w http.ResponseWriter, r *http.Request) {
	e, unit, year, ok := h.yearRequest(w, r)
	if !ok {
		return
	}
	cash, err := e.ProjectCash(year, unit)
	h.respond(w, r, cash, err)
}

func (h *Handler) GetAnnual(w http.ResponseWriter, r *http.Request) {
	e, unit, ok := h.unitRequest(w, r)
	if !ok {
		return
	}
	summaries, err := e.SummarizeAnnual(unit)
	h.respond(w, r, summaries, err)
}

// GetChecks reports every statement identity the current plan breaks.
func (h *Handler) GetChecks(w http.ResponseWriter, r *http.Request) {
	unit, err := assumption.ParseUnit(chi.URLParam(r, "unit"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, err)
		return
	}
	report, err := validate.CheckPlan(h.store.LoadOrDefault(r.Context()), unit, validate.DefaultTolerance)
	if err == nil && !report.AllPassed {
		zerolog.Ctx(r.Context()).Warn().Int("failures", len(report.Failures)).Msg("plan does not tie out")
	}
	h.respond(w, r, report, err)
}

// ExportCSV streams one series as CSV. year defaults to the first simulated
// year and is ignored for the annual series.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	e, unit, ok := h.unitRequest(w, r)
	if !ok {
		return
	}
	series := chi.URLParam(r, "series")
	year := e.Years()[0]
	if q := r.URL.Query().Get("year"); q != "" {
		y, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid year %q", q))
			return
		}
		year = y
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, e, series, unit, year); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%s.csv", unit, series)))
	w.Write(buf.Bytes())
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	a := h.store.LoadOrDefault(r.Context())
	unit, err := assumption.ParseUnit(chi.URLParam(r, "unit"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, err)
		return
	}
	e, err := projection.NewEngine(a)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	page, err := export.HTMLReport(e, a, unit)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// unitRequest resolves the unit path parameter and builds an engine over the
// current assumptions.
func (h *Handler) unitRequest(w http.ResponseWriter, r *http.Request) (*projection.Engine, assumption.Unit, bool) {
	unit, err := assumption.ParseUnit(chi.URLParam(r, "unit"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, err)
		return nil, "", false
	}
	e, err := projection.NewEngine(h.store.LoadOrDefault(r.Context()))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return nil, "", false
	}
	return e, unit, true
}

func (h *Handler) yearRequest(w http.ResponseWriter, r *http.Request) (*projection.Engine, assumption.Unit, int, bool) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid year %q", raw))
		return nil, "", 0, false
	}
	e, unit, ok := h.unitRequest(w, r)
	return e, unit, year, ok
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, projection.ErrYearOutOfRange), errors.Is(err, projection.ErrUnknownUnit),
		errors.Is(err, export.ErrUnknownSeries):
		return http.StatusNotFound
	case errors.Is(err, assumption.ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, r, status, errorResponse{Error: strings.TrimSpace(err.Error())})
}
