package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/config"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/feed"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/ner"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/report"
)

const (
	statusOK        = "ok"
	statusNoResults = "no_results"

	fetchWarning = "No se pudieron obtener noticias en este momento. Intenta de nuevo más tarde."
	emptyWarning = "Introduce una palabra clave para buscar."
)

type searcher interface {
	Search(ctx context.Context, query string) (*models.Report, error)
}

type server struct {
	log    *slog.Logger
	cfg    *config.API
	search searcher
	rec    ner.Recognizer
}

type errorResponse struct {
	Error string `json:"error"`
}

type searchResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	*models.Report
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/health", s.handleHealth)
	r.Get("/api/search", s.handleSearch)
	r.Get("/export.csv", s.handleExport)
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := ner.Probe(ctx, s.rec); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "recognizer": s.cfg.Recognizer.Backend})
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	page := report.Page{Query: s.cfg.DefaultQuery}
	status := http.StatusOK

	if r.URL.Query().Has("q") {
		page.Query = strings.TrimSpace(r.URL.Query().Get("q"))
		if page.Query == "" {
			page.Warning = emptyWarning
			status = http.StatusBadRequest
		} else {
			rep, err := s.runSearch(r.Context(), page.Query)
			switch {
			case err != nil:
				page.Warning = fetchWarning
				status = statusFor(err)
			default:
				page.Report = rep
			}
		}
	}

	var buf bytes.Buffer
	if err := report.RenderPage(&buf, page); err != nil {
		s.log.Error("render page", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query parameter q is required"})
		return
	}

	rep, err := s.runSearch(r.Context(), query)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	resp := searchResponse{Status: statusOK, Report: rep}
	if rep.Empty() {
		resp.Status = statusNoResults
		resp.Message = report.NoResultsMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		query = s.cfg.DefaultQuery
	}

	rep, err := s.runSearch(r.Context(), query)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if rep.Empty() {
		http.Error(w, report.NoResultsMessage, http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rep.Entries); err != nil {
		s.log.Error("write csv", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.CSVFileName))
	_, _ = w.Write(buf.Bytes())
}

func (s *server) runSearch(ctx context.Context, query string) (*models.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SearchTimeout)
	defer cancel()

	rep, err := s.search.Search(ctx, query)
	if err != nil {
		s.log.Warn("search failed",
			slog.String("query", query),
			slog.String("request_id", middleware.GetReqID(ctx)),
			slog.Any("err", err),
		)
		return nil, err
	}
	return rep, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, feed.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
