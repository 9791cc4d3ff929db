package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/butter/internal/engine"
	"github.com/leapstack-labs/butter/pkg/diagnostic"
	"github.com/leapstack-labs/butter/pkg/resolver"
	"github.com/leapstack-labs/butter/pkg/schema"
	"github.com/starfederation/datastar-go/datastar"
)

func (s *Server) routes(r chi.Router) {
	r.Get("/healthz", s.health)
	r.Get("/schema", s.schema)
	r.Get("/queries", s.queries)
	r.Get("/queries/*", s.query)
	r.Post("/analyze", s.analyze)
	r.Get("/events", s.events)
}

type healthResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

type schemaResponse struct {
	Dialect string          `json:"dialect"`
	Tables  []*schema.Table `json:"tables"`
}

type analyzeRequest struct {
	SQL string `json:"sql"`
}

type analyzeResponse struct {
	Statements  []*resolver.QueryAnalysis `json:"statements"`
	Diagnostics diagnostic.List           `json:"diagnostics"`
}

type errorResponse struct {
	Error      string                 `json:"error"`
	Diagnostic *diagnostic.Diagnostic `json:"diagnostic,omitempty"`
}

// health reports whether a report is being served and whether the last
// run failed.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	report, err := s.Current()
	resp := healthResponse{Status: "ok"}
	status := http.StatusOK
	switch {
	case report == nil:
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	case err != nil:
		resp.Status = "degraded"
	}
	if report != nil {
		resp.RunID = report.RunID
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

func (s *Server) schema(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.ready(w)
	if !ok {
		return
	}
	tables := report.Schema
	if tables == nil {
		tables = []*schema.Table{}
	}
	writeJSON(w, http.StatusOK, schemaResponse{Dialect: report.Dialect, Tables: tables})
}

func (s *Server) queries(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.ready(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// query returns the result of one file, addressed by its report path.
func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	report, ok := s.ready(w)
	if !ok {
		return
	}
	path := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	for _, f := range report.Files {
		if f.Path == path {
			writeJSON(w, http.StatusOK, f)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "no query file " + path})
}

// analyze resolves ad-hoc SQL against the current schema.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	report, ok := s.ready(w)
	if !ok {
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "sql is required"})
		return
	}

	analyses, err := resolver.New(report.Model, s.engine.Dialect()).ResolveSQL(req.SQL)
	if err != nil {
		d := diagnostic.FromError("", req.SQL, err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: d.Error(), Diagnostic: d})
		return
	}

	diags := engine.Findings("", req.SQL, analyses)
	if diags == nil {
		diags = diagnostic.List{}
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Statements: analyses, Diagnostics: diags})
}

// events streams a signal patch after every run until the client leaves.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)

	if err := sse.MarshalAndPatchSignals(s.signals()); err != nil {
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := sse.MarshalAndPatchSignals(s.signals()); err != nil {
				s.logger.Debug("event stream closed", "error", err)
				return
			}
		}
	}
}

type signals struct {
	RunID    string `json:"runId"`
	Files    int    `json:"files"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
	Failure  string `json:"failure"`
}

func (s *Server) signals() signals {
	report, err := s.Current()
	var sig signals
	if report != nil {
		sig.RunID = report.RunID
		sig.Files = len(report.Files)
		sig.Errors = report.Diagnostics.Count(diagnostic.SeverityError)
		sig.Warnings = report.Diagnostics.Count(diagnostic.SeverityWarning)
	}
	if err != nil {
		sig.Failure = err.Error()
	}
	return sig
}

// ready returns the current report, or writes 503 when there is none.
func (s *Server) ready(w http.ResponseWriter) (*engine.Report, bool) {
	report, err := s.Current()
	if report != nil {
		return report, true
	}
	msg := ErrNotReady.Error()
	if err != nil {
		msg += ": " + err.Error()
	}
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msg, Diagnostic: asDiagnostic(err)})
	return nil, false
}

func asDiagnostic(err error) *diagnostic.Diagnostic {
	var d *diagnostic.Diagnostic
	if errors.As(err, &d) {
		return d
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
