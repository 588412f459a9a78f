package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/patternlab/patternlab/internal/engine"
	"github.com/patternlab/patternlab/internal/version"
)

const maxRequestBody = 64 * 1024

// handleExecute runs one playground action. The response shape is the
// dispatcher's uniform Response; the HTTP status mirrors its Status.
func (s *PlaygroundServer) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	resp := s.dispatcher.Execute(r.Context(), req)
	writeJSON(w, resp.Status, resp)
}

// handleListPatterns returns the catalog without code snippets or
// steps, which the per-pattern endpoint carries.
func (s *PlaygroundServer) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	type patternSummary struct {
		Category    string `json:"category"`
		Slug        string `json:"slug"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Actions     int    `json:"actions"`
	}

	all := s.registry.GetAll()
	summaries := make([]patternSummary, 0, len(all))
	for _, p := range all {
		summaries = append(summaries, patternSummary{
			Category:    p.Category,
			Slug:        p.Slug,
			Title:       p.Title,
			Description: p.Description,
			Actions:     len(p.Actions),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patterns": summaries,
		"count":    len(summaries),
	})
}

// handleGetPattern returns one pattern's full definition.
func (s *PlaygroundServer) handleGetPattern(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	slug := r.PathValue("slug")

	pattern, ok := s.registry.Get(category, slug)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   "Demo not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, pattern)
}

// handleSessionStats reports live session-store numbers.
func (s *PlaygroundServer) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Stats())
}

// handleHealth is the liveness probe.
func (s *PlaygroundServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := time.Duration(0)
	if !s.started.IsZero() {
		uptime = time.Since(s.started)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  version.Version,
		"patterns": s.registry.Count(),
		"sessions": s.sessions.Len(),
		"clients":  s.hub.ClientCount(),
		"uptime":   uptime.Round(time.Second).String(),
	})
}
