package web

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/peopleimport/internal/core"
	"github.com/JonMunkholm/peopleimport/internal/logging"
	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
)

// maxImportBodySize bounds the /import request body, which only names a path.
const maxImportBodySize = 64 * 1024

const indexText = "CSV → JSON importer. POST /import { csvPath (optional) }"

// importRequest is the optional /import body.
type importRequest struct {
	CSVPath string `json:"csvPath"`
}

// importResponse reports one finished import together with the age
// distribution of everything stored so far.
type importResponse struct {
	ImportID   string               `json:"import_id"`
	Inserted   int                  `json:"inserted"`
	Skipped    int                  `json:"skipped"`
	TotalLines int                  `json:"totalLines"`
	Dist       core.AgeDistribution `json:"dist"`
}

type ageStatsResponse struct {
	Total int64                `json:"total"`
	Dist  core.AgeDistribution `json:"dist"`
}

type healthResponse struct {
	Status  string                    `json:"status"`
	Imports *core.ImportLimiterStatus `json:"imports,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, indexText)
}

// handleHealth pings the store and reports import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status: "unavailable",
			Error:  core.MapError(err).Message,
		})
		return
	}

	status := s.service.ImportLimiterStatus()
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Imports: &status})
}

// handleImport runs one import synchronously and answers with its counts
// and the resulting age distribution.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	req, err := decodeImportRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	path, err := s.service.ResolveCSVPath(req.CSVPath)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logger := logging.FromContext(r.Context())
	logger.Info("starting import", "path", path)

	result, err := s.service.Import(r.Context(), path)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	dist, err := s.service.AgeDistribution(r.Context())
	if err != nil {
		s.respondError(w, r, fmt.Errorf("age distribution: %w", err))
		return
	}
	s.service.LogAgeDistribution(r.Context(), dist)

	respondJSON(w, http.StatusOK, importResponse{
		ImportID:   result.ImportID,
		Inserted:   result.Inserted,
		Skipped:    result.Skipped,
		TotalLines: result.TotalLines,
		Dist:       dist,
	})
}

// decodeImportRequest reads the optional JSON body. An empty body selects
// the default CSV path.
func decodeImportRequest(w http.ResponseWriter, r *http.Request) (importRequest, error) {
	var req importRequest
	if r.Body == nil {
		return req, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBodySize))
	if err != nil {
		return req, fmt.Errorf("%w: %v", core.ErrInvalidImportRequest, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}
	if err := sonic.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: %v", core.ErrInvalidImportRequest, err)
	}
	return req, nil
}

func (s *Server) handleAgeStats(w http.ResponseWriter, r *http.Request) {
	dist, err := s.service.AgeDistribution(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ageStatsResponse{Total: dist.Total, Dist: dist})
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.RecentImports())
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importID")
	st, ok := s.service.ImportStatus(importID)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrImportNotFound, importID))
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// respondJSON encodes v and writes it with the given status.
// Encoding errors are logged since the status is already decided.
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		slog.Error("json encode error", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
