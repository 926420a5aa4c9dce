package web

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cardpress/cardpress/internal/logging"
	"github.com/cardpress/cardpress/internal/roster"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUploadRoster accepts a roster file (multipart field "file") and
// replaces the batch's employee data. Returns the parse outcome, including
// per-row rejections.
func (s *Server) handleUploadRoster(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUploadedFile(w, r, s.cfg.Upload.MaxRosterSize)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	parsed, err := s.batch.LoadRoster(filename, data)
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fileName":    filename,
		"fileFormat":  parsed.FileFormat,
		"employees":   len(parsed.Employees),
		"invalidRows": parsed.InvalidRows,
	})
}

// handleUploadArchive accepts a photo archive (multipart field "file") and
// kicks off a reconciliation pass. The pass runs in the background; clients
// follow it on /api/batch/progress.
func (s *Server) handleUploadArchive(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUploadedFile(w, r, s.cfg.Upload.MaxArchiveSize)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.batch.LoadArchive(filename, data); err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"fileName": filename,
		"status":   "reconciling",
	})
}

// handleGetBatch returns the current batch snapshot: roster, reconciliation
// result and state, all from the same committed pass.
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.batch.Snapshot())
}

// handleRematch forces a fresh reconciliation pass.
func (s *Server) handleRematch(w http.ResponseWriter, r *http.Request) {
	if err := s.batch.Rematch(); err != nil {
		s.respondError(w, r, err, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reconciling"})
}

// updateEmployeeRequest is the body of PATCH /api/employees/{employeeID}.
type updateEmployeeRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// handleUpdateEmployee applies a single-field edit to one employee.
func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var req updateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	if err := s.batch.UpdateEmployee(employeeID, req.Field, req.Value); err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, s.batch.Snapshot())
}

// handleBatchProgress streams reconciliation progress as server-sent events.
// The stream stays open across passes; each event carries the pass ID so
// clients can tell a new pass from a resumed one.
func (s *Server) handleBatchProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, fmt.Errorf("streaming not supported"), http.StatusInternalServerError)
		return
	}

	events, cancel := s.batch.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	logging.FromContext(r.Context()).Debug("progress stream opened")

	eventID := 0
	for {
		select {
		case progress, ok := <-events:
			if !ok {
				return
			}
			eventID++
			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", eventID, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleExportInvalidRows downloads the current batch's rejected rows as CSV
// so the user can fix them in their source file.
func (s *Server) handleExportInvalidRows(w http.ResponseWriter, r *http.Request) {
	snap := s.batch.Snapshot()
	if snap.Parsed == nil {
		s.respondError(w, r, fmt.Errorf("no roster loaded"), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="invalid-rows.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"Row", "Errors"})
	for _, row := range snap.Parsed.InvalidRows {
		cw.Write([]string{strconv.Itoa(row.RowNumber), strings.Join(row.Errors, "; ")})
	}
	cw.Flush()
}

// handleDownloadTemplate serves a roster template with the expected column
// headers and one example row.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="roster-template.csv"`)

	cw := csv.NewWriter(w)
	cw.Write(roster.TemplateHeader())
	cw.Write([]string{"Asha Verma", "24EMP001", "9876543210", "O+", "2024-06-01", "2026-06-01", "example.com"})
	cw.Flush()
}

// readUploadedFile extracts the multipart "file" field, bounded by maxSize.
func (s *Server) readUploadedFile(w http.ResponseWriter, r *http.Request, maxSize int64) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return "", nil, fmt.Errorf("parse upload form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("no file provided")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read uploaded file: %w", err)
	}
	return header.Filename, data, nil
}
