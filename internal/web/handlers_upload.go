package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/JonMunkholm/estoque-sync/internal/source"
)

// uploadSource names runs started from POST /produtos/importar.
const uploadSource = "upload"

// multipartMemory is how much of a multipart form is held in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// RunResponse wraps a run summary with the API status field.
type RunResponse struct {
	Status   string           `json:"status"`
	Execucao *core.RunSummary `json:"execucao,omitempty"`
	Mensagem string           `json:"mensagem,omitempty"`
}

// handleImport runs one batch over an uploaded spreadsheet (form field
// "arquivo").
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Sync.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("file too large: limit is %d bytes", maxSize), http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "VAL004", "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VAL004", "no file provided in field \"arquivo\"")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "VAL004", "uploaded file is empty")
		return
	}

	src, err := source.Open(uploadSource, header.Filename, data)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	summary, err := s.service.RunBatch(r.Context(), src)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeRun(w, summary)
}

// handleDriveSync runs a batch over the newest file in the Drive folder.
// ?forcar=true runs even when the file is unchanged.
func (s *Server) handleDriveSync(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.SyncRemote(r.Context(), parseBoolParam(r, "forcar"))
	switch {
	case errors.Is(err, core.ErrUnchanged):
		writeJSON(w, http.StatusOK, RunResponse{
			Status:   "inalterado",
			Mensagem: core.MapError(err).Message,
		})
		return
	case err != nil:
		respondError(w, r, err, statusFor(err))
		return
	}
	writeRun(w, summary)
}

// handleListRuns serves GET /produtos/sincronizacoes?limite=N.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context(), parseIntParam(r, "limite", 0))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if runs == nil {
		runs = []core.RunSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"execucoes": runs})
}

// writeRun answers 200 for every finished run. A fatal run error is a
// business result, reported through status and the summary's fatal field.
func writeRun(w http.ResponseWriter, summary *core.RunSummary) {
	status := statusSuccess
	if !summary.Succeeded() {
		status = statusFailure
	}
	writeJSON(w, http.StatusOK, RunResponse{Status: status, Execucao: summary})
}
