package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/payorsync/internal/core"
	"github.com/JonMunkholm/payorsync/internal/logging"
	"github.com/go-chi/chi/v5"
)

// xlsxContentType is the media type of exported workbooks.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipartMemory is how much of a compare upload is buffered in memory
// before the rest spills to temporary files.
const multipartMemory = 32 << 20

// RunResponse is the JSON view of a comparison run.
type RunResponse struct {
	ID             string                       `json:"id"`
	OldFile        string                       `json:"oldFile"`
	NewFile        string                       `json:"newFile"`
	CreatedAt      time.Time                    `json:"createdAt"`
	ComparisonDate string                       `json:"comparisonDate"`
	SheetsCompared []string                     `json:"sheetsCompared"`
	Summaries      map[string]core.SheetSummary `json:"summaries"`
	ChangeCount    int                          `json:"changeCount"`
	ExportRowCount int                          `json:"exportRowCount"`
	Changes        []core.ChangeRecord          `json:"changes"`
	ExportURL      string                       `json:"exportUrl,omitempty"`
}

func toRunResponse(run *core.Run) RunResponse {
	cs := run.ChangeSet
	resp := RunResponse{
		ID:             run.ID,
		OldFile:        run.OldFile,
		NewFile:        run.NewFile,
		CreatedAt:      run.CreatedAt,
		ComparisonDate: cs.ComparisonDate,
		SheetsCompared: cs.SheetsCompared,
		Summaries:      cs.Summaries,
		ChangeCount:    len(cs.Changes),
		ExportRowCount: cs.ExportRowCount(),
		Changes:        cs.Changes,
	}
	if cs.HasChanges() {
		resp.ExportURL = "/api/runs/" + run.ID + "/export"
	}
	return resp
}

// handleHealth reports liveness and comparison capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"comparisons": s.service.LimiterStatus(),
	})
}

// handleCompare accepts the old (complete) and new (changes-only) workbooks
// as multipart fields "old" and "new" and runs a comparison.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	// Two files plus form overhead
	maxBody := 2*s.cfg.Compare.MaxFileSize + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, maxBody),
				http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	oldFile, oldHeader, err := formFile(r, "old")
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	defer oldFile.Close()

	newFile, newHeader, err := formFile(r, "new")
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	defer newFile.Close()

	run, err := s.service.Compare(r.Context(), core.CompareRequest{
		OldName: oldHeader.Filename,
		Old:     oldFile,
		NewName: newHeader.Filename,
		New:     newFile,
	})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Location", "/api/runs/"+run.ID)
	writeJSON(w, http.StatusCreated, toRunResponse(run))
}

// formFile returns the named multipart file or errNoFile.
func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	f, h, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%w for field %q", errNoFile, field)
	}
	return f, h, nil
}

// handleGetRun returns a stored comparison run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Run(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

// handleExport streams the changes-only workbook for a run.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	file, err := s.service.Export(r.Context(), runID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		// Headers are sent; the client sees a truncated download.
		logging.FromContext(r.Context()).Warn("export write failed", "run_id", runID, "error", err)
	}
}

// handleHistory lists recent run summaries, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultHistoryLimit)

	summaries, err := s.service.History(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if summaries == nil {
		summaries = []core.RunSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleStatus returns the current state of the comparison limiter.
// Used for monitoring and to check if the system can accept more comparisons.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// parseIntParam reads a positive integer query parameter, falling back to
// defaultVal when it is missing or invalid.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil || val <= 0 {
		return defaultVal
	}
	return val
}
