package handlers

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/constants"
	"github.com/kozaktomas/face-compare/internal/intake"
	"github.com/kozaktomas/face-compare/internal/view"
	"github.com/kozaktomas/face-compare/internal/workflow"
)

// CompareHandler exposes the comparison workflow.
type CompareHandler struct {
	controller *workflow.Controller
	msgs       *config.Messages
}

// NewCompareHandler creates a new compare handler.
func NewCompareHandler(controller *workflow.Controller, msgs *config.Messages) *CompareHandler {
	return &CompareHandler{
		controller: controller,
		msgs:       msgs,
	}
}

// parseUpload parses a multipart body and returns the files of field.
func parseUpload(w http.ResponseWriter, r *http.Request, field string) ([]*multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBody)
	if err := r.ParseMultipartForm(constants.MaxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return nil, false
	}
	return r.MultipartForm.File[field], true
}

// readFiles converts uploaded parts into image files in upload order.
func readFiles(headers []*multipart.FileHeader) ([]*intake.ImageFile, error) {
	files := make([]*intake.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := intake.FromMultipart(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// State returns the presentation snapshot of the workflow.
func (h *CompareHandler) State(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.controller.View())
}

// SelectReference accepts one base_image part.
func (h *CompareHandler) SelectReference(w http.ResponseWriter, r *http.Request) {
	headers, ok := parseUpload(w, r, "base_image")
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	if len(headers) != 1 {
		respondError(w, http.StatusBadRequest, "exactly one base_image is required")
		return
	}

	files, err := readFiles(headers)
	if err != nil {
		log.Printf("reading reference %s: %v", sanitizeForLog(headers[0].Filename), err)
		respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	if err := h.controller.SelectReference(files[0]); err != nil {
		respondValidationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.controller.View())
}

// SelectCandidates accepts the comparison_images parts as one batch.
func (h *CompareHandler) SelectCandidates(w http.ResponseWriter, r *http.Request) {
	headers, ok := parseUpload(w, r, "comparison_images")
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, h.msgs.MissingCandidates)
		return
	}
	if err := h.controller.CheckBatchSize(len(headers)); err != nil {
		respondValidationError(w, err)
		return
	}

	files, err := readFiles(headers)
	if err != nil {
		log.Printf("reading candidates: %v", err)
		respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	if err := h.controller.SelectCandidates(files); err != nil {
		respondValidationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.controller.View())
}

// compareResponse is returned when a comparison has been started.
type compareResponse struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
}

// Compare starts the comparison in the background. Progress and the
// outcome are published on the events stream and in the state.
func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	id, _, err := h.controller.Start(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, workflow.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, h.msgs.SubmissionInFlight)
		return
	case errors.Is(err, workflow.ErrMissingReference):
		respondError(w, http.StatusBadRequest, h.msgs.MissingReference)
		return
	case errors.Is(err, workflow.ErrMissingCandidates):
		respondError(w, http.StatusBadRequest, h.msgs.MissingCandidates)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, h.msgs.SubmissionFailed)
		return
	}

	respondJSON(w, http.StatusAccepted, compareResponse{
		SubmissionID: id,
		Status:       string(workflow.PhaseSubmitting),
	})
}

// Events streams workflow events via SSE.
func (h *CompareHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r, h.controller, func() any {
		return h.controller.View()
	})
}

// Report returns the result of the last successful comparison.
func (h *CompareHandler) Report(w http.ResponseWriter, _ *http.Request) {
	v := h.controller.View()
	if v.State.Phase != workflow.PhaseSucceeded || v.State.Response == nil {
		respondError(w, http.StatusNotFound, "no comparison result available")
		return
	}
	respondJSON(w, http.StatusOK, view.NewReport(v.State.Response, v.ResultNames, h.msgs))
}

// previewsResponse bundles the reference preview with the candidate grid.
type previewsResponse struct {
	Reference  *workflow.ReferenceView `json:"reference,omitempty"`
	Candidates view.PreviewGrid        `json:"candidates"`
}

// Previews returns the preview grid. The optional limit query parameter
// bounds the number of entries.
func (h *CompareHandler) Previews(w http.ResponseWriter, r *http.Request) {
	limit := constants.PreviewGridLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > constants.MaxCandidates {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	v := h.controller.View()
	respondJSON(w, http.StatusOK, previewsResponse{
		Reference:  v.Reference,
		Candidates: view.NewPreviewGrid(v.Previews, limit),
	})
}

// Reset discards the selections, previews, result and error.
func (h *CompareHandler) Reset(w http.ResponseWriter, _ *http.Request) {
	h.controller.Reset()
	respondJSON(w, http.StatusOK, h.controller.View())
}
