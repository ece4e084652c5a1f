package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/ats-checker/internal/types"
	"github.com/jonathan/ats-checker/internal/validation"
)

const (
	// documentField is the multipart field carrying the resume upload.
	documentField = "resume"
	// maxUploadBytes leaves room for multipart framing around a document at the validation limit.
	maxUploadBytes = validation.MaxDocumentBytes + 1<<20
	maxJSONBytes   = 1 << 20
	maxFormMemory  = 8 << 20
)

// JobDescriptionRequest is the body of PUT /job-description.
type JobDescriptionRequest struct {
	JobDescription *string `json:"job_description"`
}

// SubmitResponse is the body of POST /submit.
type SubmitResponse struct {
	Accepted bool                `json:"accepted"`
	State    types.StateSnapshot `json:"state"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, types.Snapshot(s.ctrl.State()))
}

func (s *Server) handleInput(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.ctrl.Input().View())
}

// handlePutDocument replaces the pending document with a multipart upload in the "resume" field.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, validation.ReasonDocumentTooLarge)
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(documentField)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Missing file field \""+documentField+"\"")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}

	s.ctrl.SetDocument(types.NewDocument(header.Filename, data))
	s.jsonResponse(w, http.StatusOK, s.ctrl.Input().View())
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.ClearDocument()
	s.jsonResponse(w, http.StatusOK, s.ctrl.Input().View())
}

// handlePutJobDescription replaces the pending job description. The text is stored verbatim.
func (s *Server) handlePutJobDescription(w http.ResponseWriter, r *http.Request) {
	var req JobDescriptionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.JobDescription == nil {
		s.errorResponse(w, http.StatusBadRequest, "job_description is required")
		return
	}

	s.ctrl.SetJobDescription(*req.JobDescription)
	s.jsonResponse(w, http.StatusOK, s.ctrl.Input().View())
}

// handleSubmit asks the controller to submit the pending input. Invalid input is accepted
// and reported through the returned state; a submission already in flight is a conflict.
func (s *Server) handleSubmit(w http.ResponseWriter, _ *http.Request) {
	if !s.ctrl.Submit() {
		state := s.ctrl.State()
		if _, inFlight := state.(types.InFlight); inFlight {
			s.jsonResponse(w, http.StatusConflict, SubmitResponse{State: types.Snapshot(state)})
			return
		}
		s.errorResponse(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	s.jsonResponse(w, http.StatusAccepted, SubmitResponse{Accepted: true, State: types.Snapshot(s.ctrl.State())})
}

