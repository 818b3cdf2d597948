package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/pipeline"
	"github.com/felixgeelhaar/appforge/internal/stream"
)

// POST /api/generate. Streams progress frames for the whole run and ends
// with exactly one terminal frame (result or error). A request hitting the
// operation ceiling or a dropped connection leaves the stream without a
// terminal frame, which the consumer reports as a termination error.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sw := stream.NewWriter(w)
	defer sw.Close()

	ctx, cancel := context.WithTimeout(r.Context(), s.operationTimeout)
	defer cancel()

	result, err := s.pipeline.Run(ctx, req, func(ev stream.Event) {
		if sendErr := sw.Send(ev); sendErr != nil {
			s.logger.WithError(sendErr).Warn("dropping progress frame")
		}
	})
	if err != nil {
		if sendErr := sw.SendError("", string(codeOf(err)), err.Error()); sendErr != nil {
			s.logger.WithError(sendErr).Warn("could not send error frame")
		}
		return
	}

	if sendErr := sw.SendResult(result); sendErr != nil {
		s.logger.WithError(sendErr).Warn("could not send result frame")
	}
}

// POST /api/generate/sync. Runs the pipeline without streaming and returns
// only the final result.
func (s *Server) handleGenerateSync(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.operationTimeout)
	defer cancel()

	result, err := s.pipeline.Run(ctx, req, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if encErr := json.NewEncoder(w).Encode(result); encErr != nil {
		s.logger.WithError(encErr).Warn("could not encode sync result")
	}
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return pipeline.Request{}, false
	}
	if s.IsShuttingDown() {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return pipeline.Request{}, false
	}

	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return pipeline.Request{}, false
	}
	if req.ProjectName == "" {
		http.Error(w, "projectName is required", http.StatusBadRequest)
		return pipeline.Request{}, false
	}
	return req, true
}

// errorBody is the JSON shape of a sync endpoint failure.
type errorBody struct {
	Code        string   `json:"code,omitempty"`
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var fe *errors.ForgeError
	if stderrors.As(err, &fe) {
		body.Code = string(fe.Code)
		body.Error = fe.Message
		body.Suggestions = fe.Suggestions
		status = statusFor(fe.Code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		s.logger.WithError(encErr).Warn("could not encode error body")
	}
}

// statusFor maps error codes onto HTTP statuses. Configuration problems are
// the caller's fault; backend trouble is upstream.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeBackendAuth:
		return http.StatusBadGateway
	case errors.ErrCodeBackendRateLimit:
		return http.StatusTooManyRequests
	case errors.ErrCodeBackendTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeTaskConfigMissing, errors.ErrCodeTaskConfigInvalid,
		errors.ErrCodePlanDepMissing, errors.ErrCodePlanCyclicDep:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func codeOf(err error) errors.ErrorCode {
	var fe *errors.ForgeError
	if stderrors.As(err, &fe) {
		return fe.Code
	}
	return errors.ErrCodeBackendAPI
}
