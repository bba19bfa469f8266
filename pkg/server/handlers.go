package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"mediatrust-hq/orchestrator/pkg/inspection"
	"mediatrust-hq/orchestrator/pkg/server/middleware"
	"mediatrust-hq/orchestrator/pkg/telemetry/logging"
)

// Failure reasons reported to the inspection failure counter.
const (
	failureValidation  = "validation"
	failureTimeout     = "timeout"
	failurePersistence = "persistence"
)

// handleInspect serves POST /inspect.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.recordFailure(failureValidation)
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrorDetail{
				Code:    middleware.CodeRequestTooLarge,
				Message: "request body too large",
			})
			return
		}
		s.writeError(w, r, &inspection.ValidationError{Field: "body", Message: "failed to read request body"})
		return
	}

	req, err := inspection.DecodeRequest(bytes.NewReader(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := logging.WithAssetID(r.Context(), req.AssetID)
	resp, err := s.deps.Inspector.Inspect(ctx, req)
	if err != nil {
		s.writeError(w, r.WithContext(ctx), err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleReport serves GET /report/{assetId}.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when it is set, leaving the segment escaped;
	// otherwise the segment comes from the already-decoded Path.
	assetID := chi.URLParam(r, "assetId")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(assetID); err == nil {
			assetID = unescaped
		}
	}

	ctx := logging.WithAssetID(r.Context(), assetID)
	resp, err := s.deps.Inspector.GetReport(ctx, assetID)
	if err != nil {
		s.writeError(w, r.WithContext(ctx), err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeError maps service errors onto HTTP responses: validation failures
// are 400, missing reports 404, deadline expiry 504, anything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *inspection.ValidationError
	switch {
	case errors.As(err, &validationErr):
		if r.Method == http.MethodPost {
			s.recordFailure(failureValidation)
		}
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrorDetail{
			Code:    middleware.CodeInvalidRequest,
			Message: validationErr.Message,
			Field:   validationErr.Field,
		})

	case errors.Is(err, inspection.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrorDetail{
			Code:    middleware.CodeNotFound,
			Message: "no report found for asset",
		})

	case errors.Is(err, context.DeadlineExceeded):
		if r.Method == http.MethodPost {
			s.recordFailure(failureTimeout)
		}
		middleware.WriteError(w, http.StatusGatewayTimeout, middleware.ErrorDetail{
			Code:    middleware.CodeTimeout,
			Message: "request timeout: the request took too long to complete",
		})

	default:
		if r.Method == http.MethodPost {
			s.recordFailure(failurePersistence)
		}
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrorDetail{
			Code:    middleware.CodeInternal,
			Message: "an internal error occurred",
		})
	}
}

func (s *Server) recordFailure(reason string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordInspectionFailure(reason)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
