package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apihttp "github.com/ClareAI/astra-voice-admin/internal/adapters/http"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/ClareAI/astra-voice-admin/internal/services/assistant"
	"github.com/ClareAI/astra-voice-admin/internal/wizard"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Step  int    `json:"step,omitempty"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Base().Warn("failed to encode response", zap.Error(err))
	}
}

// writeError maps err to a status code and writes the most specific message
// available for it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := errorResponse{Error: apihttp.UserMessage(err)}

	var stepErr *wizard.StepError
	var apiErr *apihttp.APIError
	switch {
	case errors.As(err, &stepErr):
		status = http.StatusUnprocessableEntity
		body.Step = int(stepErr.Step)
		body.Field = stepErr.Field
		body.Error = stepErr.Message
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, assistant.ErrOwnerImmutable):
		status = http.StatusConflict
	case errors.Is(err, wizard.ErrNotFinalStep), errors.Is(err, wizard.ErrStepNotReached):
		status = http.StatusConflict
	case errors.As(err, &apiErr):
		// Backend client errors pass through; anything else is a bad gateway.
		status = http.StatusBadGateway
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
	case errors.As(err, new(*requestError)), errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

// report turns the outcome of a console mutation into a toast. Failures carry
// the same message as the error response.
func report(ctx context.Context, n notify.Notifier, err error, success string) {
	if n == nil {
		return
	}
	if err != nil {
		n.Error(ctx, apihttp.UserMessage(err))
		return
	}
	n.Success(ctx, success)
}

// requestError is a malformed or incomplete request.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("Invalid request body")
	}
	return nil
}
