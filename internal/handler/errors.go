package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/afk-bro/watershed-campground-sub004/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable code, a human-readable message and, for
// validation and conflict failures, the details needed to fix the request.
type ErrorDetail struct {
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Fields   []FieldError    `json:"fields,omitempty"`
	Conflict *ConflictDetail `json:"conflict,omitempty"`
}

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ConflictDetail identifies what a write collided with.
type ConflictDetail struct {
	Kind          string     `json:"kind"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	BlackoutID    *uuid.UUID `json:"blackout_id,omitempty"`
	Start         string     `json:"start,omitempty"`
	End           string     `json:"end,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "campsite not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return errorBody("not_found", message)
}

// requestBody returns an ErrorResponse for a request rejected before reaching
// the service layer (malformed JSON, unparsable parameter).
func requestBody(message string) ErrorResponse {
	return errorBody("bad_request", message)
}

// validationBody lists every field failure found in err.
func validationBody(err error) ErrorResponse {
	body := errorBody("validation_error", "request validation failed")
	for _, fe := range domain.FieldErrors(err) {
		body.Error.Fields = append(body.Error.Fields, FieldError{Field: fe.Field, Message: fe.Message})
	}
	if len(body.Error.Fields) == 1 {
		body.Error.Message = body.Error.Fields[0].Field + " " + body.Error.Fields[0].Message
	}
	return body
}

func conflictBody(ce *domain.ConflictError) ErrorResponse {
	d := &ConflictDetail{
		Kind:          string(ce.Kind),
		ReservationID: ce.ReservationID,
		BlackoutID:    ce.BlackoutID,
	}
	if !ce.Start.IsZero() {
		d.Start = domain.FormatDate(ce.Start)
		d.End = domain.FormatDate(ce.End)
	}
	msg := "the campsite is already booked for some of those dates"
	switch ce.Kind {
	case domain.ConflictBlackout:
		msg = "the campsite is closed for some of those dates"
	case domain.ConflictConcurrentWrite:
		msg = "another change was saved first; reload and try again"
	}
	return ErrorResponse{Error: ErrorDetail{Code: "conflict", Message: msg, Conflict: d}}
}

// respondError maps a service error to its HTTP response. notFound is the
// message used for domain.ErrNotFound. Unexpected errors are logged and
// reported without detail.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var ce *domain.ConflictError
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(notFound))
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody("forbidden", "forbidden"))
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, conflictBody(ce))
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict", "the change conflicts with existing records"))
	default:
		s.Log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", "an unexpected error occurred"))
	}
}
