package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.WithError(err).Error("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError), errors.Is(err, io.ErrUnexpectedEOF):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON payload", nil)
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field),
			[]apperr.FieldError{{Field: typeError.Field, Message: "Invalid value"}})
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body cannot be empty", nil)
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request body too large", nil)
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body", nil)
	}
}

// respondAppError maps an apperr kind to its status code. Unclassified errors are
// logged with the request id and reported as a generic 500.
func (s *Server) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("Internal server error", err)
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		var details interface{}
		if len(appErr.Fields) > 0 {
			details = appErr.Fields
		}
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", appErr.Message, details)
	case apperr.KindUnauthenticated:
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", appErr.Message, nil)
	case apperr.KindForbidden:
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", appErr.Message, nil)
	case apperr.KindNotFound:
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", appErr.Message, nil)
	case apperr.KindConflict:
		s.respondError(w, http.StatusConflict, "CONFLICT", appErr.Message, nil)
	default:
		s.logger.WithError(err).
			WithField("request_id", middleware.GetReqID(r.Context())).
			WithField("path", r.URL.Path).
			Error(appErr.Message)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", appErr.Message, nil)
	}
}
