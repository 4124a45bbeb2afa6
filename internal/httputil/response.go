package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"microblog/internal/model"
)

// Error types outside the domain kinds.
const (
	ErrTypeUnauthorized     = "Unauthorized"
	ErrTypeMethodNotAllowed = "MethodNotAllowed"
	ErrTypeInternal         = "InternalError"
)

const internalErrorMessage = "internal server error"

// ErrorResponse is the failure envelope:
// {"result": false, "error_type": "...", "error_message": "..."}
type ErrorResponse struct {
	Result       bool   `json:"result"`
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
}

// ResultResponse is the bare success envelope.
type ResultResponse struct {
	Result bool `json:"result"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// headers are already sent, nothing useful to do on failure
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteOK writes {"result": true}.
func WriteOK(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, ResultResponse{Result: true})
}

// WriteError writes the failure envelope.
func WriteError(w http.ResponseWriter, status int, errType string, message string) {
	WriteJSON(w, status, ErrorResponse{
		Result:       false,
		ErrorType:    errType,
		ErrorMessage: message,
	})
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrTypeUnauthorized, message)
}

// WriteInternalError writes a 500 with a generic message.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, ErrTypeInternal, internalErrorMessage)
}

// StatusForKind maps a domain kind to its HTTP status.
func StatusForKind(kind model.Kind) int {
	switch kind {
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindAlreadyExists:
		return http.StatusConflict
	case model.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError writes the envelope for err. Domain errors keep their
// message; anything else is logged and hidden behind a generic 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var derr *model.Error
	if errors.As(err, &derr) {
		WriteError(w, StatusForKind(derr.Kind), derr.Kind.String(), derr.Message)
		return
	}

	log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	WriteInternalError(w)
}
