package handler

// RESPONSE HELPERS:
// Every JSON response goes through writeJSON, and every failure through
// writeError, so all endpoints agree on one error shape:
//
//	{"error": "rating must be 0-10"}
//
// Dashboard clients show the string as-is, so it must always be something a
// person can read and must never carry driver or SQL detail.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/interview-tracker/internal/apperror"
)

// MsgInternal is the body of any 500 not caused by a known store operation.
const MsgInternal = "Internal server error"

// ErrorResponse is the error format returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set before the body: once Encode writes, the
// header block is gone.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
//	apperror.ErrValidation  → 400
//	apperror.ErrNotFound    → 404
//	apperror.ErrUnavailable → 500 with the operation's generic message
//	anything else           → 500 "Internal server error"
//
// The service layer has already logged store failures with their cause.
func writeError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func errorStatus(err error) (int, string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		return http.StatusInternalServerError, MsgInternal
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, appErr.Message
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, appErr.Message
	default:
		return http.StatusInternalServerError, appErr.Message
	}
}

// NotFound answers requests that matched no route.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found"})
}

// MethodNotAllowed answers requests whose path exists under another method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
}
