package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

// viewResponse is the body of every /v1/views response. Location is the
// route the navigator currently points at.
type viewResponse struct {
	Location string `json:"location"`
	View     any    `json:"view"`
	Error    string `json:"error,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = 20
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return
}

// decodeFields reads a {"field": "value"} body.
func decodeFields(r *http.Request) (map[string]string, error) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, &domain.ErrValidation{Field: "body", Message: "corpo da requisição inválido"}
	}
	return fields, nil
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var notFound *domain.ErrNotFound
	var conflict *domain.ErrConflict
	var inFlight *domain.ErrInFlight
	var malformed *domain.ErrMalformedResponse
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict), errors.As(err, &inFlight):
		return http.StatusConflict
	case domain.IsRetryable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &malformed), errors.As(err, &external):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := errorStatus(err)
	logServiceError(status, err, logger)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// writeViewError answers a failed view action with the view's snapshot so the
// renderer can show the recorded ViewError.
func writeViewError(w http.ResponseWriter, err error, location string, view any, logger *zap.Logger) {
	status := errorStatus(err)
	logServiceError(status, err, logger)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(w, status, viewResponse{Location: location, View: view, Error: msg})
}

func logServiceError(status int, err error, logger *zap.Logger) {
	switch {
	case status >= 500:
		logger.Error("view action failed", zap.Int("status", status), zap.Error(err))
	case status == http.StatusUnauthorized:
		logger.Warn("unauthorized", zap.String("error", err.Error()))
	default:
		logger.Debug("view action rejected", zap.Int("status", status), zap.String("error", err.Error()))
	}
}
