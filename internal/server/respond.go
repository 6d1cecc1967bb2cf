package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dnx-plataformas/crm-leads/internal/extraction"
	"github.com/dnx-plataformas/crm-leads/internal/lock"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/resilience"
	"github.com/dnx-plataformas/crm-leads/internal/store"
	"github.com/dnx-plataformas/crm-leads/pkg/databroker"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps err to a status code and writes it. Server errors are logged
// and their details kept out of the response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		zap.L().Error("server: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "internal error"
	}
	writeError(w, status, msg)
}

func statusFor(err error) (int, string) {
	var (
		validation validator.ValidationErrors
		download   *databroker.DownloadError
		unknown    *model.UnknownStatusError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.Is(err, extraction.ErrInvalidRequest), errors.Is(err, extraction.ErrNoAPIKey):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, extraction.ErrJobNotFound):
		return http.StatusNotFound, "extraction job not found"
	case errors.Is(err, databroker.ErrNotFound):
		return http.StatusNotFound, "extraction archive not found at the provider"
	case errors.Is(err, lock.ErrLocked):
		return http.StatusConflict, "an import is already running for this tenant"
	case errors.Is(err, store.ErrJobExists):
		return http.StatusConflict, "extraction already registered"
	case errors.As(err, &download):
		return http.StatusBadGateway, download.Message
	case errors.As(err, &unknown):
		return http.StatusBadGateway, unknown.Error()
	case resilience.IsTransient(err):
		return http.StatusBadGateway, "provider unavailable, try again later"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
