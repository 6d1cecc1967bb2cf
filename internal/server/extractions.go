package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dnx-plataformas/crm-leads/internal/extraction"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

type tenantRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	APIKey   string `json:"api_key"`
}

type watchRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	APIKey   string `json:"api_key"`
	// AutoImport imports the archive once the job finishes.
	AutoImport bool   `json:"auto_import"`
	Campaign   string `json:"campaign"`
}

type importResponse struct {
	Success bool `json:"success"`
	model.ImportSummary
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		fail(w, r, err)
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func (s *Server) listExtractions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	jobs, err := s.store.ListJobs(r.Context(), store.JobFilter{
		TenantID: tenantID,
		Status:   model.JobStatus(q.Get("status")),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []model.ExtractionJob{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) registerExtraction(w http.ResponseWriter, r *http.Request) {
	var req extraction.RegisterRequest
	if !s.decode(w, r, &req) {
		return
	}
	job, err := s.extraction.Register(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) getExtraction(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	job, err := s.extraction.Job(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) checkStatus(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if !s.decode(w, r, &req) {
		return
	}
	report, err := s.extraction.CheckStatus(r.Context(), extraction.StatusRequest{
		JobID:    chi.URLParam(r, "id"),
		TenantID: req.TenantID,
		APIKey:   req.APIKey,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) startWatch(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if !s.decode(w, r, &req) {
		return
	}
	jobID := chi.URLParam(r, "id")
	job, err := s.extraction.Job(r.Context(), req.TenantID, jobID)
	if err != nil {
		fail(w, r, err)
		return
	}

	statusReq := extraction.StatusRequest{JobID: jobID, TenantID: req.TenantID, APIKey: req.APIKey}
	err = s.watcher.Start(req.TenantID, jobID, func(ctx context.Context) {
		log := zap.L().With(zap.String("job_id", jobID), zap.String("tenant_id", req.TenantID))
		res, err := s.extraction.Watch(ctx, statusReq)
		if err != nil {
			log.Warn("server: watch ended with error", zap.Error(err))
			return
		}
		if res.Outcome != extraction.OutcomeCompleted || !req.AutoImport {
			return
		}
		summary, err := s.extraction.Import(ctx, extraction.ImportRequest{
			ProviderID: job.ProviderID,
			TenantID:   req.TenantID,
			APIKey:     req.APIKey,
			Campaign:   req.Campaign,
		})
		if err != nil {
			log.Error("server: auto import failed", zap.Error(err))
			return
		}
		log.Info("server: auto import complete",
			zap.Int("saved", summary.Saved),
			zap.Int("duplicated", summary.Duplicated),
			zap.Int("errors", summary.Errors),
		)
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "watching", "job_id": jobID})
}

func (s *Server) stopWatch(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	jobID := chi.URLParam(r, "id")
	if _, err := s.extraction.Job(r.Context(), tenantID, jobID); err != nil {
		fail(w, r, err)
		return
	}
	if !s.watcher.Stop(jobID) {
		writeError(w, http.StatusNotFound, "no watch running for this job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped", "job_id": jobID})
}

func (s *Server) listWatches(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	writeJSON(w, http.StatusOK, s.watcher.ActiveFor(tenantID))
}

func (s *Server) importExtraction(w http.ResponseWriter, r *http.Request) {
	var req extraction.ImportRequest
	if !s.decode(w, r, &req) {
		return
	}
	summary, err := s.extraction.Import(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Success: true, ImportSummary: summary})
}
