package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dnx-plataformas/crm-leads/internal/importer"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

type leadResponse struct {
	Lead     *model.Lead          `json:"lead"`
	Company  *model.CompanyDetail `json:"company,omitempty"`
	Officers []model.Officer      `json:"officers,omitempty"`
	Person   *model.PersonDetail  `json:"person,omitempty"`
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	leads, err := s.store.ListLeads(r.Context(), store.LeadFilter{
		TenantID: tenantID,
		Campaign: q.Get("campaign"),
		Source:   q.Get("source"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) getLead(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	ctx := r.Context()
	lead, err := s.store.GetLead(ctx, tenantID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if lead == nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}

	resp := leadResponse{Lead: lead}
	if resp.Company, err = s.store.GetCompanyDetailByLead(ctx, lead.ID); err != nil {
		fail(w, r, err)
		return
	}
	if resp.Company != nil {
		if resp.Officers, err = s.store.ListOfficers(ctx, resp.Company.ID); err != nil {
			fail(w, r, err)
			return
		}
	}
	if resp.Person, err = s.store.GetPersonDetailByLead(ctx, lead.ID); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// importLeads accepts a multipart upload with fields file, tenant_id and
// campaign.
func (s *Server) importLeads(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	tenantID := r.FormValue("tenant_id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		fail(w, r, err)
		return
	}

	summary, err := s.importer.ImportSpreadsheet(r.Context(), importer.Request{
		TenantID: tenantID,
		Campaign: r.FormValue("campaign"),
	}, header.Filename, data)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			// Unreadable or malformed spreadsheets.
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Success: true, ImportSummary: summary})
}
