package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dnx-plataformas/crm-leads/internal/extraction"
	"github.com/dnx-plataformas/crm-leads/internal/importer"
	"github.com/dnx-plataformas/crm-leads/internal/lock"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/resilience"
	"github.com/dnx-plataformas/crm-leads/internal/store"
	"github.com/dnx-plataformas/crm-leads/pkg/databroker"
	"github.com/dnx-plataformas/crm-leads/pkg/databroker/mocks"
)

type testEnv struct {
	store   *store.SQLiteStore
	client  *mocks.MockClient
	server  *Server
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	client := mocks.NewMockClient(t)
	im := importer.New(st, nil)
	svc := extraction.NewService(st, im, func(string) databroker.Client { return client },
		extraction.WithDefaultAPIKey("key"),
		extraction.WithPoller(extraction.NewPoller(extraction.WithPollInterval(time.Millisecond))),
	)
	srv := New(Deps{Store: st, Extraction: svc, Importer: im})
	t.Cleanup(srv.Watcher().Shutdown)

	return &testEnv{store: st, client: client, server: srv, handler: srv.Routes()}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) job(t *testing.T, providerID string) *model.ExtractionJob {
	t.Helper()
	job := &model.ExtractionJob{ProviderID: providerID, TenantID: "tenant-a", ArchiveName: "Campanha"}
	require.NoError(t, e.store.CreateJob(context.Background(), job))
	return job
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func companyZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("empresas.csv")
	require.NoError(t, err)
	_, err = w.Write([]byte("CNPJ\trazaoSocial\n123\tCURTA\n11222333000181\tACME LTDA\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rr := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "ok", decodeBody(t, rr)["status"])
}

func TestRegisterAndGetExtraction(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodPost, "/api/extractions", map[string]any{
		"provider_id": "ext-1", "tenant_id": "tenant-a", "archive_name": "Campanha",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decodeBody(t, rr)["id"].(string)

	rr = e.do(t, http.MethodPost, "/api/extractions", map[string]any{"provider_id": "ext-1", "tenant_id": "tenant-a"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/extractions", map[string]any{"tenant_id": "tenant-a"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/extractions/"+id+"?tenant_id=tenant-a", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pending", decodeBody(t, rr)["status"])

	rr = e.do(t, http.MethodGet, "/api/extractions/"+id+"?tenant_id=tenant-b", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/extractions?tenant_id=tenant-a", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var jobs []model.ExtractionJob
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &jobs))
	assert.Len(t, jobs, 1)
}

func TestCheckStatus(t *testing.T) {
	e := newTestEnv(t)
	job := e.job(t, "ext-1")
	e.client.On("Status", mock.Anything, "ext-1").
		Return(&databroker.StatusResponse{Status: "Processando", QuantityRequested: 100}, nil).Once()

	rr := e.do(t, http.MethodPost, "/api/extractions/"+job.ID+"/status", map[string]string{"tenant_id": "tenant-a"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "processing", decodeBody(t, rr)["status"])

	rr = e.do(t, http.MethodPost, "/api/extractions/"+job.ID+"/status", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/extractions/missing/status", map[string]string{"tenant_id": "tenant-a"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCheckStatus_ProviderErrors(t *testing.T) {
	e := newTestEnv(t)
	job := e.job(t, "ext-1")
	e.client.On("Status", mock.Anything, "ext-1").
		Return(nil, resilience.NewTransientError(errors.New("bad gateway"), 502)).Once()
	e.client.On("Status", mock.Anything, "ext-1").
		Return(&databroker.StatusResponse{Status: "Reprocessando"}, nil).Once()

	rr := e.do(t, http.MethodPost, "/api/extractions/"+job.ID+"/status", map[string]string{"tenant_id": "tenant-a"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/extractions/"+job.ID+"/status", map[string]string{"tenant_id": "tenant-a"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "Reprocessando")
}

func TestWatch_RunsInBackground(t *testing.T) {
	e := newTestEnv(t)
	job := e.job(t, "ext-1")

	e.client.On("Status", mock.Anything, "ext-1").
		Return(&databroker.StatusResponse{Status: "Finalizada"}, nil).Once()
	e.client.On("Download", mock.Anything, "ext-1").
		Return(&databroker.Archive{Filename: "ext-1.zip", Data: companyZip(t)}, nil).Once()

	rr := e.do(t, http.MethodPost, "/api/extractions/"+job.ID+"/watch", map[string]any{
		"tenant_id": "tenant-a", "auto_import": true,
	})
	require.Equal(t, http.StatusAccepted, rr.Code)

	require.Eventually(t, func() bool {
		lead, err := e.store.FindLeadByTaxID(context.Background(), "tenant-a", "11222333000181")
		return err == nil && lead != nil
	}, 2*time.Second, 5*time.Millisecond)

	stored, err := e.store.GetJob(context.Background(), "tenant-a", job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFinished, stored.Status)
}

func TestWatch_StopAndList(t *testing.T) {
	e := newTestEnv(t)
	job := e.job(t, "ext-1")
	e.client.On("Status", mock.Anything, "ext-1").
		Return(&databroker.StatusResponse{Status: "Processando"}, nil).Maybe()

	// Slow the poll down so the watch is still running when stopped.
	e.server.extraction = extraction.NewService(e.store, importer.New(e.store, nil),
		func(string) databroker.Client { return e.client },
		extraction.WithDefaultAPIKey("key"),
		extraction.WithPoller(extraction.NewPoller(extraction.WithPollInterval(time.Hour))),
	)

	rr := e.do(t, http.MethodPost, "/api/extractions/"+job.ID+"/watch", map[string]any{"tenant_id": "tenant-a"})
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/extractions/watches?tenant_id=tenant-a", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var active []extraction.WatchInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &active))
	require.Len(t, active, 1)
	assert.Equal(t, job.ID, active[0].JobID)
	assert.Equal(t, "tenant-a", active[0].TenantID)

	rr = e.do(t, http.MethodDelete, "/api/extractions/"+job.ID+"/watch?tenant_id=tenant-a", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, e.server.Watcher().Active())

	rr = e.do(t, http.MethodDelete, "/api/extractions/"+job.ID+"/watch?tenant_id=tenant-a", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/extractions/unknown/watch", map[string]any{"tenant_id": "tenant-a"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWatch_ScopedToTenant(t *testing.T) {
	e := newTestEnv(t)
	job := e.job(t, "ext-1")
	e.client.On("Status", mock.Anything, "ext-1").
		Return(&databroker.StatusResponse{Status: "Processando"}, nil).Maybe()

	e.server.extraction = extraction.NewService(e.store, importer.New(e.store, nil),
		func(string) databroker.Client { return e.client },
		extraction.WithDefaultAPIKey("key"),
		extraction.WithPoller(extraction.NewPoller(extraction.WithPollInterval(time.Hour))),
	)

	rr := e.do(t, http.MethodPost, "/api/extractions/"+job.ID+"/watch", map[string]any{"tenant_id": "tenant-a"})
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/extractions/watches?tenant_id=tenant-b", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var active []extraction.WatchInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &active))
	assert.Empty(t, active)

	rr = e.do(t, http.MethodDelete, "/api/extractions/"+job.ID+"/watch?tenant_id=tenant-b", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Len(t, e.server.Watcher().Active(), 1)

	rr = e.do(t, http.MethodGet, "/api/extractions/watches", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = e.do(t, http.MethodDelete, "/api/extractions/"+job.ID+"/watch", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, e.server.Watcher().Active(), 1)
}

func TestImportExtraction(t *testing.T) {
	e := newTestEnv(t)
	e.job(t, "ext-1")
	e.client.On("Download", mock.Anything, "ext-1").
		Return(&databroker.Archive{Filename: "ext-1.zip", Data: companyZip(t)}, nil).Once()

	rr := e.do(t, http.MethodPost, "/api/extractions/import", map[string]string{
		"provider_id": "ext-1", "tenant_id": "tenant-a",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["totalSaved"])
	assert.Equal(t, float64(0), body["totalDuplicated"])
	assert.Equal(t, float64(1), body["totalErros"])
}

func TestImportExtraction_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", databroker.ErrNotFound, http.StatusNotFound},
		{"download error", &databroker.DownloadError{StatusCode: 500, Message: "arquivo indisponível"}, http.StatusBadGateway},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.client.On("Download", mock.Anything, "ext-1").Return(nil, tt.err).Once()

			rr := e.do(t, http.MethodPost, "/api/extractions/import", map[string]string{
				"provider_id": "ext-1", "tenant_id": "tenant-a",
			})
			assert.Equal(t, tt.status, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}

	e := newTestEnv(t)
	rr := e.do(t, http.MethodPost, "/api/extractions/import", map[string]string{"tenant_id": "tenant-a"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatusFor(t *testing.T) {
	status, _ := statusFor(lock.ErrLocked)
	assert.Equal(t, http.StatusConflict, status)

	status, msg := statusFor(&databroker.DownloadError{StatusCode: 503, Message: "manutenção"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "manutenção", msg)

	status, _ = statusFor(extraction.ErrNoAPIKey)
	assert.Equal(t, http.StatusBadRequest, status)
}

func upload(t *testing.T, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/leads/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportLeadsAndList(t *testing.T) {
	e := newTestEnv(t)

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, upload(t, map[string]string{"tenant_id": "tenant-a", "campaign": "feira"},
		"leads.csv", "nome;telefone;cpf\nMaria;11912345678;12345678901\nJoão;21 3333-4444;\n"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(2), decodeBody(t, rr)["totalSaved"])

	rr = e.do(t, http.MethodGet, "/api/leads?tenant_id=tenant-a&campaign=feira", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var leads []model.Lead
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &leads))
	require.Len(t, leads, 2)

	rr = e.do(t, http.MethodGet, "/api/leads/"+leads[0].ID+"?tenant_id=tenant-a", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, decodeBody(t, rr)["lead"])

	rr = e.do(t, http.MethodGet, "/api/leads/"+leads[0].ID+"?tenant_id=tenant-b", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/leads", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestImportLeads_Rejects(t *testing.T) {
	e := newTestEnv(t)

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, upload(t, map[string]string{"tenant_id": "tenant-a"}, "", ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	e.handler.ServeHTTP(rr, upload(t, nil, "leads.csv", "cpf\n12345678901\n"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	e.handler.ServeHTTP(rr, upload(t, map[string]string{"tenant_id": "tenant-a"}, "leads.csv", "nome,email\nMaria,m@example.com\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/leads", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
