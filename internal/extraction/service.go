// Package extraction tracks bulk extraction jobs placed with the data
// provider and imports their archives once finished.
package extraction

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dnx-plataformas/crm-leads/internal/archive"
	"github.com/dnx-plataformas/crm-leads/internal/classify"
	"github.com/dnx-plataformas/crm-leads/internal/importer"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/store"
	"github.com/dnx-plataformas/crm-leads/pkg/databroker"
)

var (
	// ErrJobNotFound is returned when the tenant has no job with the given id.
	ErrJobNotFound = eris.New("extraction: job not found")
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = eris.New("extraction: invalid request")
	// ErrNoAPIKey is returned when neither the request nor the configuration
	// carries a provider API key.
	ErrNoAPIKey = eris.New("extraction: no provider api key")
)

// ClientFactory builds a provider client for one API key.
type ClientFactory func(apiKey string) databroker.Client

// StatusRequest identifies a job to check. An empty APIKey falls back to
// the configured key.
type StatusRequest struct {
	JobID    string `json:"job_id"`
	TenantID string `json:"tenant_id" validate:"required"`
	APIKey   string `json:"api_key"`
}

// ImportRequest identifies a finished extraction to import.
type ImportRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
	TenantID   string `json:"tenant_id" validate:"required"`
	APIKey     string `json:"api_key"`
	Campaign   string `json:"campaign"`
}

// RegisterRequest records an extraction placed with the provider.
type RegisterRequest struct {
	ProviderID        string `json:"provider_id" validate:"required"`
	TenantID          string `json:"tenant_id" validate:"required"`
	ArchiveName       string `json:"archive_name"`
	QuantityRequested int    `json:"quantity_requested" validate:"gte=0"`
}

// Service coordinates the provider client, the job store and the importer.
type Service struct {
	store     store.Store
	importer  *importer.Importer
	newClient ClientFactory
	apiKey    string
	poller    *Poller
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDefaultAPIKey sets the key used when a request carries none.
func WithDefaultAPIKey(key string) ServiceOption {
	return func(s *Service) { s.apiKey = key }
}

// WithPoller replaces the default poller used by Watch.
func WithPoller(p *Poller) ServiceOption {
	return func(s *Service) { s.poller = p }
}

// NewService creates a Service.
func NewService(st store.Store, im *importer.Importer, newClient ClientFactory, opts ...ServiceOption) *Service {
	s := &Service{
		store:     st,
		importer:  im,
		newClient: newClient,
		poller:    NewPoller(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) client(apiKey string) (databroker.Client, error) {
	if apiKey == "" {
		apiKey = s.apiKey
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return s.newClient(apiKey), nil
}

// Register stores a new pending job for an extraction already placed with
// the provider.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*model.ExtractionJob, error) {
	if req.ProviderID == "" || req.TenantID == "" {
		return nil, eris.Wrap(ErrInvalidRequest, "provider id and tenant id are required")
	}
	job := &model.ExtractionJob{
		ProviderID:        req.ProviderID,
		TenantID:          req.TenantID,
		ArchiveName:       req.ArchiveName,
		Status:            model.JobStatusPending,
		QuantityRequested: req.QuantityRequested,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	zap.L().Info("extraction: job registered",
		zap.String("job_id", job.ID),
		zap.String("provider_id", job.ProviderID),
		zap.String("tenant_id", job.TenantID),
	)
	return job, nil
}

// Job returns one job of the tenant.
func (s *Service) Job(ctx context.Context, tenantID, jobID string) (*model.ExtractionJob, error) {
	job, err := s.store.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// CheckStatus asks the provider for the job's status and persists it.
func (s *Service) CheckStatus(ctx context.Context, req StatusRequest) (*model.StatusReport, error) {
	if req.JobID == "" || req.TenantID == "" {
		return nil, eris.Wrap(ErrInvalidRequest, "job id and tenant id are required")
	}
	job, err := s.Job(ctx, req.TenantID, req.JobID)
	if err != nil {
		return nil, err
	}
	client, err := s.client(req.APIKey)
	if err != nil {
		return nil, err
	}

	resp, err := client.Status(ctx, job.ProviderID)
	if err != nil {
		return nil, eris.Wrapf(err, "extraction: status of %s", job.ProviderID)
	}
	status, err := model.ParseProviderStatus(resp.Status)
	if err != nil {
		return nil, err
	}

	report := model.StatusReport{
		JobID:             job.ID,
		ProviderID:        job.ProviderID,
		Status:            status,
		RawStatus:         resp.Status,
		QuantityRequested: resp.QuantityRequested,
		QuantityReturned:  resp.QuantityReturned,
		FinishedAt:        resp.FinishedTime(),
		CheckedAt:         time.Now().UTC(),
	}
	if err := s.store.UpdateJobStatus(ctx, report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Watch polls the job's status until it is terminal, the attempt budget is
// spent or ctx is done.
func (s *Service) Watch(ctx context.Context, req StatusRequest) (*PollResult, error) {
	if _, err := s.Job(ctx, req.TenantID, req.JobID); err != nil {
		return nil, err
	}
	res, err := s.poller.Poll(ctx, func(ctx context.Context) (*model.StatusReport, error) {
		return s.CheckStatus(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("extraction: watch finished",
		zap.String("job_id", req.JobID),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("attempts", res.Attempts),
	)
	return res, nil
}

// Import downloads the extraction archive and imports every member. A
// download or unzip failure aborts the whole import.
func (s *Service) Import(ctx context.Context, req ImportRequest) (model.ImportSummary, error) {
	var summary model.ImportSummary
	if req.ProviderID == "" || req.TenantID == "" {
		return summary, eris.Wrap(ErrInvalidRequest, "provider id and tenant id are required")
	}
	client, err := s.client(req.APIKey)
	if err != nil {
		return summary, err
	}

	job, err := s.store.GetJobByProviderID(ctx, req.TenantID, req.ProviderID)
	if err != nil {
		return summary, err
	}

	arc, err := client.Download(ctx, req.ProviderID)
	if err != nil {
		return summary, eris.Wrapf(err, "extraction: download %s", req.ProviderID)
	}
	members, err := archive.Open(arc.Data)
	if err != nil {
		return summary, err
	}

	tables := make([]*classify.Table, 0, len(members))
	for _, m := range members {
		tbl := classify.Parse(m.Text)
		tbl.Name = m.Name
		tables = append(tables, tbl)
	}

	campaign := req.Campaign
	if campaign == "" && job != nil {
		campaign = job.ArchiveName
	}
	if campaign == "" {
		campaign = strings.TrimSuffix(arc.Filename, filepath.Ext(arc.Filename))
	}

	zap.L().Info("extraction: importing archive",
		zap.String("provider_id", req.ProviderID),
		zap.String("tenant_id", req.TenantID),
		zap.String("archive", arc.Filename),
		zap.Int("members", len(members)),
	)
	return s.importer.Import(ctx, importer.Request{
		TenantID: req.TenantID,
		Campaign: campaign,
		Source:   model.SourceExtraction,
	}, tables)
}
