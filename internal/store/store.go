package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/dnx-plataformas/crm-leads/internal/model"
)

// ErrDuplicate is returned by CreateLead when the tenant already holds a lead
// with the same tax id (or the same phone, for leads without a tax id).
var ErrDuplicate = eris.New("store: duplicate lead")

// ErrJobExists is returned by CreateJob when the tenant already registered
// the provider id.
var ErrJobExists = eris.New("store: job already registered")

// JobFilter specifies criteria for listing extraction jobs.
type JobFilter struct {
	TenantID string          `json:"tenant_id"`
	Status   model.JobStatus `json:"status,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// LeadFilter specifies criteria for listing leads. TenantID is required.
type LeadFilter struct {
	TenantID string `json:"tenant_id"`
	Campaign string `json:"campaign,omitempty"`
	Source   string `json:"source,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// LeadWriter is the lead surface used by the importers. Both a Store and the
// transaction handed to WithTx implement it.
type LeadWriter interface {
	FindLeadByTaxID(ctx context.Context, tenantID, taxID string) (*model.Lead, error)
	FindLeadByPhone(ctx context.Context, tenantID, phone string) (*model.Lead, error)
	CreateLead(ctx context.Context, lead *model.Lead) error

	CreateCompanyDetail(ctx context.Context, d *model.CompanyDetail) error
	GetCompanyDetailByLead(ctx context.Context, leadID string) (*model.CompanyDetail, error)
	CreatePersonDetail(ctx context.Context, d *model.PersonDetail) error

	CreateOfficer(ctx context.Context, o *model.Officer) error
	OfficerExists(ctx context.Context, companyDetailID, cpf string) (bool, error)
}

// Store defines the persistence interface for extraction jobs and leads.
// Lookups return nil, nil when nothing matches.
type Store interface {
	LeadWriter

	// WithTx runs fn in a single transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(w LeadWriter) error) error

	// Extraction jobs
	CreateJob(ctx context.Context, job *model.ExtractionJob) error
	GetJob(ctx context.Context, tenantID, jobID string) (*model.ExtractionJob, error)
	GetJobByProviderID(ctx context.Context, tenantID, providerID string) (*model.ExtractionJob, error)
	UpdateJobStatus(ctx context.Context, report model.StatusReport) error
	ListJobs(ctx context.Context, filter JobFilter) ([]model.ExtractionJob, error)

	// Leads
	GetLead(ctx context.Context, tenantID, leadID string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	GetPersonDetailByLead(ctx context.Context, leadID string) (*model.PersonDetail, error)
	ListOfficers(ctx context.Context, companyDetailID string) ([]model.Officer, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

func listLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
