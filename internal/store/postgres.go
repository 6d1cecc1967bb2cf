package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dnx-plataformas/crm-leads/internal/db"
	"github.com/dnx-plataformas/crm-leads/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pgLeads
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresStore(pool, pool.Close), nil
}

func newPostgresStore(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{pgLeads: pgLeads{q: pool}, pool: pool, closeFn: closeFn}
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS extraction_jobs (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	provider_id        TEXT NOT NULL,
	tenant_id          TEXT NOT NULL,
	archive_name       TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'pending',
	quantity_requested INTEGER NOT NULL DEFAULT 0,
	quantity_returned  INTEGER NOT NULL DEFAULT 0,
	finished_at        TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tenant_id, provider_id)
);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	tenant_id  TEXT NOT NULL,
	name       TEXT NOT NULL,
	tax_id     TEXT,
	phone      TEXT,
	email      TEXT,
	source     TEXT NOT NULL,
	campaign   TEXT NOT NULL DEFAULT '',
	active     BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_leads_tenant_tax_id ON leads(tenant_id, tax_id) WHERE tax_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS uq_leads_tenant_phone ON leads(tenant_id, phone) WHERE tax_id IS NULL AND phone IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_leads_tenant_campaign ON leads(tenant_id, campaign);

CREATE TABLE IF NOT EXISTS company_details (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id           TEXT NOT NULL UNIQUE REFERENCES leads(id) ON DELETE CASCADE,
	cnpj              TEXT NOT NULL,
	legal_name        TEXT NOT NULL DEFAULT '',
	trade_name        TEXT NOT NULL DEFAULT '',
	opened_at         DATE,
	legal_nature      TEXT NOT NULL DEFAULT '',
	company_size      TEXT NOT NULL DEFAULT '',
	registry_status   TEXT NOT NULL DEFAULT '',
	revenue           NUMERIC,
	employee_count    INTEGER,
	primary_cnae      TEXT NOT NULL DEFAULT '',
	primary_cnae_desc TEXT NOT NULL DEFAULT '',
	email             TEXT NOT NULL DEFAULT '',
	street            TEXT NOT NULL DEFAULT '',
	number            TEXT NOT NULL DEFAULT '',
	complement        TEXT NOT NULL DEFAULT '',
	neighborhood      TEXT NOT NULL DEFAULT '',
	city              TEXT NOT NULL DEFAULT '',
	state             TEXT NOT NULL DEFAULT '',
	zip_code          TEXT NOT NULL DEFAULT '',
	risk              BOOLEAN,
	score             INTEGER,
	extra             JSONB NOT NULL DEFAULT '{}',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS person_details (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id      TEXT NOT NULL UNIQUE REFERENCES leads(id) ON DELETE CASCADE,
	cpf          TEXT NOT NULL,
	birth_date   DATE,
	mother_name  TEXT NOT NULL DEFAULT '',
	gender       TEXT NOT NULL DEFAULT '',
	income       NUMERIC,
	score        INTEGER,
	email        TEXT NOT NULL DEFAULT '',
	street       TEXT NOT NULL DEFAULT '',
	number       TEXT NOT NULL DEFAULT '',
	complement   TEXT NOT NULL DEFAULT '',
	neighborhood TEXT NOT NULL DEFAULT '',
	city         TEXT NOT NULL DEFAULT '',
	state        TEXT NOT NULL DEFAULT '',
	zip_code     TEXT NOT NULL DEFAULT '',
	extra        JSONB NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS officers (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_detail_id TEXT NOT NULL REFERENCES company_details(id) ON DELETE CASCADE,
	lead_id           TEXT REFERENCES leads(id) ON DELETE SET NULL,
	cpf               TEXT NOT NULL,
	name              TEXT NOT NULL DEFAULT '',
	participation     NUMERIC,
	qualification     TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (company_detail_id, cpf)
);

CREATE INDEX IF NOT EXISTS idx_officers_lead_id ON officers(lead_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(w LeadWriter) error) error {
	return db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(pgLeads{q: tx})
	})
}

// --- Extraction jobs ---

const jobColumns = `id, provider_id, tenant_id, archive_name, status, quantity_requested, quantity_returned, finished_at, created_at, updated_at`

func (s *PostgresStore) CreateJob(ctx context.Context, job *model.ExtractionJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO extraction_jobs (`+jobColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.ProviderID, job.TenantID, job.ArchiveName, string(job.Status),
		job.QuantityRequested, job.QuantityReturned, job.FinishedAt, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return eris.Wrapf(ErrJobExists, "postgres: provider id %s", job.ProviderID)
		}
		return eris.Wrap(err, "postgres: insert job")
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, tenantID, jobID string) (*model.ExtractionJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM extraction_jobs WHERE tenant_id = $1 AND id = $2`,
		tenantID, jobID,
	)
	job, err := scanPgJob(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}
	return job, nil
}

func (s *PostgresStore) GetJobByProviderID(ctx context.Context, tenantID, providerID string) (*model.ExtractionJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM extraction_jobs WHERE tenant_id = $1 AND provider_id = $2`,
		tenantID, providerID,
	)
	job, err := scanPgJob(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job by provider id %s", providerID)
	}
	return job, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, report model.StatusReport) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE extraction_jobs
		 SET status = $1, quantity_requested = $2, quantity_returned = $3, finished_at = $4, updated_at = $5
		 WHERE id = $6`,
		string(report.Status), report.QuantityRequested, report.QuantityReturned, report.FinishedAt,
		report.CheckedAt.UTC(), report.JobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job status %s", report.JobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", report.JobID)
	}
	return nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.ExtractionJob, error) {
	query := `SELECT ` + jobColumns + ` FROM extraction_jobs WHERE tenant_id = $1`
	args := []any{filter.TenantID}
	argIdx := 2

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.ExtractionJob
	for rows.Next() {
		job, err := scanPgJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		jobs = append(jobs, *job)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

func scanPgJob(row pgx.Row) (*model.ExtractionJob, error) {
	var j model.ExtractionJob
	var status string
	err := row.Scan(&j.ID, &j.ProviderID, &j.TenantID, &j.ArchiveName, &status,
		&j.QuantityRequested, &j.QuantityReturned, &j.FinishedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	j.Status = model.JobStatus(status)
	return &j, nil
}

// --- Leads (read side) ---

func (s *PostgresStore) GetLead(ctx context.Context, tenantID, leadID string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE tenant_id = $1 AND id = $2`,
		tenantID, leadID,
	)
	lead, err := scanPgLead(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", leadID)
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1`
	args := []any{filter.TenantID}
	argIdx := 2

	if filter.Campaign != "" {
		query += fmt.Sprintf(` AND campaign = $%d`, argIdx)
		args = append(args, filter.Campaign)
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanPgLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) GetPersonDetailByLead(ctx context.Context, leadID string) (*model.PersonDetail, error) {
	var d model.PersonDetail
	var extra []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, lead_id, cpf, birth_date, mother_name, gender, income, score, email,
		        street, number, complement, neighborhood, city, state, zip_code, extra, created_at
		 FROM person_details WHERE lead_id = $1`,
		leadID,
	).Scan(&d.ID, &d.LeadID, &d.CPF, &d.BirthDate, &d.MotherName, &d.Gender, &d.Income, &d.Score, &d.Email,
		&d.Address.Street, &d.Address.Number, &d.Address.Complement, &d.Address.Neighborhood,
		&d.Address.City, &d.Address.State, &d.Address.ZipCode, &extra, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get person detail for lead %s", leadID)
	}
	if err := unmarshalExtra(extra, &d.Extra); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal person extra")
	}
	return &d, nil
}

func (s *PostgresStore) ListOfficers(ctx context.Context, companyDetailID string) ([]model.Officer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_detail_id, lead_id, cpf, name, participation, qualification, created_at
		 FROM officers WHERE company_detail_id = $1 ORDER BY created_at, id`,
		companyDetailID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list officers")
	}
	defer rows.Close()

	var officers []model.Officer
	for rows.Next() {
		var o model.Officer
		if err := rows.Scan(&o.ID, &o.CompanyDetailID, &o.LeadID, &o.CPF, &o.Name,
			&o.Participation, &o.Qualification, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan officer")
		}
		officers = append(officers, o)
	}
	return officers, eris.Wrap(rows.Err(), "postgres: list officers iterate")
}

// --- Leads (write side, shared by pool and tx) ---

const leadColumns = `id, tenant_id, name, tax_id, phone, email, source, campaign, active, created_at`

type pgLeads struct {
	q db.Querier
}

func scanPgLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	err := row.Scan(&l.ID, &l.TenantID, &l.Name, &l.TaxID, &l.Phone, &l.Email,
		&l.Source, &l.Campaign, &l.Active, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (p pgLeads) FindLeadByTaxID(ctx context.Context, tenantID, taxID string) (*model.Lead, error) {
	lead, err := scanPgLead(p.q.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE tenant_id = $1 AND tax_id = $2`,
		tenantID, taxID,
	))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find lead by tax id")
	}
	return lead, nil
}

func (p pgLeads) FindLeadByPhone(ctx context.Context, tenantID, phone string) (*model.Lead, error) {
	lead, err := scanPgLead(p.q.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE tenant_id = $1 AND phone = $2 ORDER BY created_at LIMIT 1`,
		tenantID, phone,
	))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find lead by phone")
	}
	return lead, nil
}

func (p pgLeads) CreateLead(ctx context.Context, lead *model.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	lead.CreatedAt = time.Now().UTC()

	_, err := p.q.Exec(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		lead.ID, lead.TenantID, lead.Name, lead.TaxID, lead.Phone, lead.Email,
		lead.Source, lead.Campaign, lead.Active, lead.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return eris.Wrap(err, "postgres: insert lead")
	}
	return nil
}

func (p pgLeads) CreateCompanyDetail(ctx context.Context, d *model.CompanyDetail) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = time.Now().UTC()
	extra, err := marshalExtra(d.Extra)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal company extra")
	}

	_, err = p.q.Exec(ctx,
		`INSERT INTO company_details (id, lead_id, cnpj, legal_name, trade_name, opened_at, legal_nature,
			company_size, registry_status, revenue, employee_count, primary_cnae, primary_cnae_desc, email,
			street, number, complement, neighborhood, city, state, zip_code, risk, score, extra, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		d.ID, d.LeadID, d.CNPJ, d.LegalName, d.TradeName, d.OpenedAt, d.LegalNature,
		d.CompanySize, d.RegistryStatus, d.Revenue, d.EmployeeCount, d.PrimaryCNAE, d.PrimaryCNAEDesc, d.Email,
		d.Address.Street, d.Address.Number, d.Address.Complement, d.Address.Neighborhood,
		d.Address.City, d.Address.State, d.Address.ZipCode, d.Risk, d.Score, extra, d.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert company detail for lead %s", d.LeadID)
}

func (p pgLeads) GetCompanyDetailByLead(ctx context.Context, leadID string) (*model.CompanyDetail, error) {
	var d model.CompanyDetail
	var extra []byte
	err := p.q.QueryRow(ctx,
		`SELECT id, lead_id, cnpj, legal_name, trade_name, opened_at, legal_nature, company_size,
		        registry_status, revenue, employee_count, primary_cnae, primary_cnae_desc, email,
		        street, number, complement, neighborhood, city, state, zip_code, risk, score, extra, created_at
		 FROM company_details WHERE lead_id = $1`,
		leadID,
	).Scan(&d.ID, &d.LeadID, &d.CNPJ, &d.LegalName, &d.TradeName, &d.OpenedAt, &d.LegalNature, &d.CompanySize,
		&d.RegistryStatus, &d.Revenue, &d.EmployeeCount, &d.PrimaryCNAE, &d.PrimaryCNAEDesc, &d.Email,
		&d.Address.Street, &d.Address.Number, &d.Address.Complement, &d.Address.Neighborhood,
		&d.Address.City, &d.Address.State, &d.Address.ZipCode, &d.Risk, &d.Score, &extra, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company detail for lead %s", leadID)
	}
	if err := unmarshalExtra(extra, &d.Extra); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal company extra")
	}
	return &d, nil
}

func (p pgLeads) CreatePersonDetail(ctx context.Context, d *model.PersonDetail) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = time.Now().UTC()
	extra, err := marshalExtra(d.Extra)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal person extra")
	}

	_, err = p.q.Exec(ctx,
		`INSERT INTO person_details (id, lead_id, cpf, birth_date, mother_name, gender, income, score, email,
			street, number, complement, neighborhood, city, state, zip_code, extra, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		d.ID, d.LeadID, d.CPF, d.BirthDate, d.MotherName, d.Gender, d.Income, d.Score, d.Email,
		d.Address.Street, d.Address.Number, d.Address.Complement, d.Address.Neighborhood,
		d.Address.City, d.Address.State, d.Address.ZipCode, extra, d.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert person detail for lead %s", d.LeadID)
}

func (p pgLeads) CreateOfficer(ctx context.Context, o *model.Officer) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.CreatedAt = time.Now().UTC()

	_, err := p.q.Exec(ctx,
		`INSERT INTO officers (id, company_detail_id, lead_id, cpf, name, participation, qualification, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.CompanyDetailID, o.LeadID, o.CPF, o.Name, o.Participation, o.Qualification, o.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert officer for detail %s", o.CompanyDetailID)
}

func (p pgLeads) OfficerExists(ctx context.Context, companyDetailID, cpf string) (bool, error) {
	var exists bool
	err := p.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM officers WHERE company_detail_id = $1 AND cpf = $2)`,
		companyDetailID, cpf,
	).Scan(&exists)
	return exists, eris.Wrap(err, "postgres: officer exists")
}

func marshalExtra(extra map[string]string) ([]byte, error) {
	if extra == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(extra)
}

func unmarshalExtra(data []byte, dst *map[string]string) error {
	if len(data) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) > 0 {
		*dst = m
	}
	return nil
}
