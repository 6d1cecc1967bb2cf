package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dnx-plataformas/crm-leads/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	sqlLeads
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection: pragmas are per connection and sqlite has a single writer.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{sqlLeads: sqlLeads{q: db}, db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS extraction_jobs (
	id                 TEXT PRIMARY KEY,
	provider_id        TEXT NOT NULL,
	tenant_id          TEXT NOT NULL,
	archive_name       TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'pending',
	quantity_requested INTEGER NOT NULL DEFAULT 0,
	quantity_returned  INTEGER NOT NULL DEFAULT 0,
	finished_at        DATETIME,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (tenant_id, provider_id)
);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	name       TEXT NOT NULL,
	tax_id     TEXT,
	phone      TEXT,
	email      TEXT,
	source     TEXT NOT NULL,
	campaign   TEXT NOT NULL DEFAULT '',
	active     BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_leads_tenant_tax_id ON leads(tenant_id, tax_id) WHERE tax_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS uq_leads_tenant_phone ON leads(tenant_id, phone) WHERE tax_id IS NULL AND phone IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_leads_tenant_campaign ON leads(tenant_id, campaign);

CREATE TABLE IF NOT EXISTS company_details (
	id                TEXT PRIMARY KEY,
	lead_id           TEXT NOT NULL UNIQUE REFERENCES leads(id) ON DELETE CASCADE,
	cnpj              TEXT NOT NULL,
	legal_name        TEXT NOT NULL DEFAULT '',
	trade_name        TEXT NOT NULL DEFAULT '',
	opened_at         DATETIME,
	legal_nature      TEXT NOT NULL DEFAULT '',
	company_size      TEXT NOT NULL DEFAULT '',
	registry_status   TEXT NOT NULL DEFAULT '',
	revenue           REAL,
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
	extra             TEXT NOT NULL DEFAULT '{}',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS person_details (
	id           TEXT PRIMARY KEY,
	lead_id      TEXT NOT NULL UNIQUE REFERENCES leads(id) ON DELETE CASCADE,
	cpf          TEXT NOT NULL,
	birth_date   DATETIME,
	mother_name  TEXT NOT NULL DEFAULT '',
	gender       TEXT NOT NULL DEFAULT '',
	income       REAL,
	score        INTEGER,
	email        TEXT NOT NULL DEFAULT '',
	street       TEXT NOT NULL DEFAULT '',
	number       TEXT NOT NULL DEFAULT '',
	complement   TEXT NOT NULL DEFAULT '',
	neighborhood TEXT NOT NULL DEFAULT '',
	city         TEXT NOT NULL DEFAULT '',
	state        TEXT NOT NULL DEFAULT '',
	zip_code     TEXT NOT NULL DEFAULT '',
	extra        TEXT NOT NULL DEFAULT '{}',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS officers (
	id                TEXT PRIMARY KEY,
	company_detail_id TEXT NOT NULL REFERENCES company_details(id) ON DELETE CASCADE,
	lead_id           TEXT REFERENCES leads(id) ON DELETE SET NULL,
	cpf               TEXT NOT NULL,
	name              TEXT NOT NULL DEFAULT '',
	participation     REAL,
	qualification     TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (company_detail_id, cpf)
);

CREATE INDEX IF NOT EXISTS idx_officers_lead_id ON officers(lead_id);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(w LeadWriter) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	if err := fn(sqlLeads{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return eris.Wrapf(err, "sqlite: rollback failed (%v)", rbErr)
		}
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}

// --- Extraction jobs ---

func (s *SQLiteStore) CreateJob(ctx context.Context, job *model.ExtractionJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extraction_jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.ProviderID, job.TenantID, job.ArchiveName, string(job.Status),
		job.QuantityRequested, job.QuantityReturned, nullTime(job.FinishedAt), job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return eris.Wrapf(ErrJobExists, "sqlite: provider id %s", job.ProviderID)
		}
		return eris.Wrap(err, "sqlite: insert job")
	}
	return nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, tenantID, jobID string) (*model.ExtractionJob, error) {
	job, err := scanSQLiteJob(s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM extraction_jobs WHERE tenant_id = ? AND id = ?`,
		tenantID, jobID,
	))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", jobID)
	}
	return job, nil
}

func (s *SQLiteStore) GetJobByProviderID(ctx context.Context, tenantID, providerID string) (*model.ExtractionJob, error) {
	job, err := scanSQLiteJob(s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM extraction_jobs WHERE tenant_id = ? AND provider_id = ?`,
		tenantID, providerID,
	))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job by provider id %s", providerID)
	}
	return job, nil
}

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, report model.StatusReport) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE extraction_jobs
		 SET status = ?, quantity_requested = ?, quantity_returned = ?, finished_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(report.Status), report.QuantityRequested, report.QuantityReturned, nullTime(report.FinishedAt),
		report.CheckedAt.UTC(), report.JobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job status %s", report.JobID)
	}
	return checkRowsAffected(res, "job", report.JobID)
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.ExtractionJob, error) {
	query := `SELECT ` + jobColumns + ` FROM extraction_jobs WHERE tenant_id = ?`
	args := []any{filter.TenantID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close() //nolint:errcheck

	var jobs []model.ExtractionJob
	for rows.Next() {
		job, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		jobs = append(jobs, *job)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func scanSQLiteJob(row scannable) (*model.ExtractionJob, error) {
	var j model.ExtractionJob
	var status string
	var finished sql.NullTime
	err := row.Scan(&j.ID, &j.ProviderID, &j.TenantID, &j.ArchiveName, &status,
		&j.QuantityRequested, &j.QuantityReturned, &finished, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	j.Status = model.JobStatus(status)
	j.FinishedAt = timePtr(finished)
	return &j, nil
}

// --- Leads (read side) ---

func (s *SQLiteStore) GetLead(ctx context.Context, tenantID, leadID string) (*model.Lead, error) {
	lead, err := scanSQLiteLead(s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE tenant_id = ? AND id = ?`,
		tenantID, leadID,
	))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", leadID)
	}
	return lead, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = ?`
	args := []any{filter.TenantID}

	if filter.Campaign != "" {
		query += ` AND campaign = ?`
		args = append(args, filter.Campaign)
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) GetPersonDetailByLead(ctx context.Context, leadID string) (*model.PersonDetail, error) {
	var d model.PersonDetail
	var birth sql.NullTime
	var extra string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, lead_id, cpf, birth_date, mother_name, gender, income, score, email,
		        street, number, complement, neighborhood, city, state, zip_code, extra, created_at
		 FROM person_details WHERE lead_id = ?`,
		leadID,
	).Scan(&d.ID, &d.LeadID, &d.CPF, &birth, &d.MotherName, &d.Gender, &d.Income, &d.Score, &d.Email,
		&d.Address.Street, &d.Address.Number, &d.Address.Complement, &d.Address.Neighborhood,
		&d.Address.City, &d.Address.State, &d.Address.ZipCode, &extra, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get person detail for lead %s", leadID)
	}
	d.BirthDate = timePtr(birth)
	if err := unmarshalExtra([]byte(extra), &d.Extra); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal person extra")
	}
	return &d, nil
}

func (s *SQLiteStore) ListOfficers(ctx context.Context, companyDetailID string) ([]model.Officer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_detail_id, lead_id, cpf, name, participation, qualification, created_at
		 FROM officers WHERE company_detail_id = ? ORDER BY created_at, id`,
		companyDetailID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list officers")
	}
	defer rows.Close() //nolint:errcheck

	var officers []model.Officer
	for rows.Next() {
		var o model.Officer
		if err := rows.Scan(&o.ID, &o.CompanyDetailID, &o.LeadID, &o.CPF, &o.Name,
			&o.Participation, &o.Qualification, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan officer")
		}
		officers = append(officers, o)
	}
	return officers, eris.Wrap(rows.Err(), "sqlite: list officers iterate")
}

// --- Leads (write side, shared by db and tx) ---

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlLeads struct {
	q sqlQuerier
}

func scanSQLiteLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	err := row.Scan(&l.ID, &l.TenantID, &l.Name, &l.TaxID, &l.Phone, &l.Email,
		&l.Source, &l.Campaign, &l.Active, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s sqlLeads) FindLeadByTaxID(ctx context.Context, tenantID, taxID string) (*model.Lead, error) {
	lead, err := scanSQLiteLead(s.q.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE tenant_id = ? AND tax_id = ?`,
		tenantID, taxID,
	))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find lead by tax id")
	}
	return lead, nil
}

func (s sqlLeads) FindLeadByPhone(ctx context.Context, tenantID, phone string) (*model.Lead, error) {
	lead, err := scanSQLiteLead(s.q.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE tenant_id = ? AND phone = ? ORDER BY created_at LIMIT 1`,
		tenantID, phone,
	))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find lead by phone")
	}
	return lead, nil
}

func (s sqlLeads) CreateLead(ctx context.Context, lead *model.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	lead.CreatedAt = time.Now().UTC()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.TenantID, lead.Name, lead.TaxID, lead.Phone, lead.Email,
		lead.Source, lead.Campaign, lead.Active, lead.CreatedAt,
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrDuplicate
		}
		return eris.Wrap(err, "sqlite: insert lead")
	}
	return nil
}

func (s sqlLeads) CreateCompanyDetail(ctx context.Context, d *model.CompanyDetail) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = time.Now().UTC()
	extra, err := marshalExtra(d.Extra)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal company extra")
	}

	_, err = s.q.ExecContext(ctx,
		`INSERT INTO company_details (id, lead_id, cnpj, legal_name, trade_name, opened_at, legal_nature,
			company_size, registry_status, revenue, employee_count, primary_cnae, primary_cnae_desc, email,
			street, number, complement, neighborhood, city, state, zip_code, risk, score, extra, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.LeadID, d.CNPJ, d.LegalName, d.TradeName, nullTime(d.OpenedAt), d.LegalNature,
		d.CompanySize, d.RegistryStatus, d.Revenue, d.EmployeeCount, d.PrimaryCNAE, d.PrimaryCNAEDesc, d.Email,
		d.Address.Street, d.Address.Number, d.Address.Complement, d.Address.Neighborhood,
		d.Address.City, d.Address.State, d.Address.ZipCode, d.Risk, d.Score, string(extra), d.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert company detail for lead %s", d.LeadID)
}

func (s sqlLeads) GetCompanyDetailByLead(ctx context.Context, leadID string) (*model.CompanyDetail, error) {
	var d model.CompanyDetail
	var opened sql.NullTime
	var extra string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, lead_id, cnpj, legal_name, trade_name, opened_at, legal_nature, company_size,
		        registry_status, revenue, employee_count, primary_cnae, primary_cnae_desc, email,
		        street, number, complement, neighborhood, city, state, zip_code, risk, score, extra, created_at
		 FROM company_details WHERE lead_id = ?`,
		leadID,
	).Scan(&d.ID, &d.LeadID, &d.CNPJ, &d.LegalName, &d.TradeName, &opened, &d.LegalNature, &d.CompanySize,
		&d.RegistryStatus, &d.Revenue, &d.EmployeeCount, &d.PrimaryCNAE, &d.PrimaryCNAEDesc, &d.Email,
		&d.Address.Street, &d.Address.Number, &d.Address.Complement, &d.Address.Neighborhood,
		&d.Address.City, &d.Address.State, &d.Address.ZipCode, &d.Risk, &d.Score, &extra, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company detail for lead %s", leadID)
	}
	d.OpenedAt = timePtr(opened)
	if err := unmarshalExtra([]byte(extra), &d.Extra); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal company extra")
	}
	return &d, nil
}

func (s sqlLeads) CreatePersonDetail(ctx context.Context, d *model.PersonDetail) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = time.Now().UTC()
	extra, err := marshalExtra(d.Extra)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal person extra")
	}

	_, err = s.q.ExecContext(ctx,
		`INSERT INTO person_details (id, lead_id, cpf, birth_date, mother_name, gender, income, score, email,
			street, number, complement, neighborhood, city, state, zip_code, extra, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.LeadID, d.CPF, nullTime(d.BirthDate), d.MotherName, d.Gender, d.Income, d.Score, d.Email,
		d.Address.Street, d.Address.Number, d.Address.Complement, d.Address.Neighborhood,
		d.Address.City, d.Address.State, d.Address.ZipCode, string(extra), d.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert person detail for lead %s", d.LeadID)
}

func (s sqlLeads) CreateOfficer(ctx context.Context, o *model.Officer) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.CreatedAt = time.Now().UTC()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO officers (id, company_detail_id, lead_id, cpf, name, participation, qualification, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CompanyDetailID, o.LeadID, o.CPF, o.Name, o.Participation, o.Qualification, o.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert officer for detail %s", o.CompanyDetailID)
}

func (s sqlLeads) OfficerExists(ctx context.Context, companyDetailID, cpf string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM officers WHERE company_detail_id = ? AND cpf = ?)`,
		companyDetailID, cpf,
	).Scan(&exists)
	return exists, eris.Wrap(err, "sqlite: officer exists")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
