package model

import "time"

// Lead sources written by the importers.
const (
	SourceExtraction  = "extracao"
	SourceSpreadsheet = "planilha"
)

// Lead is a tenant-scoped contact or company record. TaxID holds digits only
// (11 for CPF, 14 for CNPJ); Phone is formatted as "(DD) XXXXX-XXXX".
type Lead struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	TaxID     *string   `json:"tax_id,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Source    string    `json:"source"`
	Campaign  string    `json:"campaign"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Address is the postal address carried by company and person details.
type Address struct {
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
}

// CompanyDetail extends a Lead sourced from a CNPJ record.
type CompanyDetail struct {
	ID              string            `json:"id"`
	LeadID          string            `json:"lead_id"`
	CNPJ            string            `json:"cnpj"`
	LegalName       string            `json:"legal_name"`
	TradeName       string            `json:"trade_name,omitempty"`
	OpenedAt        *time.Time        `json:"opened_at,omitempty"`
	LegalNature     string            `json:"legal_nature,omitempty"`
	CompanySize     string            `json:"company_size,omitempty"`
	RegistryStatus  string            `json:"registry_status,omitempty"`
	Revenue         *float64          `json:"revenue,omitempty"`
	EmployeeCount   *int              `json:"employee_count,omitempty"`
	PrimaryCNAE     string            `json:"primary_cnae,omitempty"`
	PrimaryCNAEDesc string            `json:"primary_cnae_desc,omitempty"`
	Email           string            `json:"email,omitempty"`
	Address         Address           `json:"address"`
	Risk            *bool             `json:"risk,omitempty"`
	Score           *int              `json:"score,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// PersonDetail extends a Lead sourced from a CPF record.
type PersonDetail struct {
	ID         string            `json:"id"`
	LeadID     string            `json:"lead_id"`
	CPF        string            `json:"cpf"`
	BirthDate  *time.Time        `json:"birth_date,omitempty"`
	MotherName string            `json:"mother_name,omitempty"`
	Gender     string            `json:"gender,omitempty"`
	Income     *float64          `json:"income,omitempty"`
	Score      *int              `json:"score,omitempty"`
	Email      string            `json:"email,omitempty"`
	Address    Address           `json:"address"`
	Extra      map[string]string `json:"extra,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Officer is a partner (sócio) of a company, linked to the company's detail
// record and, when one could be created, to the officer's own Lead.
type Officer struct {
	ID              string    `json:"id"`
	CompanyDetailID string    `json:"company_detail_id"`
	LeadID          *string   `json:"lead_id,omitempty"`
	CPF             string    `json:"cpf"`
	Name            string    `json:"name"`
	Participation   *float64  `json:"participation,omitempty"`
	Qualification   string    `json:"qualification,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ImportSummary accumulates row outcomes across all archive members.
type ImportSummary struct {
	Saved      int      `json:"totalSaved"`
	Duplicated int      `json:"totalDuplicated"`
	Errors     int      `json:"totalErros"`
	Orphaned   int      `json:"totalOrphaned"`
	Skipped    []string `json:"skippedFiles,omitempty"`
}

// Add merges o into s.
func (s *ImportSummary) Add(o ImportSummary) {
	s.Saved += o.Saved
	s.Duplicated += o.Duplicated
	s.Errors += o.Errors
	s.Orphaned += o.Orphaned
	s.Skipped = append(s.Skipped, o.Skipped...)
}
