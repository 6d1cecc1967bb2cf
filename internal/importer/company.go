package importer

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/dnx-plataformas/crm-leads/internal/classify"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

var companyMapped = columnSet(
	classify.ColCNPJ, classify.ColLegalName, classify.ColTradeName, classify.ColOpenedAt,
	classify.ColLegalNature, classify.ColCompanySize, classify.ColRegistryStatus, classify.ColRevenue,
	classify.ColEmployeeCount, classify.ColPrimaryCNAE, classify.ColPrimaryCNAEDesc, classify.ColRisk,
	classify.ColScore, classify.ColEmail,
	classify.ColStreet, classify.ColNumber, classify.ColComplement, classify.ColNeighborhood,
	classify.ColCity, classify.ColState, classify.ColZipCode,
)

func (im *Importer) importCompany(ctx context.Context, req Request, rec classify.Record) (outcome, error) {
	cnpj := OnlyDigits(rec.Get(classify.ColCNPJ))
	if len(cnpj) != 14 {
		return outcomeError, eris.Errorf("importer: invalid CNPJ %q", rec.Get(classify.ColCNPJ))
	}

	existing, err := im.store.FindLeadByTaxID(ctx, req.TenantID, cnpj)
	if err != nil {
		return outcomeError, err
	}
	if existing != nil {
		return outcomeDuplicate, nil
	}

	lead := &model.Lead{
		TenantID: req.TenantID,
		Name:     firstNonEmpty(rec.Get(classify.ColLegalName), rec.Get(classify.ColTradeName), FormatCNPJ(cnpj)),
		TaxID:    &cnpj,
		Phone:    PickPhone(rec),
		Email:    optional(rec.Get(classify.ColEmail)),
		Source:   req.Source,
		Campaign: req.Campaign,
		Active:   true,
	}
	detail := companyDetail(cnpj, rec)

	err = im.store.WithTx(ctx, func(w store.LeadWriter) error {
		if err := w.CreateLead(ctx, lead); err != nil {
			return err
		}
		detail.LeadID = lead.ID
		return w.CreateCompanyDetail(ctx, detail)
	})
	if errors.Is(err, store.ErrDuplicate) {
		return outcomeDuplicate, nil
	}
	if err != nil {
		return outcomeError, eris.Wrapf(err, "importer: save company %s", cnpj)
	}
	return outcomeSaved, nil
}

func companyDetail(cnpj string, rec classify.Record) *model.CompanyDetail {
	d := &model.CompanyDetail{
		CNPJ:            cnpj,
		LegalName:       rec.Get(classify.ColLegalName),
		TradeName:       rec.Get(classify.ColTradeName),
		OpenedAt:        parseDate(rec.Get(classify.ColOpenedAt)),
		LegalNature:     rec.Get(classify.ColLegalNature),
		CompanySize:     rec.Get(classify.ColCompanySize),
		RegistryStatus:  rec.Get(classify.ColRegistryStatus),
		Revenue:         parseDecimal(rec.Get(classify.ColRevenue)),
		EmployeeCount:   parseInt(rec.Get(classify.ColEmployeeCount)),
		PrimaryCNAE:     rec.Get(classify.ColPrimaryCNAE),
		PrimaryCNAEDesc: rec.Get(classify.ColPrimaryCNAEDesc),
		Email:           rec.Get(classify.ColEmail),
		Address:         address(rec),
		Risk:            parseBool(rec.Get(classify.ColRisk)),
		Score:           parseInt(rec.Get(classify.ColScore)),
		Extra:           extraColumns(rec, companyMapped),
	}
	// Keep risk values that are not yes/no (e.g. "ALTO").
	if raw := rec.Get(classify.ColRisk); d.Risk == nil && raw != "" {
		if d.Extra == nil {
			d.Extra = make(map[string]string)
		}
		d.Extra[classify.ColRisk] = raw
	}
	return d
}

func address(rec classify.Record) model.Address {
	return model.Address{
		Street:       rec.Get(classify.ColStreet),
		Number:       rec.Get(classify.ColNumber),
		Complement:   rec.Get(classify.ColComplement),
		Neighborhood: rec.Get(classify.ColNeighborhood),
		City:         rec.Get(classify.ColCity),
		State:        rec.Get(classify.ColState),
		ZipCode:      OnlyDigits(rec.Get(classify.ColZipCode)),
	}
}
