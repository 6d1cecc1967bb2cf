package importer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dnx-plataformas/crm-leads/internal/classify"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

// importOfficer attaches a partner to its parent company's detail record.
// A missing parent is reported as orphaned, not as an error.
func (im *Importer) importOfficer(ctx context.Context, req Request, rec classify.Record) (outcome, error) {
	cpf := OnlyDigits(rec.Get(classify.ColOfficerCPF))
	if len(cpf) != 11 {
		return outcomeError, eris.Errorf("importer: invalid officer CPF %q", rec.Get(classify.ColOfficerCPF))
	}
	parentCNPJ := OnlyDigits(rec.Get(classify.ColCNPJ))
	if len(parentCNPJ) != 14 {
		return outcomeError, eris.Errorf("importer: invalid parent CNPJ %q", rec.Get(classify.ColCNPJ))
	}

	parent, err := im.store.FindLeadByTaxID(ctx, req.TenantID, parentCNPJ)
	if err != nil {
		return outcomeError, err
	}
	if parent == nil {
		zap.L().Debug("importer: officer without parent company", zap.String("cnpj", parentCNPJ))
		return outcomeOrphaned, nil
	}
	detail, err := im.store.GetCompanyDetailByLead(ctx, parent.ID)
	if err != nil {
		return outcomeError, err
	}
	if detail == nil {
		zap.L().Debug("importer: parent company has no detail record", zap.String("cnpj", parentCNPJ))
		return outcomeOrphaned, nil
	}

	exists, err := im.store.OfficerExists(ctx, detail.ID, cpf)
	if err != nil {
		return outcomeError, err
	}
	if exists {
		return outcomeDuplicate, nil
	}

	err = im.store.WithTx(ctx, func(w store.LeadWriter) error {
		own, err := w.FindLeadByTaxID(ctx, req.TenantID, cpf)
		if err != nil {
			return err
		}
		if own == nil {
			own = &model.Lead{
				TenantID: req.TenantID,
				Name:     firstNonEmpty(rec.Get(classify.ColName), FormatCPF(cpf)),
				TaxID:    &cpf,
				Phone:    PickPhone(rec),
				Email:    optional(rec.Get(classify.ColEmail)),
				Source:   req.Source,
				Campaign: req.Campaign,
				Active:   true,
			}
			if err := w.CreateLead(ctx, own); err != nil {
				return err
			}
		}

		return w.CreateOfficer(ctx, &model.Officer{
			CompanyDetailID: detail.ID,
			LeadID:          &own.ID,
			CPF:             cpf,
			Name:            firstNonEmpty(rec.Get(classify.ColName), own.Name),
			Participation:   parseDecimal(rec.Get(classify.ColParticipation)),
			Qualification:   rec.Get(classify.ColQualification),
		})
	})
	if err != nil {
		return outcomeError, eris.Wrapf(err, "importer: save officer %s of %s", cpf, parentCNPJ)
	}
	return outcomeSaved, nil
}
