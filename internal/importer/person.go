package importer

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/dnx-plataformas/crm-leads/internal/classify"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

var personMapped = columnSet(
	classify.ColPersonCPF, classify.ColName, classify.ColBirthDate, classify.ColMotherName,
	classify.ColGender, classify.ColIncome, classify.ColScore, classify.ColEmail,
	classify.ColStreet, classify.ColNumber, classify.ColComplement, classify.ColNeighborhood,
	classify.ColCity, classify.ColState, classify.ColZipCode,
)

func (im *Importer) importPerson(ctx context.Context, req Request, rec classify.Record) (outcome, error) {
	cpf := OnlyDigits(rec.Get(classify.ColPersonCPF))
	if len(cpf) != 11 {
		return outcomeError, eris.Errorf("importer: invalid CPF %q", rec.Get(classify.ColPersonCPF))
	}

	existing, err := im.store.FindLeadByTaxID(ctx, req.TenantID, cpf)
	if err != nil {
		return outcomeError, err
	}
	if existing != nil {
		return outcomeDuplicate, nil
	}

	lead := &model.Lead{
		TenantID: req.TenantID,
		Name:     firstNonEmpty(rec.Get(classify.ColName), FormatCPF(cpf)),
		TaxID:    &cpf,
		Phone:    PickPhone(rec),
		Email:    optional(rec.Get(classify.ColEmail)),
		Source:   req.Source,
		Campaign: req.Campaign,
		Active:   true,
	}
	detail := &model.PersonDetail{
		CPF:        cpf,
		BirthDate:  parseDate(rec.Get(classify.ColBirthDate)),
		MotherName: rec.Get(classify.ColMotherName),
		Gender:     rec.Get(classify.ColGender),
		Income:     parseDecimal(rec.Get(classify.ColIncome)),
		Score:      parseInt(rec.Get(classify.ColScore)),
		Email:      rec.Get(classify.ColEmail),
		Address:    address(rec),
		Extra:      extraColumns(rec, personMapped),
	}

	err = im.store.WithTx(ctx, func(w store.LeadWriter) error {
		if err := w.CreateLead(ctx, lead); err != nil {
			return err
		}
		detail.LeadID = lead.ID
		return w.CreatePersonDetail(ctx, detail)
	})
	if errors.Is(err, store.ErrDuplicate) {
		return outcomeDuplicate, nil
	}
	if err != nil {
		return outcomeError, eris.Wrapf(err, "importer: save person %s", cpf)
	}
	return outcomeSaved, nil
}
