package importer

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dnx-plataformas/crm-leads/internal/classify"
	"github.com/dnx-plataformas/crm-leads/internal/lock"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/spreadsheet"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

// Canonical spreadsheet fields and the header aliases accepted for each.
const (
	sheetName  = "name"
	sheetPhone = "phone"
	sheetEmail = "email"
	sheetDoc   = "document"
)

var sheetAliases = map[string]string{
	"nome":      sheetName,
	"name":      sheetName,
	"telefone":  sheetPhone,
	"phone":     sheetPhone,
	"celular":   sheetPhone,
	"whatsapp":  sheetPhone,
	"email":     sheetEmail,
	"e-mail":    sheetEmail,
	"cpf":       sheetDoc,
	"cnpj":      sheetDoc,
	"documento": sheetDoc,
	"cpf/cnpj":  sheetDoc,
}

// ImportSpreadsheet imports an uploaded .xlsx or .csv lead list. Rows with a
// tax id are deduplicated on it; rows with only a phone on the formatted
// phone. A file that cannot be read, or lacks both a phone and a document
// column, fails the whole import.
func (im *Importer) ImportSpreadsheet(ctx context.Context, req Request, filename string, data []byte) (model.ImportSummary, error) {
	var summary model.ImportSummary
	if req.TenantID == "" {
		return summary, eris.New("importer: tenant id is required")
	}
	if req.Source == "" {
		req.Source = model.SourceSpreadsheet
	}

	rows, err := spreadsheet.Read(filename, data)
	if err != nil {
		return summary, err
	}
	if len(rows) == 0 {
		return summary, eris.Errorf("importer: %s is empty", filename)
	}

	index := sheetHeader(rows[0])
	_, hasPhone := index[sheetPhone]
	_, hasDoc := index[sheetDoc]
	if !hasPhone && !hasDoc {
		return summary, eris.Errorf("importer: %s has no phone or document column", filename)
	}

	release, err := im.locker.Acquire(ctx, lock.TenantKey(req.TenantID))
	if err != nil {
		return summary, err
	}
	defer im.release(release)

	for i, row := range rows[1:] {
		rec := make(classify.Record, len(index))
		for field, col := range index {
			if col < len(row) {
				rec[field] = strings.TrimSpace(row[col])
			}
		}
		out, err := guard(ctx, req, rec, im.importSheetRow)
		if err != nil {
			zap.L().Warn("importer: spreadsheet row failed",
				zap.String("file", filename), zap.Int("line", i+2), zap.Error(err))
		}
		tally(&summary, out)
	}

	zap.L().Info("importer: spreadsheet import complete",
		zap.String("tenant_id", req.TenantID),
		zap.String("file", filename),
		zap.Int("saved", summary.Saved),
		zap.Int("duplicated", summary.Duplicated),
		zap.Int("errors", summary.Errors),
	)
	return summary, nil
}

// sheetHeader maps canonical field names to column positions. The first
// column wins when aliases repeat.
func sheetHeader(header []string) map[string]int {
	index := make(map[string]int)
	for i, h := range header {
		field, ok := sheetAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, seen := index[field]; !seen {
			index[field] = i
		}
	}
	return index
}

func (im *Importer) importSheetRow(ctx context.Context, req Request, rec classify.Record) (outcome, error) {
	phone := NormalizePhone(rec.Get(sheetPhone))

	var taxID *string
	if raw := rec.Get(sheetDoc); raw != "" {
		d := OnlyDigits(raw)
		if len(d) != 11 && len(d) != 14 {
			return outcomeError, eris.Errorf("importer: invalid document %q", raw)
		}
		taxID = &d
	}
	if taxID == nil && phone == nil {
		return outcomeError, eris.Errorf("importer: row has neither a valid phone (%q) nor a document", rec.Get(sheetPhone))
	}

	var existing *model.Lead
	var err error
	if taxID != nil {
		existing, err = im.store.FindLeadByTaxID(ctx, req.TenantID, *taxID)
	} else {
		existing, err = im.store.FindLeadByPhone(ctx, req.TenantID, *phone)
	}
	if err != nil {
		return outcomeError, err
	}
	if existing != nil {
		return outcomeDuplicate, nil
	}

	name := rec.Get(sheetName)
	if name == "" {
		switch {
		case taxID != nil && len(*taxID) == 14:
			name = FormatCNPJ(*taxID)
		case taxID != nil:
			name = FormatCPF(*taxID)
		default:
			name = *phone
		}
	}

	err = im.store.CreateLead(ctx, &model.Lead{
		TenantID: req.TenantID,
		Name:     name,
		TaxID:    taxID,
		Phone:    phone,
		Email:    optional(rec.Get(sheetEmail)),
		Source:   req.Source,
		Campaign: req.Campaign,
		Active:   true,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return outcomeDuplicate, nil
	}
	if err != nil {
		return outcomeError, err
	}
	return outcomeSaved, nil
}
