package importer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/dnx-plataformas/crm-leads/internal/classify"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

func workbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestImportSpreadsheet_CSV(t *testing.T) {
	st := newTestStore(t)
	im := New(st, nil)

	data := []byte("Nome;Telefone;E-mail;CPF/CNPJ\n" +
		"Maria;(11) 91234-5678;maria@example.com;123.456.789-01\n" +
		"Sem Documento;+55 21 3333-4444;;\n" +
		"Repetido;21 3333-4444;;\n" +
		"Doc Ruim;;;12345\n" +
		"Vazio;abc;;\n")

	summary, err := im.ImportSpreadsheet(context.Background(), Request{TenantID: "tenant-a", Campaign: "feira"}, "leads.csv", data)
	require.NoError(t, err)
	assert.Equal(t, model.ImportSummary{Saved: 2, Duplicated: 1, Errors: 2}, summary)

	maria, err := st.FindLeadByTaxID(context.Background(), "tenant-a", "12345678901")
	require.NoError(t, err)
	require.NotNil(t, maria)
	assert.Equal(t, model.SourceSpreadsheet, maria.Source)
	assert.Equal(t, "feira", maria.Campaign)
	require.NotNil(t, maria.Phone)
	assert.Equal(t, "(11) 91234-5678", *maria.Phone)

	byPhone, err := st.FindLeadByPhone(context.Background(), "tenant-a", "(21) 3333-4444")
	require.NoError(t, err)
	require.NotNil(t, byPhone)
	assert.Equal(t, "Sem Documento", byPhone.Name)
	assert.Nil(t, byPhone.TaxID)
}

func TestImportSpreadsheet_XLSX(t *testing.T) {
	st := newTestStore(t)
	data := workbook(t, [][]string{
		{"Documento", "Celular"},
		{validCNPJ, ""},
		{"", "11987654321"},
	})

	summary, err := New(st, nil).ImportSpreadsheet(context.Background(), Request{TenantID: "tenant-a"}, "LEADS.XLSX", data)
	require.NoError(t, err)
	assert.Equal(t, model.ImportSummary{Saved: 2}, summary)

	leads, err := st.ListLeads(context.Background(), store.LeadFilter{TenantID: "tenant-a"})
	require.NoError(t, err)
	names := make([]string, 0, len(leads))
	for _, l := range leads {
		names = append(names, l.Name)
	}
	assert.ElementsMatch(t, []string{"11.222.333/0001-81", "(11) 98765-4321"}, names)
}

func TestImportSpreadsheet_DedupesAgainstExtraction(t *testing.T) {
	st := newTestStore(t)
	im := New(st, nil)

	_, err := im.Import(context.Background(), req, []*classify.Table{
		companies(validCNPJ + "\tACME LTDA\t\t\t\t\t\t\t\t"),
	})
	require.NoError(t, err)

	summary, err := im.ImportSpreadsheet(context.Background(), Request{TenantID: "tenant-a"}, "leads.csv",
		[]byte("cnpj,nome\n11.222.333/0001-81,Acme\n"))
	require.NoError(t, err)
	assert.Equal(t, model.ImportSummary{Duplicated: 1}, summary)
}

func TestImportSpreadsheet_Rejects(t *testing.T) {
	im := New(newTestStore(t), nil)
	r := Request{TenantID: "tenant-a"}

	_, err := im.ImportSpreadsheet(context.Background(), r, "leads.csv", []byte("nome,email\nMaria,m@example.com\n"))
	assert.Error(t, err, "no phone or document column")

	_, err = im.ImportSpreadsheet(context.Background(), r, "leads.pdf", []byte("%PDF"))
	assert.Error(t, err)

	_, err = im.ImportSpreadsheet(context.Background(), Request{}, "leads.csv", []byte("cpf\n12345678901\n"))
	assert.Error(t, err)
}
