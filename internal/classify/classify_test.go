package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []string
		want   Kind
	}{
		{"company", []string{"CNPJ", "razaoSocial", "nomeFantasia"}, KindCompany},
		{"officer with parent CNPJ", []string{"CNPJ", "cpf", "cpfFormatado", "nome"}, KindOfficer},
		{"officer without CNPJ", []string{"cpf", "cpfFormatado"}, KindOfficer},
		{"company with only lowercase cpf", []string{"CNPJ", "cpf"}, KindCompany},
		{"person", []string{"CPF", "nome", "dataNascimento"}, KindPerson},
		{"lowercase cpf alone is unknown", []string{"cpf", "nome"}, KindUnknown},
		{"unknown", []string{"id", "descricao"}, KindUnknown},
		{"empty", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.header))
		})
	}
}

func TestParse(t *testing.T) {
	text := "CNPJ\trazaoSocial\tuf\r\n" +
		"11.222.333/0001-81\t ACME LTDA \tSP\r\n" +
		"\r\n" +
		"123\tCURTA\n" +
		"99\tEXTRA\tRJ\tsobra\n"

	tbl := Parse(text)
	assert.Equal(t, KindCompany, tbl.Kind)
	assert.Equal(t, []string{"CNPJ", "razaoSocial", "uf"}, tbl.Header)
	require.Len(t, tbl.Rows, 3)

	assert.Equal(t, "ACME LTDA", tbl.Rows[0].Get(ColLegalName))
	assert.Equal(t, "SP", tbl.Rows[0].Get(ColState))

	assert.Equal(t, "", tbl.Rows[1].Get(ColState))
	_, present := tbl.Rows[1][ColState]
	assert.True(t, present)

	assert.Len(t, tbl.Rows[2], 3)
	assert.Equal(t, "RJ", tbl.Rows[2].Get(ColState))
}

func TestParse_HeaderOnlyAndEmpty(t *testing.T) {
	tbl := Parse("CPF\tnome\n")
	assert.Equal(t, KindPerson, tbl.Kind)
	assert.Empty(t, tbl.Rows)

	tbl = Parse("")
	assert.Equal(t, KindUnknown, tbl.Kind)
	assert.Nil(t, tbl.Header)
}

func TestParse_SkipsLeadingBlankLines(t *testing.T) {
	tbl := Parse("\r\n  \nCPF\tnome\n123\tMARIA\n")
	assert.Equal(t, KindPerson, tbl.Kind)
	assert.Equal(t, []string{"CPF", "nome"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "MARIA", tbl.Rows[0].Get("nome"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "company", KindCompany.String())
	assert.Equal(t, "officer", KindOfficer.String())
	assert.Equal(t, "person", KindPerson.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
