package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnx-plataformas/crm-leads/internal/classify"
)

func TestParseDecimal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.234.567,89", 1234567.89, true},
		{"R$ 10,5", 10.5, true},
		{"1234.5", 1234.5, true},
		{"1.000.000", 1000000, true},
		{"33,33%", 33.33, true},
		{"", 0, false},
		{"n/d", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got := parseDecimal(tt.in)
			if !tt.ok {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 0.0001)
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"17/05/2010", "2010-05-17", "2010-05-17T00:00:00", "20100517"} {
		got := parseDate(in)
		require.NotNil(t, got, in)
		assert.Equal(t, 2010, got.Year())
		assert.Equal(t, 17, got.Day())
	}
	assert.Nil(t, parseDate("32/13/2010"))
	assert.Nil(t, parseDate(""))
}

func TestParseBool(t *testing.T) {
	require.NotNil(t, parseBool("Sim"))
	assert.True(t, *parseBool("S"))
	assert.False(t, *parseBool("Não"))
	assert.Nil(t, parseBool("ALTO"))
}

func TestParseInt(t *testing.T) {
	got := parseInt("1.250")
	require.NotNil(t, got)
	assert.Equal(t, 1250, *got)
	assert.Nil(t, parseInt("x"))
}

func TestExtraColumns(t *testing.T) {
	rec := classify.Record{"CNPJ": "1", "cnaeSecundario1": "6201-5/01", "vazio": ""}
	extra := extraColumns(rec, columnSet("CNPJ"))
	assert.Equal(t, map[string]string{"cnaeSecundario1": "6201-5/01"}, extra)

	assert.Nil(t, extraColumns(classify.Record{"CNPJ": "1"}, columnSet("CNPJ")))
}
