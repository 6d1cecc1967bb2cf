package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	data []byte
}

func buildZIP(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		require.NoError(t, err)
		if e.data != nil {
			_, err = fw.Write(e.data)
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpen_FiltersAndKeepsOrder(t *testing.T) {
	data := buildZIP(t,
		entry{"socios.csv", []byte("cpf\tcpfFormatado\n")},
		entry{"docs/", nil},
		entry{"leia-me.pdf", []byte("%PDF")},
		entry{"empresas.TXT", []byte("CNPJ\trazaoSocial\n")},
	)

	members, err := Open(data)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "socios.csv", members[0].Name)
	assert.Equal(t, "empresas.TXT", members[1].Name)
	assert.Equal(t, "CNPJ\trazaoSocial\n", members[1].Text)
}

func TestOpen_StripsBOM(t *testing.T) {
	data := buildZIP(t, entry{"a.csv", append([]byte{0xEF, 0xBB, 0xBF}, "CNPJ\n"...)})

	members, err := Open(data)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "CNPJ\n", members[0].Text)
}

func TestOpen_DecodesWindows1252(t *testing.T) {
	// "SÃO JOSÉ" in Windows-1252.
	raw := []byte{'S', 0xC3, 'O', ' ', 'J', 'O', 'S', 0xC9}
	data := buildZIP(t, entry{"a.csv", raw})

	members, err := Open(data)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "SÃO JOSÉ", members[0].Text)
}

func TestOpen_RejectsTraversal(t *testing.T) {
	for _, name := range []string{"../../etc/leads.csv", "dados/../../leads.csv", `..\leads.csv`, "/etc/leads.csv"} {
		data := buildZIP(t, entry{name, []byte("x")})

		_, err := Open(data)
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "illegal member name", name)
	}
}

func TestOpen_AllowsDotsInsideNames(t *testing.T) {
	data := buildZIP(t,
		entry{"empresas..csv", []byte("CNPJ\n1")},
		entry{"lote..2/socios.txt", []byte("cpf\n2")},
	)

	members, err := Open(data)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "empresas..csv", members[0].Name)
	assert.Equal(t, "lote..2/socios.txt", members[1].Name)
}

func TestOpen_CorruptArchive(t *testing.T) {
	_, err := Open([]byte("definitely not a zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive: open zip")
}

func TestOpen_Empty(t *testing.T) {
	members, err := Open(buildZIP(t))
	require.NoError(t, err)
	assert.Empty(t, members)
}
