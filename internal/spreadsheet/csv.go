// Package spreadsheet reads uploaded lead lists from CSV and XLSX files.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Read dispatches on the file extension and returns all non-empty rows,
// header included.
func Read(filename string, data []byte) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return ReadXLSX(data, XLSXOptions{})
	case ".csv", ".txt":
		return ReadCSV(data, CSVOptions{TrimSpace: true, LazyQuotes: true})
	default:
		return nil, eris.Errorf("spreadsheet: unsupported file type %q", filepath.Ext(filename))
	}
}

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune // 0 = detect from the header line
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// ReadCSV parses data as CSV. Spreadsheet exports from Brazilian locales use
// ';' so the delimiter is sniffed from the first line unless set.
func ReadCSV(data []byte, opts CSVOptions) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = opts.Delimiter
	if reader.Comma == 0 {
		reader.Comma = DetectDelimiter(data)
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}
}

// DetectDelimiter picks ';', tab or ',' by counting them in the first line.
func DetectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
