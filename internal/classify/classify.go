// Package classify parses the tab-delimited members of an extraction archive
// and decides which kind of record each file holds.
package classify

import "strings"

// Kind is the record type of a parsed file.
type Kind int

const (
	KindUnknown Kind = iota
	KindCompany
	KindOfficer
	KindPerson
)

func (k Kind) String() string {
	switch k {
	case KindCompany:
		return "company"
	case KindOfficer:
		return "officer"
	case KindPerson:
		return "person"
	default:
		return "unknown"
	}
}

// Record maps header names to trimmed raw values.
type Record map[string]string

// Get returns the trimmed value of col, or "".
func (r Record) Get(col string) string {
	return r[col]
}

// Table is a parsed file: header plus one Record per data line.
type Table struct {
	Name   string
	Kind   Kind
	Header []string
	Rows   []Record
}

// Parse splits text into lines and tab-separated fields. The first non-empty
// line is the header. Short rows are padded with "" and extra trailing
// fields are dropped.
func Parse(text string) *Table {
	t := &Table{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if t.Header == nil {
			t.Header = make([]string, len(fields))
			for i, f := range fields {
				t.Header[i] = strings.TrimSpace(f)
			}
			continue
		}
		rec := make(Record, len(t.Header))
		for i, col := range t.Header {
			if i < len(fields) {
				rec[col] = strings.TrimSpace(fields[i])
			} else {
				rec[col] = ""
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	t.Kind = Classify(t.Header)
	return t
}

// Classify decides the record kind from a header. Officer files also carry
// the parent company's CNPJ, so the officer check guards the company rule.
func Classify(header []string) Kind {
	cols := make(map[string]struct{}, len(header))
	for _, h := range header {
		cols[h] = struct{}{}
	}
	has := func(c string) bool {
		_, ok := cols[c]
		return ok
	}

	officer := has(ColOfficerCPF) && has(ColOfficerCPFFormatted)
	switch {
	case has(ColCNPJ) && !officer:
		return KindCompany
	case officer:
		return KindOfficer
	case has(ColPersonCPF):
		return KindPerson
	default:
		return KindUnknown
	}
}
