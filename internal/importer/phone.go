package importer

import (
	"strings"

	"github.com/dnx-plataformas/crm-leads/internal/classify"
)

// OnlyDigits strips every non-digit character from s.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone joins ddd and number and formats the result as
// "(DD) XXXXX-XXXX" (11 digits) or "(DD) XXXX-XXXX" (10 digits). Any other
// length yields nil.
func FormatPhone(ddd, number string) *string {
	d := OnlyDigits(ddd + number)
	var out string
	switch len(d) {
	case 11:
		out = "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		out = "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return nil
	}
	return &out
}

// NormalizePhone formats a free-form phone typed into a spreadsheet. A
// leading 55 country code is dropped.
func NormalizePhone(raw string) *string {
	d := OnlyDigits(raw)
	if (len(d) == 12 || len(d) == 13) && strings.HasPrefix(d, "55") {
		d = d[2:]
	}
	return FormatPhone("", d)
}

// PickPhone returns the first formattable phone among mobile-1, mobile-2
// and landline-1.
func PickPhone(rec classify.Record) *string {
	for _, cols := range classify.PhoneColumns {
		if p := FormatPhone(rec.Get(cols[0]), rec.Get(cols[1])); p != nil {
			return p
		}
	}
	return nil
}

// FormatCNPJ renders 14 digits as 00.000.000/0000-00.
func FormatCNPJ(d string) string {
	if len(d) != 14 {
		return d
	}
	return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
}

// FormatCPF renders 11 digits as 000.000.000-00.
func FormatCPF(d string) string {
	if len(d) != 11 {
		return d
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}
