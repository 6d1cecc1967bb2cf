package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/dnx-plataformas/crm-leads/internal/classify"
)

var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"20060102",
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseDecimal accepts Brazilian ("1.234.567,89", "R$ 10,5") and plain
// ("1234.5") notation.
func parseDecimal(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if strings.Count(s, ".") > 1 {
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseInt reads a count such as "1.250" (dot as thousands separator),
// dropping any decimal part.
func parseInt(s string) *int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseBool(s string) *bool {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "sim", "true", "1", "y", "yes":
		v = true
	case "n", "nao", "não", "false", "0", "no":
		v = false
	default:
		return nil
	}
	return &v
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// extraColumns collects the non-empty values of columns not in mapped.
func extraColumns(rec classify.Record, mapped map[string]struct{}) map[string]string {
	var extra map[string]string
	for col, v := range rec {
		if v == "" {
			continue
		}
		if _, ok := mapped[col]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[col] = v
	}
	return extra
}

func columnSet(cols ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		m[c] = struct{}{}
	}
	return m
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
