package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// JobStatus is the lifecycle state of an extraction job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusFinished   JobStatus = "finished"
	JobStatusError      JobStatus = "error"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether polling should stop at this status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusFinished, JobStatusError, JobStatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusFinished, JobStatusError, JobStatusCancelled:
		return true
	}
	return false
}

// UnknownStatusError is returned when the provider reports a status string
// that does not map to a JobStatus.
type UnknownStatusError struct {
	Raw string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unrecognized provider status %q", e.Raw)
}

// providerStatuses maps normalized provider strings to JobStatus.
var providerStatuses = map[string]JobStatus{
	"pendente":    JobStatusPending,
	"aguardando":  JobStatusPending,
	"processando": JobStatusProcessing,
	"processado":  JobStatusFinished,
	"finalizada":  JobStatusFinished,
	"finalizado":  JobStatusFinished,
	"erro":        JobStatusError,
	"cancelada":   JobStatusCancelled,
	"cancelado":   JobStatusCancelled,
}

// ParseProviderStatus maps a provider status string ("Processando",
// "Finalizada", ...) to a JobStatus. Comparison ignores case, accents and
// surrounding whitespace.
func ParseProviderStatus(raw string) (JobStatus, error) {
	if s, ok := providerStatuses[foldStatus(raw)]; ok {
		return s, nil
	}
	return "", &UnknownStatusError{Raw: raw}
}

func foldStatus(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, raw)
	if err != nil {
		out = raw
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// ExtractionJob is a bulk data request placed with the extraction provider.
type ExtractionJob struct {
	ID                string     `json:"id"`
	ProviderID        string     `json:"provider_id"`
	TenantID          string     `json:"tenant_id"`
	ArchiveName       string     `json:"archive_name"`
	Status            JobStatus  `json:"status"`
	QuantityRequested int        `json:"quantity_requested"`
	QuantityReturned  int        `json:"quantity_returned"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// StatusReport is the outcome of one provider status check.
type StatusReport struct {
	JobID             string     `json:"job_id"`
	ProviderID        string     `json:"provider_id"`
	Status            JobStatus  `json:"status"`
	RawStatus         string     `json:"raw_status"`
	QuantityRequested int        `json:"quantity_requested"`
	QuantityReturned  int        `json:"quantity_returned"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	CheckedAt         time.Time  `json:"checked_at"`
}
