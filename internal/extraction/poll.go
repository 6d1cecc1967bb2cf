package extraction

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/resilience"
	"github.com/dnx-plataformas/crm-leads/pkg/databroker"
)

const (
	defaultPollInterval    = 10 * time.Second
	defaultMaxPollAttempts = 60
)

// Outcome is how a poll ended without an error.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeNotFound  Outcome = "not_found"
	// OutcomeTimedOut means the attempt budget ran out while the job was
	// still running. The job should be checked manually.
	OutcomeTimedOut Outcome = "timed_out"
)

// PollResult is the final state of a poll. Report is the last status
// received, nil if none was.
type PollResult struct {
	Outcome  Outcome             `json:"outcome"`
	Attempts int                 `json:"attempts"`
	Report   *model.StatusReport `json:"report,omitempty"`
}

// CheckFunc performs one status check.
type CheckFunc func(ctx context.Context) (*model.StatusReport, error)

// PollOption configures a Poller.
type PollOption func(*Poller)

// WithPollInterval sets the minimum spacing between two checks.
func WithPollInterval(d time.Duration) PollOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxAttempts caps the number of checks of one poll.
func WithMaxAttempts(n int) PollOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// Poller repeats a status check until the job reaches a terminal status.
type Poller struct {
	interval    time.Duration
	maxAttempts int
}

// NewPoller creates a Poller checking every 10s, at most 60 times, unless
// overridden.
func NewPoller(opts ...PollOption) *Poller {
	p := &Poller{interval: defaultPollInterval, maxAttempts: defaultMaxPollAttempts}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the spacing between checks.
func (p *Poller) Interval() time.Duration { return p.interval }

// MaxAttempts returns the attempt budget.
func (p *Poller) MaxAttempts() int { return p.maxAttempts }

// Poll runs check immediately and then at most once per interval. Transient
// failures use up an attempt and polling goes on; a provider "not found"
// ends the poll with OutcomeNotFound. Any other error, including a status
// string that cannot be mapped, is returned as is.
func (p *Poller) Poll(ctx context.Context, check CheckFunc) (*PollResult, error) {
	limiter := rate.NewLimiter(rate.Every(p.interval), 1)

	var last *model.StatusReport
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "extraction: poll stopped")
		}

		report, err := check(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, eris.Wrap(ctxErr, "extraction: poll stopped")
			}
			if errors.Is(err, databroker.ErrNotFound) {
				return &PollResult{Outcome: OutcomeNotFound, Attempts: attempt, Report: last}, nil
			}
			if resilience.IsTransient(err) {
				zap.L().Warn("extraction: transient status check failure",
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", p.maxAttempts),
					zap.Error(err),
				)
				continue
			}
			return nil, eris.Wrapf(err, "extraction: status check %d", attempt)
		}

		last = report
		zap.L().Debug("extraction: status checked",
			zap.Int("attempt", attempt),
			zap.String("status", string(report.Status)),
			zap.String("raw_status", report.RawStatus),
		)

		switch report.Status {
		case model.JobStatusFinished:
			return &PollResult{Outcome: OutcomeCompleted, Attempts: attempt, Report: report}, nil
		case model.JobStatusError:
			return &PollResult{Outcome: OutcomeFailed, Attempts: attempt, Report: report}, nil
		case model.JobStatusCancelled:
			return &PollResult{Outcome: OutcomeCancelled, Attempts: attempt, Report: report}, nil
		}
	}

	zap.L().Warn("extraction: poll attempts exhausted, check the job manually",
		zap.Int("attempts", p.maxAttempts),
		zap.Duration("interval", p.interval),
	)
	return &PollResult{Outcome: OutcomeTimedOut, Attempts: p.maxAttempts, Report: last}, nil
}
