// Package importer writes classified extraction records and uploaded lead
// lists into the lead store.
package importer

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dnx-plataformas/crm-leads/internal/classify"
	"github.com/dnx-plataformas/crm-leads/internal/lock"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

// Request scopes one import.
type Request struct {
	TenantID string
	Campaign string
	Source   string
}

type outcome int

const (
	outcomeSaved outcome = iota
	outcomeDuplicate
	outcomeError
	outcomeOrphaned
)

// Importer writes rows sequentially so that every insert is visible to the
// duplicate checks of later rows.
type Importer struct {
	store  store.Store
	locker lock.Locker
}

// New creates an Importer. A nil locker disables tenant locking.
func New(st store.Store, locker lock.Locker) *Importer {
	if locker == nil {
		locker = lock.Noop{}
	}
	return &Importer{store: st, locker: locker}
}

// Import writes the given tables for one tenant. Company and person tables
// are written first and officer tables last, each group in the given order,
// so officers find their parent company whatever the file order. Row
// failures are counted; only failing to take the tenant lock aborts.
func (im *Importer) Import(ctx context.Context, req Request, tables []*classify.Table) (model.ImportSummary, error) {
	var summary model.ImportSummary
	if req.TenantID == "" {
		return summary, eris.New("importer: tenant id is required")
	}
	if req.Source == "" {
		req.Source = model.SourceExtraction
	}

	release, err := im.locker.Acquire(ctx, lock.TenantKey(req.TenantID))
	if err != nil {
		return summary, err
	}
	defer im.release(release)

	var officers []*classify.Table
	for _, tbl := range tables {
		switch tbl.Kind {
		case classify.KindCompany:
			im.importTable(ctx, req, tbl, im.importCompany, &summary)
		case classify.KindPerson:
			im.importTable(ctx, req, tbl, im.importPerson, &summary)
		case classify.KindOfficer:
			officers = append(officers, tbl)
		default:
			zap.L().Info("importer: skipping unclassified file",
				zap.String("file", tbl.Name),
				zap.Strings("header", tbl.Header),
			)
			summary.Skipped = append(summary.Skipped, tbl.Name)
		}
	}
	for _, tbl := range officers {
		im.importTable(ctx, req, tbl, im.importOfficer, &summary)
	}

	zap.L().Info("importer: import complete",
		zap.String("tenant_id", req.TenantID),
		zap.String("campaign", req.Campaign),
		zap.Int("saved", summary.Saved),
		zap.Int("duplicated", summary.Duplicated),
		zap.Int("errors", summary.Errors),
		zap.Int("orphaned", summary.Orphaned),
	)
	return summary, nil
}

type rowFunc func(ctx context.Context, req Request, rec classify.Record) (outcome, error)

func (im *Importer) importTable(ctx context.Context, req Request, tbl *classify.Table, fn rowFunc, summary *model.ImportSummary) {
	log := zap.L().With(zap.String("file", tbl.Name), zap.Stringer("kind", tbl.Kind))
	log.Debug("importer: importing file", zap.Int("rows", len(tbl.Rows)))

	for i, rec := range tbl.Rows {
		// Header is line 1.
		line := i + 2
		out, err := guard(ctx, req, rec, fn)
		if err != nil {
			log.Warn("importer: row failed", zap.Int("line", line), zap.Error(err))
		}
		tally(summary, out)
	}
}

// guard runs one row and turns a panic into a row error.
func guard(ctx context.Context, req Request, rec classify.Record, fn rowFunc) (out outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("importer: row panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			out, err = outcomeError, fmt.Errorf("importer: panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return outcomeError, eris.Wrap(err, "importer: context done")
	}
	return fn(ctx, req, rec)
}

func tally(s *model.ImportSummary, out outcome) {
	switch out {
	case outcomeSaved:
		s.Saved++
	case outcomeDuplicate:
		s.Duplicated++
	case outcomeOrphaned:
		s.Orphaned++
	default:
		s.Errors++
	}
}

func (im *Importer) release(release lock.ReleaseFunc) {
	// The caller's context may already be cancelled; release regardless.
	if err := release(context.Background()); err != nil {
		zap.L().Warn("importer: release tenant lock", zap.Error(err))
	}
}
