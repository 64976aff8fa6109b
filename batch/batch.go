// Package batch promotes every run directory under a source root and
// reports the failures by category.
//
// Directories are processed one at a time in name order. A failure on one
// directory never stops the batch; it is recorded as an Outcome and the
// runner moves on.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/reprox/adapter"
	"github.com/justapithecus/reprox/lode"
	"github.com/justapithecus/reprox/log"
	"github.com/justapithecus/reprox/metrics"
	"github.com/justapithecus/reprox/types"
)

// DefaultSmallBucketLimit is the largest bucket whose paths are logged individually.
const DefaultSmallBucketLimit = 10

// Mover promotes one directory. *promote.Promoter implements it.
type Mover interface {
	MoveFolder(ctx context.Context, path string) (*types.Finding, error)
	DestinationFor(path string) string
}

// Ledger persists batch outcomes. *lode.Ledger implements it.
type Ledger interface {
	RecordOutcomes(ctx context.Context, outcomes []lode.OutcomeRecord) error
	RecordSummary(ctx context.Context, summary lode.SummaryRecord) error
}

// Config configures a Runner.
type Config struct {
	// SourceRoot holds the candidate run directories (required).
	SourceRoot string
	// DestinationRoot labels the report and ledger summary.
	DestinationRoot string
	// Promoter moves each directory (required).
	Promoter Mover
	// Logger receives per-directory and summary entries (optional).
	Logger *log.Logger
	// Collector counts outcomes (optional; one is created per runner).
	Collector *metrics.Collector
	// Publisher announces promoted directories (optional).
	Publisher adapter.Publisher
	// Ledger records outcomes after the batch (optional).
	Ledger Ledger
	// BatchID labels logs, events and ledger records (default: random UUID).
	BatchID string
	// Depth labels the batch; validation depth itself belongs to the promoter.
	Depth types.Depth
	// SmallBucketLimit is the largest bucket whose paths are logged (default 10).
	SmallBucketLimit int
	// Now is the clock (default time.Now).
	Now func() time.Time
}

// Runner drains a source root.
type Runner struct {
	cfg       Config
	logger    *log.Logger
	collector *metrics.Collector
}

// New validates cfg and applies defaults.
func New(cfg Config) (*Runner, error) {
	if cfg.SourceRoot == "" {
		return nil, errors.New("source root is required")
	}
	if cfg.Promoter == nil {
		return nil, errors.New("batch runner requires a promoter")
	}
	if cfg.BatchID == "" {
		cfg.BatchID = uuid.NewString()
	}
	if cfg.Depth == "" {
		cfg.Depth = types.DepthShallow
	}
	if cfg.SmallBucketLimit <= 0 {
		cfg.SmallBucketLimit = DefaultSmallBucketLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	collector := cfg.Collector
	if collector == nil {
		collector = metrics.NewCollector(cfg.BatchID, string(cfg.Depth))
	}

	return &Runner{cfg: cfg, logger: logger, collector: collector}, nil
}

// BatchID returns the batch identifier in use.
func (r *Runner) BatchID() string {
	return r.cfg.BatchID
}

// Candidates lists the immediate child directories of the source root, sorted.
func (r *Runner) Candidates() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("list source root %s: %w", r.cfg.SourceRoot, err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			r.logger.Debug("skipping non-directory entry", map[string]any{"name": e.Name()})
			continue
		}
		dirs = append(dirs, filepath.Join(r.cfg.SourceRoot, e.Name()))
	}
	sort.Strings(dirs)
	return dirs, nil
}

// MoveAll promotes every candidate directory and returns the report.
// The only error is failing to enumerate the source root; per-directory
// failures are in the report. Cancellation stops between directories and
// the rest are recorded as other.
func (r *Runner) MoveAll(ctx context.Context) (*Report, error) {
	started := r.cfg.Now()

	dirs, err := r.Candidates()
	if err != nil {
		return nil, err
	}

	report := &Report{
		BatchID:         r.cfg.BatchID,
		SourceRoot:      r.cfg.SourceRoot,
		DestinationRoot: r.cfg.DestinationRoot,
		Depth:           string(r.cfg.Depth),
		StartedAt:       started,
		Outcomes:        make([]Outcome, 0, len(dirs)),
	}

	for i, path := range dirs {
		if err := ctx.Err(); err != nil {
			report.Canceled = true
			for _, rest := range dirs[i:] {
				r.record(report, Outcome{Path: rest, Status: StatusOther, Message: err.Error()})
			}
			r.logger.Warn("batch canceled", map[string]any{"remaining": len(dirs) - i})
			break
		}

		o := r.moveOne(ctx, path)
		r.record(report, o)
		if o.Status == StatusPromoted {
			r.publish(ctx, o)
		}
	}

	report.tally()
	report.CompletedAt = r.cfg.Now()
	report.DurationMs = report.CompletedAt.Sub(started).Milliseconds()

	r.logSummary(report)

	// Ledger writes outlive a canceled batch context.
	if err := r.writeLedger(context.WithoutCancel(ctx), report); err != nil {
		report.LedgerError = err.Error()
	}

	report.Metrics = r.collector.Snapshot()
	return report, nil
}

// moveOne isolates one directory: errors and panics become outcomes.
func (r *Runner) moveOne(ctx context.Context, path string) (o Outcome) {
	defer func() {
		if p := recover(); p != nil {
			o = Outcome{Path: path, Status: StatusOther, Message: fmt.Sprintf("panic: %v", p)}
		}
	}()

	finding, err := r.cfg.Promoter.MoveFolder(ctx, path)
	return Classify(path, r.cfg.Promoter.DestinationFor(path), finding, err)
}

func (r *Runner) record(report *Report, o Outcome) {
	report.Outcomes = append(report.Outcomes, o)
	r.collector.IncScanned()

	fields := map[string]any{"path": o.Path, "status": string(o.Status)}
	switch o.Status {
	case StatusPromoted:
		r.collector.IncPromoted()
		fields["destination"] = o.Destination
		r.logger.Info("promoted", fields)
		return
	case StatusInvalid:
		r.collector.IncInvalid(string(o.Kind))
		fields["kind"] = string(o.Kind)
	case StatusAlreadyExists:
		r.collector.IncAlreadyExists()
	case StatusOther:
		r.collector.IncOther()
	}
	if o.Message != "" {
		fields["message"] = o.Message
	}
	r.logger.Debug("not promoted", fields)
}

func (r *Runner) publish(ctx context.Context, o Outcome) {
	if r.cfg.Publisher == nil {
		return
	}
	event := adapter.NewRunPromotedEvent(r.cfg.BatchID, o.Path, o.Destination, r.cfg.Depth, r.cfg.Now())
	if err := r.cfg.Publisher.Publish(ctx, event); err != nil {
		r.collector.IncPublishFailure()
		r.logger.Warn("failed to publish promotion event", map[string]any{
			"path":  o.Destination,
			"error": err.Error(),
		})
		return
	}
	r.collector.IncPublishSuccess()
}

// logSummary logs one entry per bucket, listing paths for small buckets,
// then the totals.
func (r *Runner) logSummary(report *Report) {
	for _, b := range report.Buckets {
		fields := map[string]any{"bucket": b.Label, "count": b.Count}
		if b.Count <= r.cfg.SmallBucketLimit {
			fields["paths"] = b.Paths
		}
		r.logger.Info("failure bucket", fields)
	}
	r.logger.Info("batch complete", map[string]any{
		"total":       report.Total,
		"promoted":    report.Promoted,
		"failed":      report.Failed,
		"duration_ms": report.DurationMs,
	})
}

func (r *Runner) writeLedger(ctx context.Context, report *Report) error {
	if r.cfg.Ledger == nil {
		return nil
	}

	records := make([]lode.OutcomeRecord, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		records = append(records, lode.OutcomeRecord{
			BatchID:     report.BatchID,
			Path:        o.Path,
			Destination: o.Destination,
			Status:      string(o.Status),
			Kind:        string(o.Kind),
			Message:     o.Message,
			RecordedAt:  report.CompletedAt,
		})
	}
	if len(records) > 0 {
		if err := r.cfg.Ledger.RecordOutcomes(ctx, records); err != nil {
			return r.ledgerFailed(err)
		}
		r.collector.IncLedgerWriteSuccess()
	}

	buckets := make(map[string]int64, len(report.Buckets))
	for _, b := range report.Buckets {
		buckets[b.Label] = int64(b.Count)
	}
	summary := lode.SummaryRecord{
		BatchID:         report.BatchID,
		SourceRoot:      report.SourceRoot,
		DestinationRoot: report.DestinationRoot,
		Depth:           report.Depth,
		Total:           int64(report.Total),
		Promoted:        int64(report.Promoted),
		Failed:          int64(report.Failed),
		Buckets:         buckets,
		StartedAt:       report.StartedAt,
		CompletedAt:     report.CompletedAt,
		DurationMS:      report.DurationMs,
	}
	if err := r.cfg.Ledger.RecordSummary(ctx, summary); err != nil {
		return r.ledgerFailed(err)
	}
	r.collector.IncLedgerWriteSuccess()
	return nil
}

func (r *Runner) ledgerFailed(err error) error {
	r.collector.IncLedgerWriteFailure()
	r.logger.Error("failed to write ledger", map[string]any{"error": err.Error()})
	return err
}
