package lode

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"
)

// Ledger record kinds. The record_kind field is also the innermost
// partition of the ledger layout.
const (
	RecordKindOutcome = "outcome"
	RecordKindSummary = "summary"
)

// dayFormat is the layout of the day partition.
const dayFormat = "2006-01-02"

// ErrMissingBatchID is returned when a ledger record has no batch ID.
var ErrMissingBatchID = errors.New("ledger record rejected: missing batch_id")

// OutcomeRecord is one promotion attempt as stored in the ledger.
type OutcomeRecord struct {
	RecordKind  string    `json:"record_kind"`
	Day         string    `json:"day"`
	BatchID     string    `json:"batch_id"`
	Path        string    `json:"path"`
	Destination string    `json:"destination,omitempty"`
	Status      string    `json:"status"`
	Kind        string    `json:"kind,omitempty"`
	Message     string    `json:"message,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// SummaryRecord is the per-batch rollup stored after all outcomes.
type SummaryRecord struct {
	RecordKind      string           `json:"record_kind"`
	Day             string           `json:"day"`
	BatchID         string           `json:"batch_id"`
	SourceRoot      string           `json:"source_root"`
	DestinationRoot string           `json:"destination_root"`
	Depth           string           `json:"depth"`
	Total           int64            `json:"total"`
	Promoted        int64            `json:"promoted"`
	Failed          int64            `json:"failed"`
	Buckets         map[string]int64 `json:"buckets"`
	StartedAt       time.Time        `json:"started_at"`
	CompletedAt     time.Time        `json:"completed_at"`
	DurationMS      int64            `json:"duration_ms"`
}

// Ledger appends promotion outcomes to a Lode dataset.
// Each call is one dataset write, so one snapshot.
type Ledger struct {
	dataset lode.Dataset
	mu      sync.Mutex
}

// NewLedger creates a ledger over a dataset built by NewLedgerDataset.
func NewLedger(dataset string, factory lode.StoreFactory) (*Ledger, error) {
	ds, err := NewLedgerDataset(dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, dataset)
	}
	return &Ledger{dataset: ds}, nil
}

// Dataset returns the underlying dataset for queries.
func (l *Ledger) Dataset() lode.Dataset {
	return l.dataset
}

// RecordOutcomes writes outcome records in one snapshot.
// Day defaults to the UTC day of RecordedAt.
func (l *Ledger) RecordOutcomes(ctx context.Context, outcomes []OutcomeRecord) error {
	if len(outcomes) == 0 {
		return nil
	}

	records := make([]any, 0, len(outcomes))
	for _, o := range outcomes {
		if o.BatchID == "" {
			return ErrMissingBatchID
		}
		records = append(records, outcomeRecordMap(o))
	}
	return l.write(ctx, records, outcomes[0].BatchID)
}

// RecordSummary writes the batch summary in its own snapshot.
func (l *Ledger) RecordSummary(ctx context.Context, s SummaryRecord) error {
	if s.BatchID == "" {
		return ErrMissingBatchID
	}
	return l.write(ctx, []any{summaryRecordMap(s)}, s.BatchID)
}

func (l *Ledger) write(ctx context.Context, records []any, batchID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		return WrapWriteError(err, string(l.dataset.ID())+"/batch_id="+batchID)
	}
	return nil
}

func outcomeRecordMap(o OutcomeRecord) map[string]any {
	m := map[string]any{
		"record_kind": RecordKindOutcome,
		"day":         dayOf(o.Day, o.RecordedAt),
		"batch_id":    o.BatchID,
		"path":        o.Path,
		"status":      o.Status,
		"recorded_at": o.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
	if o.Destination != "" {
		m["destination"] = o.Destination
	}
	if o.Kind != "" {
		m["kind"] = o.Kind
	}
	if o.Message != "" {
		m["message"] = o.Message
	}
	return m
}

func summaryRecordMap(s SummaryRecord) map[string]any {
	buckets := make(map[string]any, len(s.Buckets))
	for k, v := range s.Buckets {
		buckets[k] = v
	}
	return map[string]any{
		"record_kind":      RecordKindSummary,
		"day":              dayOf(s.Day, s.StartedAt),
		"batch_id":         s.BatchID,
		"source_root":      s.SourceRoot,
		"destination_root": s.DestinationRoot,
		"depth":            s.Depth,
		"total":            s.Total,
		"promoted":         s.Promoted,
		"failed":           s.Failed,
		"buckets":          buckets,
		"started_at":       s.StartedAt.UTC().Format(time.RFC3339Nano),
		"completed_at":     s.CompletedAt.UTC().Format(time.RFC3339Nano),
		"duration_ms":      s.DurationMS,
	}
}

func dayOf(day string, t time.Time) string {
	if day != "" {
		return day
	}
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(dayFormat)
}
