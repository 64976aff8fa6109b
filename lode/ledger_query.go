package lode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justapithecus/lode/lode"
)

// ErrNoSummaryFound is returned when no summary record matches a query.
var ErrNoSummaryFound = errors.New("no batch summary found")

// QueryLatestSummary finds the most recent batch summary in the ledger.
// Filters by batchID if non-empty.
func QueryLatestSummary(ctx context.Context, ds lode.Dataset, batchID string) (*SummaryRecord, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, string(ds.ID())+"/snapshots")
	}

	// Snapshots are ordered by creation time.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if !snapshotMatches(snap, "record_kind", RecordKindSummary) {
			continue
		}
		if !snapshotMatches(snap, "batch_id", batchID) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}

		// Record fields are authoritative; the manifest path check is a pre-filter.
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok || record["record_kind"] != RecordKindSummary {
				continue
			}
			if batchID != "" && toString(record["batch_id"]) != batchID {
				continue
			}
			return summaryFromMap(record), nil
		}
	}

	return nil, ErrNoSummaryFound
}

// QueryOutcomes returns every outcome record of batchID in write order.
func QueryOutcomes(ctx context.Context, ds lode.Dataset, batchID string) ([]OutcomeRecord, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, string(ds.ID())+"/snapshots")
	}

	var out []OutcomeRecord
	for _, snap := range snapshots {
		if !snapshotMatches(snap, "record_kind", RecordKindOutcome) || !snapshotMatches(snap, "batch_id", batchID) {
			continue
		}
		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok || record["record_kind"] != RecordKindOutcome || toString(record["batch_id"]) != batchID {
				continue
			}
			out = append(out, outcomeFromMap(record))
		}
	}
	return out, nil
}

func summaryFromMap(m map[string]any) *SummaryRecord {
	s := &SummaryRecord{
		RecordKind:      RecordKindSummary,
		Day:             toString(m["day"]),
		BatchID:         toString(m["batch_id"]),
		SourceRoot:      toString(m["source_root"]),
		DestinationRoot: toString(m["destination_root"]),
		Depth:           toString(m["depth"]),
		Total:           toInt64(m["total"]),
		Promoted:        toInt64(m["promoted"]),
		Failed:          toInt64(m["failed"]),
		StartedAt:       toTime(m["started_at"]),
		CompletedAt:     toTime(m["completed_at"]),
		DurationMS:      toInt64(m["duration_ms"]),
		Buckets:         make(map[string]int64),
	}
	if b, ok := m["buckets"].(map[string]any); ok {
		for k, v := range b {
			s.Buckets[k] = toInt64(v)
		}
	}
	return s
}

func outcomeFromMap(m map[string]any) OutcomeRecord {
	return OutcomeRecord{
		RecordKind:  RecordKindOutcome,
		Day:         toString(m["day"]),
		BatchID:     toString(m["batch_id"]),
		Path:        toString(m["path"]),
		Destination: toString(m["destination"]),
		Status:      toString(m["status"]),
		Kind:        toString(m["kind"]),
		Message:     toString(m["message"]),
		RecordedAt:  toTime(m["recorded_at"]),
	}
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 accepts the numeric types produced by the JSONL codec and by in-memory writes.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toTime(v any) time.Time {
	t, err := time.Parse(time.RFC3339Nano, toString(v))
	if err != nil {
		return time.Time{}
	}
	return t
}
