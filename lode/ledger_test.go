package lode

import (
	"errors"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"
)

// sharedFactory returns a StoreFactory that always returns the given store,
// so write and read datasets share the same in-memory state.
func sharedFactory(store lode.Store) lode.StoreFactory {
	return func() (lode.Store, error) { return store, nil }
}

func testSummary(batchID string, promoted int64, at time.Time) SummaryRecord {
	return SummaryRecord{
		BatchID:         batchID,
		SourceRoot:      "/data/processed",
		DestinationRoot: "/data/production",
		Depth:           "shallow",
		Total:           promoted + 2,
		Promoted:        promoted,
		Failed:          2,
		Buckets:         map[string]int64{"misses_chunks": 1, "already_exists": 1},
		StartedAt:       at,
		CompletedAt:     at.Add(3 * time.Second),
		DurationMS:      3000,
	}
}

func TestNewLedgerDataset_DefaultID(t *testing.T) {
	ds, err := NewLedgerDataset("", sharedFactory(lode.NewMemory()))
	if err != nil {
		t.Fatalf("NewLedgerDataset failed: %v", err)
	}
	if ds.ID() != DefaultLedgerDataset {
		t.Errorf("Dataset ID = %q, want %q", ds.ID(), DefaultLedgerDataset)
	}
}

func TestOpenLedgerDataset_FS(t *testing.T) {
	ds, err := OpenLedgerDataset("ledger", StoreConfig{Backend: BackendFS, Path: t.TempDir()})
	if err != nil {
		t.Fatalf("OpenLedgerDataset failed: %v", err)
	}
	if ds.ID() != "ledger" {
		t.Errorf("Dataset ID = %q, want %q", ds.ID(), "ledger")
	}
}

func TestLedger_SummaryRoundTrip(t *testing.T) {
	factory := sharedFactory(lode.NewMemory())
	ledger, err := NewLedger("reprox", factory)
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}

	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	if err := ledger.RecordSummary(t.Context(), testSummary("b-1", 5, at)); err != nil {
		t.Fatalf("RecordSummary failed: %v", err)
	}

	ds, err := NewLedgerDataset("reprox", factory)
	if err != nil {
		t.Fatalf("NewLedgerDataset failed: %v", err)
	}
	got, err := QueryLatestSummary(t.Context(), ds, "")
	if err != nil {
		t.Fatalf("QueryLatestSummary failed: %v", err)
	}

	if got.BatchID != "b-1" {
		t.Errorf("BatchID = %q, want %q", got.BatchID, "b-1")
	}
	if got.Day != "2026-03-02" {
		t.Errorf("Day = %q, want %q", got.Day, "2026-03-02")
	}
	if got.Total != 7 || got.Promoted != 5 || got.Failed != 2 {
		t.Errorf("totals = %d/%d/%d, want 7/5/2", got.Total, got.Promoted, got.Failed)
	}
	if got.Buckets["misses_chunks"] != 1 || got.Buckets["already_exists"] != 1 {
		t.Errorf("Buckets = %v", got.Buckets)
	}
	if !got.StartedAt.Equal(at) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, at)
	}
	if got.DurationMS != 3000 {
		t.Errorf("DurationMS = %d, want 3000", got.DurationMS)
	}
}

func TestQueryLatestSummary_LatestAndFilter(t *testing.T) {
	ledger, err := NewLedger("reprox", sharedFactory(lode.NewMemory()))
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"b-1", "b-10", "b-2"} {
		if err := ledger.RecordSummary(t.Context(), testSummary(id, int64(i+1), at.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("RecordSummary(%s) failed: %v", id, err)
		}
	}

	latest, err := QueryLatestSummary(t.Context(), ledger.Dataset(), "")
	if err != nil {
		t.Fatalf("QueryLatestSummary failed: %v", err)
	}
	if latest.BatchID != "b-2" {
		t.Errorf("latest BatchID = %q, want %q", latest.BatchID, "b-2")
	}

	// b-1 must not match b-10.
	b1, err := QueryLatestSummary(t.Context(), ledger.Dataset(), "b-1")
	if err != nil {
		t.Fatalf("QueryLatestSummary(b-1) failed: %v", err)
	}
	if b1.BatchID != "b-1" || b1.Promoted != 1 {
		t.Errorf("b-1 summary = %+v", b1)
	}
}

func TestQueryLatestSummary_Empty(t *testing.T) {
	ds, err := NewLedgerDataset("reprox", sharedFactory(lode.NewMemory()))
	if err != nil {
		t.Fatalf("NewLedgerDataset failed: %v", err)
	}

	_, err = QueryLatestSummary(t.Context(), ds, "")
	if !errors.Is(err, ErrNoSummaryFound) {
		t.Errorf("expected ErrNoSummaryFound, got: %v", err)
	}
}

func TestLedger_Outcomes(t *testing.T) {
	ledger, err := NewLedger("reprox", sharedFactory(lode.NewMemory()))
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	outcomes := []OutcomeRecord{
		{BatchID: "b-1", Path: "/src/r1-peaks-abc", Destination: "/dst/r1-peaks-abc", Status: "promoted", RecordedAt: at},
		{BatchID: "b-1", Path: "/src/r2-peaks-abc", Status: "invalid", Kind: "misses_chunks", RecordedAt: at},
	}
	if err := ledger.RecordOutcomes(t.Context(), outcomes); err != nil {
		t.Fatalf("RecordOutcomes failed: %v", err)
	}
	other := []OutcomeRecord{{BatchID: "b-2", Path: "/src/r3-peaks-abc", Status: "other", Message: "boom", RecordedAt: at}}
	if err := ledger.RecordOutcomes(t.Context(), other); err != nil {
		t.Fatalf("RecordOutcomes failed: %v", err)
	}

	got, err := QueryOutcomes(t.Context(), ledger.Dataset(), "b-1")
	if err != nil {
		t.Fatalf("QueryOutcomes failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(got))
	}
	if got[0].Status != "promoted" || got[0].Destination != "/dst/r1-peaks-abc" {
		t.Errorf("outcome[0] = %+v", got[0])
	}
	if got[1].Kind != "misses_chunks" || got[1].Day != "2026-03-02" {
		t.Errorf("outcome[1] = %+v", got[1])
	}
}

func TestLedger_RejectsMissingBatchID(t *testing.T) {
	ledger, err := NewLedger("reprox", sharedFactory(lode.NewMemory()))
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}

	err = ledger.RecordOutcomes(t.Context(), []OutcomeRecord{{Path: "/src/x", Status: "promoted"}})
	if !errors.Is(err, ErrMissingBatchID) {
		t.Errorf("RecordOutcomes error = %v, want ErrMissingBatchID", err)
	}
	if err := ledger.RecordSummary(t.Context(), SummaryRecord{}); !errors.Is(err, ErrMissingBatchID) {
		t.Errorf("RecordSummary error = %v, want ErrMissingBatchID", err)
	}
	if err := ledger.RecordOutcomes(t.Context(), nil); err != nil {
		t.Errorf("empty RecordOutcomes error = %v, want nil", err)
	}
}

func TestMatchesPartitionValue(t *testing.T) {
	p := "reprox/day=2026-03-02/batch_id=b-10/record_kind=summary/part-0.jsonl"
	if !matchesPartitionValue(p, "batch_id", "b-10") {
		t.Error("exact segment should match")
	}
	if matchesPartitionValue(p, "batch_id", "b-1") {
		t.Error("prefix of segment must not match")
	}
}
