package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/justapithecus/reprox/metrics"
)

// Bucket groups failed directories sharing a label.
type Bucket struct {
	Label string   `json:"label"`
	Count int      `json:"count"`
	Paths []string `json:"paths"`
}

// Report is the result of one batch, also written by --report.
type Report struct {
	BatchID         string `json:"batch_id"`
	SourceRoot      string `json:"source_root"`
	DestinationRoot string `json:"destination_root,omitempty"`
	Depth           string `json:"depth"`

	Total    int  `json:"total"`
	Promoted int  `json:"promoted"`
	Failed   int  `json:"failed"`
	Canceled bool `json:"canceled,omitempty"`

	// Buckets are ordered by first occurrence.
	Buckets  []Bucket  `json:"buckets"`
	Outcomes []Outcome `json:"outcomes"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`

	Metrics     metrics.Snapshot `json:"metrics"`
	LedgerError string           `json:"ledger_error,omitempty"`
}

// Bucket returns the bucket with label, or nil.
func (r *Report) Bucket(label string) *Bucket {
	for i := range r.Buckets {
		if r.Buckets[i].Label == label {
			return &r.Buckets[i]
		}
	}
	return nil
}

// PromotedOutcomes returns the outcomes of moved directories.
func (r *Report) PromotedOutcomes() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// tally fills the totals and buckets from Outcomes.
func (r *Report) tally() {
	r.Total = len(r.Outcomes)
	r.Promoted, r.Failed = 0, 0
	r.Buckets = make([]Bucket, 0)

	index := make(map[string]int)
	for _, o := range r.Outcomes {
		if !o.Failed() {
			r.Promoted++
			continue
		}
		r.Failed++
		label := o.Bucket()
		i, ok := index[label]
		if !ok {
			i = len(r.Buckets)
			index[label] = i
			r.Buckets = append(r.Buckets, Bucket{Label: label})
		}
		r.Buckets[i].Count++
		r.Buckets[i].Paths = append(r.Buckets[i].Paths, o.Path)
	}
}

// WriteReport writes the report as indented JSON to path.
// If path is "-", writes to stderr.
func WriteReport(report *Report, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}
	if path == "-" {
		if err := writeReportTo(report, os.Stderr); err != nil {
			return fmt.Errorf("failed to write report to stderr: %w", err)
		}
		return nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	if err := writeReportTo(report, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return f.Close()
}

func writeReportTo(report *Report, w io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
