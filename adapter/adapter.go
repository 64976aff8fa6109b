// Package adapter defines how promoted runs are announced downstream.
//
// Adapters publish one event per promoted directory. The batch runner owns
// adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/justapithecus/reprox/types"
)

// EventTypeRunPromoted is the event_type of RunPromotedEvent.
const EventTypeRunPromoted = "run_promoted"

// DefaultBackoff is the wait before the first retry; it doubles per attempt.
const DefaultBackoff = 500 * time.Millisecond

// RunPromotedEvent is the payload published when a run directory reaches production.
type RunPromotedEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "run_promoted"
	BatchID         string `json:"batch_id"`
	Run             string `json:"run"`
	DataType        string `json:"data_type"`
	LineageHash     string `json:"lineage_hash"`
	Source          string `json:"source"`
	Destination     string `json:"destination"`
	Depth           string `json:"depth"`
	Timestamp       string `json:"timestamp"` // RFC 3339
}

// NewRunPromotedEvent builds the event for a promoted directory.
// A directory name that is not a run key leaves the key fields empty.
func NewRunPromotedEvent(batchID, source, destination string, depth types.Depth, at time.Time) *RunPromotedEvent {
	ev := &RunPromotedEvent{
		ContractVersion: types.ContractVersion,
		EventType:       EventTypeRunPromoted,
		BatchID:         batchID,
		Source:          source,
		Destination:     destination,
		Depth:           string(depth),
		Timestamp:       at.UTC().Format(time.RFC3339),
	}
	if key, err := types.ParseRunKey(filepath.Base(filepath.Clean(destination))); err == nil {
		ev.Run, ev.DataType, ev.LineageHash = key.Run, key.DataType, key.LineageHash
	}
	return ev
}

// Publisher announces promoted runs to a downstream system.
type Publisher interface {
	// Publish sends one event. Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RunPromotedEvent) error
}

// Adapter is a Publisher with resources to release.
type Adapter interface {
	Publisher
	Close() error
}

// Permanent marks an error that retrying cannot fix.
type Permanent struct {
	Err error
}

func (e *Permanent) Error() string { return "non-retriable: " + e.Err.Error() }
func (e *Permanent) Unwrap() error { return e.Err }

// Retry calls fn up to 1+retries times with exponential backoff starting at
// base. A *Permanent error stops immediately.
func Retry(ctx context.Context, retries int, base time.Duration, fn func(context.Context) error) error {
	if base <= 0 {
		base = DefaultBackoff
	}

	var lastErr error
	attempts := 1 + retries
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context canceled: %w", err)
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
			case <-time.After(base << uint(i-1)):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		var perm *Permanent
		if errors.As(lastErr, &perm) {
			return lastErr
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
