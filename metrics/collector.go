// Package metrics counts what happens during one promotion batch.
//
// The Collector is a leaf package with no internal dependencies; invalid
// directories are keyed by the string form of their validation kind.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of the batch counters.
type Snapshot struct {
	// Directories
	Scanned       int64            `json:"scanned_total"`
	Promoted      int64            `json:"promoted_total"`
	Invalid       int64            `json:"invalid_total"`
	InvalidByKind map[string]int64 `json:"invalid_by_kind"`
	AlreadyExists int64            `json:"already_exists_total"`
	Other         int64            `json:"other_total"`

	// Downstream notification
	PublishSuccess int64 `json:"publish_success_total"`
	PublishFailure int64 `json:"publish_failure_total"`

	// Ledger (per write call, not per record)
	LedgerWriteSuccess int64 `json:"ledger_write_success_total"`
	LedgerWriteFailure int64 `json:"ledger_write_failure_total"`

	// Dimensions
	BatchID string `json:"batch_id"`
	Depth   string `json:"depth"`
}

// Failed returns the number of directories that were not promoted.
func (s Snapshot) Failed() int64 {
	return s.Invalid + s.AlreadyExists + s.Other
}

// Collector accumulates batch counters.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	scanned       int64
	promoted      int64
	invalid       int64
	invalidByKind map[string]int64
	alreadyExists int64
	other         int64

	publishSuccess int64
	publishFailure int64

	ledgerWriteSuccess int64
	ledgerWriteFailure int64

	batchID string
	depth   string
}

// NewCollector creates a Collector labeled with the batch and depth.
func NewCollector(batchID, depth string) *Collector {
	return &Collector{
		invalidByKind: make(map[string]int64),
		batchID:       batchID,
		depth:         depth,
	}
}

// add increments one counter. Callers check for a nil receiver first.
func (c *Collector) add(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// IncScanned records a directory picked up by the batch.
func (c *Collector) IncScanned() {
	if c == nil {
		return
	}
	c.add(&c.scanned)
}

// IncPromoted records a directory moved to production.
func (c *Collector) IncPromoted() {
	if c == nil {
		return
	}
	c.add(&c.promoted)
}

// IncInvalid records a validation failure of the given kind.
func (c *Collector) IncInvalid(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.invalid++
	c.invalidByKind[kind]++
	c.mu.Unlock()
}

// IncAlreadyExists records a valid directory whose destination was taken.
func (c *Collector) IncAlreadyExists() {
	if c == nil {
		return
	}
	c.add(&c.alreadyExists)
}

// IncOther records an unexpected failure.
func (c *Collector) IncOther() {
	if c == nil {
		return
	}
	c.add(&c.other)
}

// IncPublishSuccess records a delivered promotion event.
func (c *Collector) IncPublishSuccess() {
	if c == nil {
		return
	}
	c.add(&c.publishSuccess)
}

// IncPublishFailure records a promotion event that could not be delivered.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.add(&c.publishFailure)
}

// IncLedgerWriteSuccess records a successful ledger write call.
func (c *Collector) IncLedgerWriteSuccess() {
	if c == nil {
		return
	}
	c.add(&c.ledgerWriteSuccess)
}

// IncLedgerWriteFailure records a failed ledger write call.
func (c *Collector) IncLedgerWriteFailure() {
	if c == nil {
		return
	}
	c.add(&c.ledgerWriteFailure)
}

// Snapshot returns a copy of the current counters.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.invalidByKind))
	for k, v := range c.invalidByKind {
		byKind[k] = v
	}

	return Snapshot{
		Scanned:       c.scanned,
		Promoted:      c.promoted,
		Invalid:       c.invalid,
		InvalidByKind: byKind,
		AlreadyExists: c.alreadyExists,
		Other:         c.other,

		PublishSuccess: c.publishSuccess,
		PublishFailure: c.publishFailure,

		LedgerWriteSuccess: c.ledgerWriteSuccess,
		LedgerWriteFailure: c.ledgerWriteFailure,

		BatchID: c.batchID,
		Depth:   c.depth,
	}
}
