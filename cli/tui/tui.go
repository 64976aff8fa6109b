package tui

import (
	"fmt"
	"slices"
)

// View types with a TUI.
const (
	ViewBatchReport   = "batch_report"
	ViewLedgerSummary = "ledger_summary"
)

// Run starts the summary TUI for viewType.
// Returns an error if the view type doesn't support TUI.
func Run(viewType string, data any) error {
	if !IsTUISupported(viewType) {
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	return RunSummaryTUI(viewType, data)
}

// IsTUISupported returns true if the view type supports TUI mode.
// Only batch reports and ledger summaries have one.
func IsTUISupported(viewType string) bool {
	return slices.Contains(SupportedTUIViews(), viewType)
}

// SupportedTUIViews returns a list of view types that support TUI.
func SupportedTUIViews() []string {
	return []string{ViewBatchReport, ViewLedgerSummary}
}
