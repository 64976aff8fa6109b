package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/reprox/cli/render"
	"github.com/justapithecus/reprox/cli/tui"
	"github.com/justapithecus/reprox/lode"
)

// HistoryCommand returns the history command.
// It reads batch summaries and outcomes back from the ledger.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show the latest batch summary (or its outcomes) from the ledger",
		Flags: joinFlags(
			[]cli.Flag{
				configFlag(),
				&cli.StringFlag{
					Name:  "batch-id",
					Usage: "Batch to show (default: most recent)",
				},
				&cli.BoolFlag{
					Name:  "outcomes",
					Usage: "List per-directory outcomes instead of the summary",
				},
			},
			ledgerFlags(),
			ReadOnlyFlags(),
		),
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitOther)
	}
	if c.Bool("tui") && c.Bool("outcomes") {
		return cli.Exit("--tui is not supported with --outcomes", exitOther)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	lc := resolveLedger(c, cfg)
	if err := validateLedgerConfig(lc); err != nil {
		return cli.Exit(err.Error(), exitOther)
	}
	if !lc.Enabled() {
		return cli.Exit("--ledger-path is required (flag or config ledger.path)", exitOther)
	}

	ds, err := lode.OpenLedgerDataset(lc.Dataset, lc.StoreConfig())
	if err != nil {
		return cli.Exit(fmt.Sprintf("ledger: %v", err), exitOther)
	}

	ctx := c.Context
	summary, err := lode.QueryLatestSummary(ctx, ds, c.String("batch-id"))
	if errors.Is(err, lode.ErrNoSummaryFound) {
		return cli.Exit(err.Error(), exitInvalid)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("ledger: %v", err), exitOther)
	}

	if c.Bool("outcomes") {
		outcomes, err := lode.QueryOutcomes(ctx, ds, summary.BatchID)
		if err != nil {
			return cli.Exit(fmt.Sprintf("ledger: %v", err), exitOther)
		}
		if outcomes == nil {
			outcomes = []lode.OutcomeRecord{}
		}
		return r.Render(outcomes)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewLedgerSummary, summary)
	}
	return r.Render(summary)
}
