package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/reprox/batch"
	"github.com/justapithecus/reprox/cli/config"
	"github.com/justapithecus/reprox/cli/render"
	"github.com/justapithecus/reprox/cli/tui"
	"github.com/justapithecus/reprox/log"
	"github.com/justapithecus/reprox/metrics"
)

// PromoteAllCommand returns the promote-all command.
// It exits 0 whenever the batch ran to completion; per-directory failures
// are in the report.
func PromoteAllCommand() *cli.Command {
	return &cli.Command{
		Name:  "promote-all",
		Usage: "Promote every run directory under a source root",
		Flags: joinFlags(
			[]cli.Flag{
				configFlag(),
				logLevelFlag(),
				&cli.StringFlag{
					Name:  "source-root",
					Usage: "Directory whose child directories are promoted",
				},
				&cli.StringFlag{
					Name:  "batch-id",
					Usage: "Batch identifier (default: random UUID)",
				},
				&cli.IntFlag{
					Name:  "small-bucket-limit",
					Usage: "Log every path of failure buckets up to this size",
					Value: batch.DefaultSmallBucketLimit,
				},
				&cli.StringFlag{
					Name:  "report",
					Usage: "Write the JSON batch report to this file (- for stderr)",
				},
			},
			validationFlags(),
			promotionFlags(),
			ledgerFlags(),
			ReadOnlyFlags(),
		),
		Action: promoteAllAction,
	}
}

func promoteAllAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitOther)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	source := resolveString(c, "source-root", configVal(cfg, func(c *config.Config) string { return c.SourceRoot }))
	if source == "" {
		return cli.Exit("--source-root is required (flag or config source_root)", exitOther)
	}
	depth, err := resolveDepth(c, cfg)
	if err != nil {
		return err
	}
	batchID := c.String("batch-id")
	if batchID == "" {
		batchID = uuid.NewString()
	}

	logger, err := newLogger(c, cfg, log.BatchContext{BatchID: batchID, Depth: string(depth), SourceRoot: source})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	v, err := buildValidator(c, cfg, depth, logger)
	if err != nil {
		return err
	}
	p, dest, err := buildPromoter(c, cfg, v, logger)
	if err != nil {
		return err
	}
	pub, err := buildAdapter(c, cfg)
	if err != nil {
		return err
	}
	defer closeAdapter(pub, logger)
	ledger, err := buildLedger(c, cfg)
	if err != nil {
		return err
	}

	rcfg := batch.Config{
		SourceRoot:       source,
		DestinationRoot:  dest,
		Promoter:         p,
		Logger:           logger,
		Collector:        metrics.NewCollector(batchID, string(depth)),
		Publisher:        pub,
		BatchID:          batchID,
		Depth:            depth,
		SmallBucketLimit: c.Int("small-bucket-limit"),
	}
	// A nil *lode.Ledger must stay a nil interface.
	if ledger != nil {
		rcfg.Ledger = ledger
	}
	runner, err := batch.New(rcfg)
	if err != nil {
		return cli.Exit(err.Error(), exitOther)
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	report, err := runner.MoveAll(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("batch failed: %v", err), exitOther)
	}

	if path := c.String("report"); path != "" {
		if err := batch.WriteReport(report, path); err != nil {
			logger.Error("failed to write report", map[string]any{"error": err.Error()})
		}
	}

	if c.Bool("tui") {
		if err := r.RenderTUI(tui.ViewBatchReport, report); err != nil {
			return err
		}
	} else if err := r.Render(report); err != nil {
		return err
	}

	if report.Canceled {
		return cli.Exit("batch canceled before all directories were processed", exitOther)
	}
	return nil
}
