package cmd

import (
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/reprox/adapter"
	"github.com/justapithecus/reprox/batch"
	"github.com/justapithecus/reprox/cli/render"
	"github.com/justapithecus/reprox/lode"
	"github.com/justapithecus/reprox/log"
)

// PromoteCommand returns the promote command for a single run directory.
//
// Exit codes:
//   - 0: promoted
//   - 1: validation failed
//   - 2: destination already exists
//   - 3: any other error
func PromoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "promote",
		Usage:     "Validate one run directory and move it into production",
		ArgsUsage: "<run-dir>",
		Flags: joinFlags(
			[]cli.Flag{configFlag(), logLevelFlag()},
			validationFlags(),
			promotionFlags(),
			ledgerFlags(),
			ReadOnlyFlags(),
		),
		Action: promoteAction,
	}
}

func promoteAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one run directory is required", exitOther)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for promote command", exitOther)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitOther)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	depth, err := resolveDepth(c, cfg)
	if err != nil {
		return err
	}
	batchID := uuid.NewString()
	logger, err := newLogger(c, cfg, log.BatchContext{BatchID: batchID, Depth: string(depth)})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	v, err := buildValidator(c, cfg, depth, logger)
	if err != nil {
		return err
	}
	p, _, err := buildPromoter(c, cfg, v, logger)
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

	ctx, cancel := signalContext(c)
	defer cancel()

	path := c.Args().First()
	finding, moveErr := p.MoveFolder(ctx, path)
	outcome := batch.Classify(path, p.DestinationFor(path), finding, moveErr)
	now := time.Now()

	if outcome.Status == batch.StatusPromoted && pub != nil {
		event := adapter.NewRunPromotedEvent(batchID, path, outcome.Destination, depth, now)
		if err := pub.Publish(ctx, event); err != nil {
			logger.Warn("failed to publish promotion event", map[string]any{"error": err.Error()})
		}
	}
	if ledger != nil {
		record := lode.OutcomeRecord{
			BatchID:     batchID,
			Path:        outcome.Path,
			Destination: outcome.Destination,
			Status:      string(outcome.Status),
			Kind:        string(outcome.Kind),
			Message:     outcome.Message,
			RecordedAt:  now,
		}
		if err := ledger.RecordOutcomes(ctx, []lode.OutcomeRecord{record}); err != nil {
			logger.Error("failed to write ledger", map[string]any{"error": err.Error()})
		}
	}

	if err := r.Render(outcome); err != nil {
		return err
	}
	return cli.Exit("", statusExitCode(outcome.Status))
}

func statusExitCode(s batch.Status) int {
	switch s {
	case batch.StatusPromoted:
		return exitSuccess
	case batch.StatusInvalid:
		return exitInvalid
	case batch.StatusAlreadyExists:
		return exitAlreadyExists
	default:
		return exitOther
	}
}
