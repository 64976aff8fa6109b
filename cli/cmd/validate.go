package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/reprox/cli/render"
	"github.com/justapithecus/reprox/log"
	"github.com/justapithecus/reprox/types"
)

// ValidationResult is one directory's verdict from the validate command.
type ValidationResult struct {
	Path   string     `json:"path"`
	Valid  bool       `json:"valid"`
	Kind   types.Kind `json:"kind,omitempty"`
	Detail string     `json:"detail,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// ValidateCommand returns the validate command.
// It classifies run directories without moving or modifying them.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check run directories without promoting them",
		ArgsUsage: "<run-dir> [run-dir...]",
		Flags: joinFlags(
			[]cli.Flag{configFlag(), logLevelFlag()},
			validationFlags(),
			ReadOnlyFlags(),
		),
		Action: validateAction,
	}
}

func validateAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("at least one run directory is required", exitOther)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for validate command", exitOther)
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
	logger, err := newLogger(c, cfg, log.BatchContext{Depth: string(depth)})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	v, err := buildValidator(c, cfg, depth, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	results := make([]ValidationResult, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		res := ValidationResult{Path: path}
		finding, err := v.FindError(ctx, path)
		switch {
		case err != nil:
			res.Error = err.Error()
		case finding != nil:
			res.Kind, res.Detail = finding.Kind, finding.Detail
		default:
			res.Valid = true
		}
		results = append(results, res)
	}

	if err := r.Render(results); err != nil {
		return err
	}
	return cli.Exit("", validationExitCode(results))
}

// validationExitCode is 3 if any directory errored, else 1 if any is
// invalid, else 0.
func validationExitCode(results []ValidationResult) int {
	code := exitSuccess
	for _, res := range results {
		switch {
		case res.Error != "":
			return exitOther
		case !res.Valid:
			code = exitInvalid
		}
	}
	return code
}
