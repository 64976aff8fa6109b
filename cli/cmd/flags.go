// Package cmd provides CLI commands for the reprox binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for commands that render results.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for batch summaries (promote-all, history).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (promote-all, history only)",
	}
)

// ReadOnlyFlags returns the shared output flags.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// configFlag points at reprox.yaml.
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to reprox.yaml (flags override its values)",
		EnvVars: []string{"REPROX_CONFIG"},
	}
}

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
		Value: "info",
	}
}

// validationFlags configure the validator.
func validationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "depth",
			Usage: "Validation depth: shallow or deep",
			Value: "shallow",
		},
		&cli.StringFlag{
			Name:  "lineage-file",
			Usage: "Lineage registry YAML (required for deep validation unless configured)",
		},
	}
}

// promotionFlags configure the promoter and its side effects.
func promotionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "destination-root",
			Usage: "Production directory receiving promoted runs",
		},
		&cli.StringFlag{
			Name:  "group",
			Usage: "Group name or gid to assign (empty keeps the current group)",
		},
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Octal permissions for the promoted directory (default 775)",
		},
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Notification adapter: webhook or redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Webhook URL or redis:// URL",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis channel (default reprox:run_promoted)",
		},
		&cli.DurationFlag{
			Name:  "adapter-timeout",
			Usage: "Per-attempt publish timeout",
		},
		&cli.IntFlag{
			Name:  "adapter-retries",
			Usage: "Publish retry attempts after the first",
			Value: 3,
		},
	}
}

// ledgerFlags select the ledger store.
func ledgerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ledger-backend",
			Usage: "Ledger backend: fs or s3",
		},
		&cli.StringFlag{
			Name:  "ledger-path",
			Usage: "Ledger location (fs: directory, s3: bucket/prefix); empty disables the ledger",
		},
		&cli.StringFlag{
			Name:  "ledger-dataset",
			Usage: "Ledger dataset ID (default reprox)",
		},
		&cli.StringFlag{
			Name:  "ledger-s3-region",
			Usage: "AWS region for the S3 ledger (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "ledger-s3-endpoint",
			Usage: "Custom S3 endpoint for S3-compatible providers",
		},
		&cli.BoolFlag{
			Name:  "ledger-s3-path-style",
			Usage: "Force path-style S3 addressing",
		},
	}
}

func joinFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
