package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/reprox/adapter"
	redisadapter "github.com/justapithecus/reprox/adapter/redis"
	"github.com/justapithecus/reprox/adapter/webhook"
	"github.com/justapithecus/reprox/cli/config"
	"github.com/justapithecus/reprox/lineage"
	"github.com/justapithecus/reprox/lode"
	"github.com/justapithecus/reprox/log"
	"github.com/justapithecus/reprox/promote"
	"github.com/justapithecus/reprox/types"
	"github.com/justapithecus/reprox/validate"
)

// Exit codes for validate and promote.
const (
	exitSuccess       = 0
	exitInvalid       = 1
	exitAlreadyExists = 2
	exitOther         = 3
)

// Adapter types.
const (
	adapterWebhook = "webhook"
	adapterRedis   = "redis"
)

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
}

func newLogger(c *cli.Context, cfg *config.Config, bc log.BatchContext) (*log.Logger, error) {
	level := resolveString(c, "log-level", configVal(cfg, func(c *config.Config) string { return c.LogLevel }))
	logger, err := log.NewLoggerWithLevel(bc, level)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid --log-level %q: %v", level, err), exitOther)
	}
	return logger, nil
}

func resolveDepth(c *cli.Context, cfg *config.Config) (types.Depth, error) {
	depth, err := types.ParseDepth(resolveString(c, "depth", configVal(cfg, func(c *config.Config) string { return c.Depth })))
	if err != nil {
		return "", cli.Exit(fmt.Sprintf("invalid --depth: %v", err), exitOther)
	}
	return depth, nil
}

// buildValidator wires the lineage registry into a validator at depth.
// Deep validation without a registry is a usage error.
func buildValidator(c *cli.Context, cfg *config.Config, depth types.Depth, logger *log.Logger) (*validate.Validator, error) {
	lc := configVal(cfg, func(c *config.Config) config.LineageConfig { return c.Lineage })
	if c.IsSet("lineage-file") {
		lc = config.LineageConfig{File: c.String("lineage-file")}
	}
	registry, err := lc.Registry()
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid lineage registry: %v", err), exitOther)
	}

	vcfg := validate.Config{Depth: depth, Logger: logger}
	if registry != nil {
		ref, err := lineage.NewContext(registry, nil)
		if err != nil {
			return nil, err
		}
		vcfg.Reference = ref
	}
	if depth == types.DepthDeep && vcfg.Reference == nil {
		return nil, cli.Exit("deep validation requires --lineage-file or a lineage section in the config", exitOther)
	}

	v, err := validate.New(vcfg)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitOther)
	}
	return v, nil
}

func buildPromoter(c *cli.Context, cfg *config.Config, v promote.Finder, logger *log.Logger) (*promote.Promoter, string, error) {
	dest := resolveString(c, "destination-root", configVal(cfg, func(c *config.Config) string { return c.DestinationRoot }))
	if dest == "" {
		return nil, "", cli.Exit("--destination-root is required (flag or config destination_root)", exitOther)
	}
	mode, err := config.ParseMode(resolveString(c, "mode", configVal(cfg, func(c *config.Config) string { return c.Mode })))
	if err != nil {
		return nil, "", cli.Exit(err.Error(), exitOther)
	}

	p, err := promote.New(promote.Config{
		DestinationRoot: dest,
		Group:           resolveString(c, "group", configVal(cfg, func(c *config.Config) string { return c.Group })),
		Mode:            mode,
		Validator:       v,
		Logger:          logger,
	})
	if err != nil {
		return nil, "", cli.Exit(err.Error(), exitOther)
	}
	return p, dest, nil
}

// buildAdapter returns nil when no adapter is configured.
func buildAdapter(c *cli.Context, cfg *config.Config) (adapter.Adapter, error) {
	ac := configVal(cfg, func(c *config.Config) config.AdapterConfig { return c.Adapter })

	kind := resolveString(c, "adapter", ac.Type)
	url := resolveString(c, "adapter-url", ac.URL)
	timeout := resolveDuration(c, "adapter-timeout", ac.Timeout.Duration)
	retries := c.Int("adapter-retries")
	if !c.IsSet("adapter-retries") && ac.Retries != nil {
		retries = *ac.Retries
	}

	switch kind {
	case "":
		if url != "" {
			return nil, cli.Exit("--adapter-url requires --adapter (webhook or redis)", exitOther)
		}
		return nil, nil
	case adapterWebhook:
		a, err := webhook.New(webhook.Config{
			URL:     url,
			Headers: ac.Headers,
			Timeout: timeout,
			Retries: retries,
			Backoff: ac.Backoff.Duration,
		})
		if err != nil {
			return nil, cli.Exit(err.Error(), exitOther)
		}
		return a, nil
	case adapterRedis:
		a, err := redisadapter.New(redisadapter.Config{
			URL:     url,
			Channel: resolveString(c, "adapter-channel", ac.Channel),
			Timeout: timeout,
			Retries: retries,
			Backoff: ac.Backoff.Duration,
		})
		if err != nil {
			return nil, cli.Exit(err.Error(), exitOther)
		}
		return a, nil
	default:
		return nil, cli.Exit(fmt.Sprintf("unknown --adapter %q (must be webhook or redis)", kind), exitOther)
	}
}

// resolveLedger merges ledger flags over the config section.
func resolveLedger(c *cli.Context, cfg *config.Config) config.LedgerConfig {
	lc := configVal(cfg, func(c *config.Config) config.LedgerConfig { return c.Ledger })
	return config.LedgerConfig{
		Dataset:     resolveString(c, "ledger-dataset", lc.Dataset),
		Backend:     resolveString(c, "ledger-backend", lc.Backend),
		Path:        resolveString(c, "ledger-path", lc.Path),
		Region:      resolveString(c, "ledger-s3-region", lc.Region),
		Endpoint:    resolveString(c, "ledger-s3-endpoint", lc.Endpoint),
		S3PathStyle: resolveBool(c, "ledger-s3-path-style", lc.S3PathStyle),
	}
}

func validateLedgerConfig(lc config.LedgerConfig) error {
	switch lc.Backend {
	case "", lode.BackendFS, lode.BackendS3:
	default:
		return fmt.Errorf("invalid --ledger-backend %q (must be fs or s3)", lc.Backend)
	}
	if lc.Backend != "" && lc.Path == "" {
		return errors.New("--ledger-path is required when --ledger-backend is set")
	}
	return nil
}

// buildLedger returns nil when no ledger path is configured.
func buildLedger(c *cli.Context, cfg *config.Config) (*lode.Ledger, error) {
	lc := resolveLedger(c, cfg)
	if err := validateLedgerConfig(lc); err != nil {
		return nil, cli.Exit(err.Error(), exitOther)
	}
	if !lc.Enabled() {
		return nil, nil
	}
	factory, err := lode.NewStoreFactory(lc.StoreConfig())
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("ledger: %v", err), exitOther)
	}
	ledger, err := lode.NewLedger(lc.Dataset, factory)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("ledger: %v", err), exitOther)
	}
	return ledger, nil
}

func closeAdapter(a adapter.Adapter, logger *log.Logger) {
	if a == nil {
		return
	}
	if err := a.Close(); err != nil {
		logger.Warn("failed to close adapter", map[string]any{"error": err.Error()})
	}
}
