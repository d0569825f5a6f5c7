package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memsearch/internal/config"
	"github.com/cadre-oss/memsearch/internal/event"
	"github.com/cadre-oss/memsearch/internal/search"
	"github.com/cadre-oss/memsearch/internal/telemetry"
)

func runSearch(cmd *cobra.Command, opts *rootOptions) error {
	query := queryFromFlags(opts)
	if err := search.ValidateQuery(query); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	bus := newBus(cmd, cfg.Hooks, logger)
	engine, err := newEngine(cfg, logger, bus)
	if err != nil {
		return err
	}

	query.Scope = search.Scope{
		Root:           cfg.MemoryPath,
		Domain:         opts.domain,
		IncludeArchive: cfg.IncludeArchive,
	}
	logger.Debug("Searching memory",
		"memory_path", cfg.MemoryPath,
		"domain", opts.domain,
		"finder", cfg.Search.Finder,
	)

	results, err := engine.Search(cmd.Context(), query)
	bus.Wait()
	if err != nil {
		return err
	}

	return renderResults(cmd.OutOrStdout(), cfg.Format, results)
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*telemetry.Logger, error) {
	logger := telemetry.NewLoggerWithOptions(telemetry.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if cfg.Logging.File != "" {
		if err := logger.WithFile(config.ExpandHome(cfg.Logging.File)); err != nil {
			return nil, err
		}
	}
	return logger, nil
}

func newEngine(cfg *config.Config, logger *telemetry.Logger, bus *event.Bus) (*search.Engine, error) {
	timeout, err := cfg.Search.ParsedTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid finder_timeout: %w", err)
	}

	var finder search.Finder
	switch cfg.Search.Finder {
	case config.FinderGrep:
		finder = search.NewGrepFinder(cfg.Search.Include)
	default:
		finder = search.NewWalkFinder(cfg.Search.Include)
	}

	return search.NewEngine(search.Options{
		Finder:        finder,
		FinderTimeout: timeout,
		Logger:        logger,
		Bus:           bus,
	}), nil
}

// newBus builds the event bus from the hooks config. It returns nil when
// hooks are disabled.
func newBus(cmd *cobra.Command, cfg config.HooksConfig, logger *telemetry.Logger) *event.Bus {
	if !cfg.Enabled || len(cfg.Hooks) == 0 {
		return nil
	}

	bus := event.NewBus(logger)
	for _, hc := range cfg.Hooks {
		events := make([]event.EventType, 0, len(hc.Events))
		for _, e := range hc.Events {
			events = append(events, event.EventType(e))
		}

		switch hc.Type {
		case "shell":
			h := event.NewShellHook(hc.Name, hc.Command, events, hc.Blocking)
			h.Stdout = cmd.ErrOrStderr()
			bus.Register(h)
		case "webhook":
			bus.Register(event.NewWebhookHook(hc.Name, hc.URL, events, hc.Blocking))
		case "log":
			bus.Register(event.NewLogHook(hc.Name, events, logger, hc.Level))
		}
	}
	return bus
}
