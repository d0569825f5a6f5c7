package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	memerrors "github.com/cadre-oss/memsearch/internal/errors"
	"github.com/cadre-oss/memsearch/internal/event"
)

// Validate checks the configuration for values the CLI cannot act on.
func Validate(cfg *Config) error {
	var errors []string

	validFormats := map[string]bool{
		FormatText: true,
		FormatJSON: true,
		FormatYAML: true,
	}
	if !validFormats[cfg.Format] {
		errors = append(errors, fmt.Sprintf("invalid format: %s", cfg.Format))
	}

	errors = append(errors, validateSearch(&cfg.Search)...)
	errors = append(errors, validateLogging(&cfg.Logging)...)
	if cfg.Hooks.Enabled {
		errors = append(errors, validateHooks(cfg.Hooks.Hooks)...)
	}

	if len(errors) > 0 {
		return memerrors.New(memerrors.CodeConfigInvalid,
			fmt.Sprintf("config validation failed: %s", strings.Join(errors, "; "))).
			WithSuggestion("Check memsearch.yaml or run 'memsearch config show'")
	}
	return nil
}

func validateSearch(cfg *SearchConfig) []string {
	var errors []string

	switch cfg.Finder {
	case FinderNative, FinderGrep:
	default:
		errors = append(errors, fmt.Sprintf("invalid finder: %s", cfg.Finder))
	}

	if d, err := cfg.ParsedTimeout(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid finder_timeout %q: %v", cfg.FinderTimeout, err))
	} else if d <= 0 {
		errors = append(errors, "finder_timeout must be positive")
	}

	if !doublestar.ValidatePattern(cfg.Include) {
		errors = append(errors, fmt.Sprintf("invalid include pattern: %s", cfg.Include))
	} else if name, ok := strings.CutPrefix(cfg.Include, "**/"); !ok || strings.Contains(name, "/") {
		errors = append(errors, fmt.Sprintf("include pattern must have the form **/<file glob>: %s", cfg.Include))
	}

	return errors
}

func validateLogging(cfg *LoggingConfig) []string {
	var errors []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Level)] {
		errors = append(errors, fmt.Sprintf("invalid log level: %s", cfg.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(cfg.Format)] {
		errors = append(errors, fmt.Sprintf("invalid log format: %s", cfg.Format))
	}

	return errors
}

func validateHooks(hooks []HookConfig) []string {
	var errors []string
	names := make(map[string]bool)

	for i, h := range hooks {
		label := h.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			errors = append(errors, fmt.Sprintf("hook %s: name is required", label))
		} else if names[h.Name] {
			errors = append(errors, fmt.Sprintf("duplicate hook name: %s", h.Name))
		}
		names[h.Name] = true

		switch h.Type {
		case "shell":
			if h.Command == "" {
				errors = append(errors, fmt.Sprintf("hook %s: shell hooks require a command", label))
			}
		case "webhook":
			if h.URL == "" {
				errors = append(errors, fmt.Sprintf("hook %s: webhook hooks require a url", label))
			}
		case "log":
		default:
			errors = append(errors, fmt.Sprintf("hook %s: invalid type: %s", label, h.Type))
		}

		for _, ev := range h.Events {
			if !event.IsKnown(event.EventType(ev)) {
				errors = append(errors, fmt.Sprintf("hook %s: unknown event: %s", label, ev))
			}
		}
	}

	return errors
}
