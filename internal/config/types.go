package config

import (
	"time"

	"github.com/cadre-oss/memsearch/internal/search"
)

// Config represents the memsearch configuration (memsearch.yaml)
type Config struct {
	MemoryPath     string        `yaml:"memory_path" json:"memory_path"`
	IncludeArchive bool          `yaml:"include_archive" json:"include_archive"`
	Format         string        `yaml:"format" json:"format"` // text, json, yaml
	Search         SearchConfig  `yaml:"search" json:"search"`
	Logging        LoggingConfig `yaml:"logging" json:"logging"`
	Hooks          HooksConfig   `yaml:"hooks" json:"hooks"`
}

// SearchConfig configures the search pipeline
type SearchConfig struct {
	Finder        string `yaml:"finder" json:"finder"`                 // native, grep
	FinderTimeout string `yaml:"finder_timeout" json:"finder_timeout"` // e.g., "10s"
	// Include selects files at any depth below a search root. It must be
	// "**/" followed by a file name glob, since the grep finder can only
	// match base names.
	Include string `yaml:"include" json:"include"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// HooksConfig configures search lifecycle hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // shell, webhook, log
	Events   []string `yaml:"events" json:"events"` // event types to match
	Blocking bool     `yaml:"blocking" json:"blocking"`
	Command  string   `yaml:"command,omitempty" json:"command,omitempty"` // for shell hooks
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`         // for webhook hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"`     // for log hooks (debug, info, warn)
}

// Finder names
const (
	FinderNative = "native"
	FinderGrep   = "grep"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ParsedTimeout converts the finder timeout string to time.Duration
func (s *SearchConfig) ParsedTimeout() (time.Duration, error) {
	if s.FinderTimeout == "" {
		return search.DefaultFinderTimeout, nil
	}
	return time.ParseDuration(s.FinderTimeout)
}
