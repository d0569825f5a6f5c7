package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cadre-oss/memsearch/internal/search"
)

// FileName is the configuration file looked up by Load.
const FileName = "memsearch.yaml"

var (
	envPattern = regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	varPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
)

// Load loads the configuration from dir/memsearch.yaml
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile loads the configuration from an explicit path. A missing file
// yields the default configuration.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Interpolate environment variables
	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultMemoryPath returns ~/.canvas/memory, or a relative .canvas/memory
// when the home directory cannot be determined.
func DefaultMemoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".canvas", "memory")
	}
	return filepath.Join(home, ".canvas", "memory")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values
func interpolateEnv(content string) string {
	content = envPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // keep original if not found
	})

	content = varPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := varPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return content
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.MemoryPath == "" {
		cfg.MemoryPath = DefaultMemoryPath()
	}
	cfg.MemoryPath = ExpandHome(cfg.MemoryPath)
	if cfg.Format == "" {
		cfg.Format = FormatText
	}
	if cfg.Search.Finder == "" {
		cfg.Search.Finder = FinderNative
	}
	if cfg.Search.FinderTimeout == "" {
		cfg.Search.FinderTimeout = search.DefaultFinderTimeout.String()
	}
	if cfg.Search.Include == "" {
		cfg.Search.Include = search.DefaultInclude
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
