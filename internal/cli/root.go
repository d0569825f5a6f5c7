package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cadre-oss/memsearch/internal/config"
	memerrors "github.com/cadre-oss/memsearch/internal/errors"
	"github.com/cadre-oss/memsearch/internal/search"
)

// EnvPrefix prefixes environment overrides, e.g. MEMSEARCH_MEMORY_PATH.
const EnvPrefix = "MEMSEARCH"

type rootOptions struct {
	cfgFile string
	verbose bool

	// search flags
	keywords       []string
	tags           []string
	domain         string
	memoryPath     string
	includeArchive bool
	format         string
	finder         string
}

// flagBindings maps config keys to the flags that override them.
var flagBindings = map[string]string{
	"memory_path":     "memory-path",
	"include_archive": "include-archive",
	"format":          "format",
	"search.finder":   "finder",
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "memsearch",
		Short: "Search memory files by header keywords and tags",
		Long: `memsearch - header-aware search over a markdown memory corpus.

Files under <memory-path>/<domain>/information (and archive, on request)
are pre-filtered by a fast substring scan, then parsed; a file matches only
when a term occurs in its keywords or tags header field.

Examples:
  memsearch --keyword assigned --domain projects/
  memsearch -k "assigned,tasks" -t workflow --format json
  memsearch -t decision --include-archive`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file (default is ./memsearch.yaml)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	pf.StringVarP(&opts.memoryPath, "memory-path", "p", "", "base memory path (default ~/.canvas/memory)")
	pf.BoolVar(&opts.includeArchive, "include-archive", false, "search archive/ in addition to information/")
	pf.StringVarP(&opts.format, "format", "f", config.FormatText, "output format: text, json, yaml")
	pf.StringVar(&opts.finder, "finder", config.FinderNative, "pre-filter implementation: native, grep")

	f := cmd.Flags()
	f.StringArrayVarP(&opts.keywords, "keyword", "k", nil, "keyword(s) to search (comma-separated for OR logic)")
	f.StringArrayVarP(&opts.tags, "tag", "t", nil, "tag(s) to search (comma-separated for OR logic)")
	f.StringVarP(&opts.domain, "domain", "d", "", `domain to scope search (e.g., "projects/memory-system/")`)

	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newParseCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newDoctorCmd(opts))
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newCompletionCmd(cmd))

	return cmd
}

// Execute runs the CLI against os.Args and reports any error on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		printError(stderr, err)
	}
	return err
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if s := memerrors.Suggestion(err); s != "" {
		fmt.Fprintf(w, "  → %s\n", s)
	}
}

// loadConfig reads the config file and layers MEMSEARCH_* environment
// variables and command-line flags over it, in that order.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	path := opts.cfgFile
	if path == "" {
		path = config.FileName
	} else if _, err := os.Stat(path); err != nil {
		return nil, memerrors.Wrap(memerrors.CodeConfigInvalid, "config file not readable", err).
			WithSuggestion("Check the --config path")
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, memerrors.Wrap(memerrors.CodeConfigInvalid, "failed to load config", err).
			WithSuggestion("Fix " + path + " or remove it to use defaults")
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, name := range flagBindings {
		if fl := cmd.Flags().Lookup(name); fl != nil {
			if err := v.BindPFlag(key, fl); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}
	applyOverrides(v, cfg)

	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(v *viper.Viper, cfg *config.Config) {
	if v.IsSet("memory_path") {
		cfg.MemoryPath = config.ExpandHome(v.GetString("memory_path"))
	}
	if v.IsSet("include_archive") {
		cfg.IncludeArchive = v.GetBool("include_archive")
	}
	if v.IsSet("format") {
		cfg.Format = strings.ToLower(v.GetString("format"))
	}
	if v.IsSet("search.finder") {
		cfg.Search.Finder = strings.ToLower(v.GetString("search.finder"))
	}
	if v.IsSet("search.finder_timeout") {
		cfg.Search.FinderTimeout = v.GetString("search.finder_timeout")
	}
	if v.IsSet("search.include") {
		cfg.Search.Include = v.GetString("search.include")
	}
	if v.IsSet("logging.level") {
		cfg.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.format") {
		cfg.Logging.Format = v.GetString("logging.format")
	}
}

// queryFromFlags splits the repeated, comma separated term flags.
func queryFromFlags(opts *rootOptions) search.Query {
	var q search.Query
	for _, k := range opts.keywords {
		q.Keywords = append(q.Keywords, search.SplitTerms(k)...)
	}
	for _, t := range opts.tags {
		q.Tags = append(q.Tags, search.SplitTerms(t)...)
	}
	return q
}
