package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/cadre-oss/memsearch/internal/config"
	"github.com/cadre-oss/memsearch/internal/search"
)

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the memory corpus and environment",
		Long:  "Validate configuration, the memory directory layout and the availability of the grep pre-filter.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, opts)
		},
	}
}

func runDoctor(cmd *cobra.Command, opts *rootOptions) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "memsearch doctor — checking your environment")
	fmt.Fprintln(w)
	allOK := true

	fmt.Fprintf(w, "  Go version:  %s ✓\n", runtime.Version())
	fmt.Fprintf(w, "  Platform:    %s/%s ✓\n", runtime.GOOS, runtime.GOARCH)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		fmt.Fprintf(w, "  Config:      INVALID ✗\n")
		fmt.Fprintf(w, "    → %v\n", err)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Some checks failed. See above for details.")
		return nil
	}
	fmt.Fprintf(w, "  Config:      %s (finder %s) ✓\n", configPath(opts), cfg.Search.Finder)

	if info, err := os.Stat(cfg.MemoryPath); err == nil && info.IsDir() {
		fmt.Fprintf(w, "  Memory path: %s ✓\n", cfg.MemoryPath)
	} else {
		fmt.Fprintf(w, "  Memory path: %s NOT FOUND ✗\n", cfg.MemoryPath)
		fmt.Fprintln(w, "    → Run 'memsearch init' or pass --memory-path")
		allOK = false
	}

	for _, sub := range []string{search.InformationDir, search.ArchiveDir} {
		dir := filepath.Join(cfg.MemoryPath, sub)
		n, err := countFiles(dir, cfg.Search.Include)
		switch {
		case err == nil:
			fmt.Fprintf(w, "  %-12s %d files ✓\n", sub+":", n)
		case sub == search.ArchiveDir:
			fmt.Fprintf(w, "  %-12s not present\n", sub+":")
		default:
			fmt.Fprintf(w, "  %-12s NOT FOUND ✗\n", sub+":")
			allOK = false
		}
	}

	if p, err := exec.LookPath("grep"); err == nil {
		fmt.Fprintf(w, "  grep:        %s ✓\n", p)
	} else if cfg.Search.Finder == config.FinderGrep {
		fmt.Fprintln(w, "  grep:        NOT FOUND ✗")
		fmt.Fprintln(w, "    → Install grep or set search.finder: native")
		allOK = false
	} else {
		fmt.Fprintln(w, "  grep:        not found (native finder in use)")
	}

	fmt.Fprintln(w)
	if allOK {
		fmt.Fprintln(w, "All checks passed!")
	} else {
		fmt.Fprintln(w, "Some checks failed. See above for details.")
	}

	return nil
}

// countFiles counts files below dir matching the include pattern.
func countFiles(dir, include string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), include, doublestar.WithFilesOnly())
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}
