package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memsearch/internal/config"
	"github.com/cadre-oss/memsearch/internal/search"
)

type initOptions struct {
	force   bool
	example bool
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	initOpts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init [memory-path]",
		Short: "Initialize a memory directory and memsearch.yaml",
		Long: `Create the standard memory layout and a memsearch.yaml in the current
directory pointing at it.

Layout:
  <memory-path>/information/projects
  <memory-path>/information/professional
  <memory-path>/information/personal
  <memory-path>/archive

The memory path defaults to --memory-path or ~/.canvas/memory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts, initOpts, args)
		},
	}

	cmd.Flags().BoolVar(&initOpts.force, "force", false, "overwrite an existing memsearch.yaml")
	cmd.Flags().BoolVar(&initOpts.example, "example", false, "write an example memory file")

	return cmd
}

func runInit(cmd *cobra.Command, opts *rootOptions, initOpts *initOptions, args []string) error {
	memoryPath := opts.memoryPath
	if len(args) > 0 {
		memoryPath = args[0]
	}
	if memoryPath == "" {
		memoryPath = config.DefaultMemoryPath()
	}
	memoryPath = config.ExpandHome(memoryPath)

	dirs := []string{
		filepath.Join(search.InformationDir, "projects"),
		filepath.Join(search.InformationDir, "professional"),
		filepath.Join(search.InformationDir, "personal"),
		search.ArchiveDir,
	}
	for _, dir := range dirs {
		path := filepath.Join(memoryPath, dir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if initOpts.example {
		if err := createExampleMemory(memoryPath); err != nil {
			return err
		}
	}

	cfgPath := configPath(opts)
	wroteConfig, err := createConfig(cfgPath, memoryPath, initOpts.force)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Initialized memory in %s\n", memoryPath)
	if wroteConfig {
		fmt.Fprintf(w, "Wrote %s\n", cfgPath)
	} else {
		fmt.Fprintf(w, "Kept existing %s (use --force to overwrite)\n", cfgPath)
	}
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Add markdown files with keywords/tags headers under information/")
	fmt.Fprintln(w, "  2. Run 'memsearch doctor' to check the layout")
	fmt.Fprintln(w, "  3. Run 'memsearch --keyword <term>' to search")

	return nil
}

func createConfig(path, memoryPath string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}

	content := fmt.Sprintf(`# memsearch.yaml - memory search configuration
memory_path: %s
include_archive: false
format: text  # text | json | yaml

search:
  finder: native  # native | grep
  finder_timeout: %s
  include: "%s"

# Logging
logging:
  level: warn
  format: text  # text | json

# Hooks receive search events (search.started, search.candidates,
# search.file_skipped, search.matched, search.completed)
hooks:
  enabled: false
  hooks: []
`, memoryPath, search.DefaultFinderTimeout, search.DefaultInclude)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

func createExampleMemory(memoryPath string) error {
	content := `---
title: Example memory
domain: projects
keywords: [example, memsearch]
tags:
  - getting-started
---
Search for this file with:

  memsearch --keyword example --domain information/projects
`
	path := filepath.Join(memoryPath, search.InformationDir, "projects", "example.md")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write example memory: %w", err)
	}
	return nil
}
