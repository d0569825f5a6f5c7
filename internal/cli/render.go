package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cadre-oss/memsearch/internal/config"
	"github.com/cadre-oss/memsearch/internal/search"
)

func renderResults(w io.Writer, format string, results []search.Result) error {
	if results == nil {
		results = []search.Result{}
	}

	switch format {
	case config.FormatJSON:
		return writeJSON(w, results)
	case config.FormatYAML:
		return writeYAML(w, results)
	default:
		return writeText(w, results)
	}
}

func writeText(w io.Writer, results []search.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No matches found.")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matches:\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "File: %s\n", r.File)
		fmt.Fprintf(&b, "Matched: %s = %s\n", r.MatchedField, strings.Join(r.MatchedValues, ", "))
		if v, ok := r.Frontmatter.Get("domain"); ok {
			fmt.Fprintf(&b, "Domain: %s\n", v.String())
		}
		if v, ok := r.Frontmatter.Get("tags"); ok {
			fmt.Fprintf(&b, "Tags: %s\n", v.String())
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
