package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/memsearch/internal/config"
	memerrors "github.com/cadre-oss/memsearch/internal/errors"
	"github.com/cadre-oss/memsearch/internal/frontmatter"
)

// parsedFile is the parse command's structured output.
type parsedFile struct {
	File        string              `json:"file" yaml:"file"`
	HasHeader   bool                `json:"has_header" yaml:"has_header"`
	Frontmatter *frontmatter.Header `json:"frontmatter" yaml:"frontmatter"`
	BodyLength  int                 `json:"body_length" yaml:"body_length"`
}

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Show how a memory file's header is parsed",
		Long: `Parse a single memory file and print its header fields.

List fields are shown as [a, b]; scalars as plain text. Files without a
complete header are reported as having none.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runParse(cmd.OutOrStdout(), args[0], cfg.Format)
		},
	}
}

func runParse(w io.Writer, path, format string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return memerrors.Wrap(memerrors.CodeReadFailed, "failed to read "+path, err)
	}

	doc := frontmatter.Parse(string(content))
	out := parsedFile{
		File:        path,
		HasHeader:   doc.HasHeader(),
		Frontmatter: doc.Header,
		BodyLength:  len(doc.Body),
	}
	if out.Frontmatter == nil {
		out.Frontmatter = frontmatter.NewHeader()
	}

	switch format {
	case config.FormatJSON:
		return writeJSON(w, out)
	case config.FormatYAML:
		return writeYAML(w, out)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", path)
	if !out.HasHeader {
		b.WriteString("Header: none\n")
	} else {
		fmt.Fprintf(&b, "Header: %d fields\n", out.Frontmatter.Len())
		for _, key := range out.Frontmatter.Keys() {
			v, _ := out.Frontmatter.Get(key)
			if v.IsList() {
				fmt.Fprintf(&b, "  %s: [%s]\n", key, v.String())
			} else {
				fmt.Fprintf(&b, "  %s: %s\n", key, v.String())
			}
		}
	}
	fmt.Fprintf(&b, "Body: %d bytes\n", out.BodyLength)

	_, err = io.WriteString(w, b.String())
	return err
}
