// Package memsearch provides a public API for header-aware memory search.
//
// Example usage:
//
//	import "github.com/cadre-oss/memsearch/pkg/memsearch"
//
//	// Find project memories about assignments
//	results, err := memsearch.Search(ctx, memsearch.Options{
//		Keywords: []string{"assigned"},
//		Domain:   "projects/",
//	})
//
//	// Inspect one file's header
//	doc, err := memsearch.ParseFile("notes.md")
package memsearch

import (
	"context"
	"os"
	"time"

	"github.com/cadre-oss/memsearch/internal/config"
	memerrors "github.com/cadre-oss/memsearch/internal/errors"
	"github.com/cadre-oss/memsearch/internal/frontmatter"
	"github.com/cadre-oss/memsearch/internal/search"
)

// Result is one matching memory file.
type Result = search.Result

// Document is a parsed memory file.
type Document = frontmatter.Document

// Logger receives debug output and warnings about skipped files.
type Logger = search.Logger

// Finder names accepted by Options.Finder.
const (
	FinderNative = config.FinderNative
	FinderGrep   = config.FinderGrep
)

// Options describes a search.
type Options struct {
	Keywords []string
	Tags     []string
	// Domain scopes the search to a subpath of MemoryPath.
	Domain string
	// MemoryPath defaults to ~/.canvas/memory.
	MemoryPath     string
	IncludeArchive bool
	// Finder selects the pre-filter: FinderNative (default) or FinderGrep.
	Finder        string
	FinderTimeout time.Duration
	Logger        Logger
}

// Search returns memory files whose keywords or tags contain any of the
// supplied terms. It fails only when no terms are given or ctx is cancelled.
func Search(ctx context.Context, opts Options) ([]Result, error) {
	query := search.Query{Keywords: opts.Keywords, Tags: opts.Tags}
	if err := search.ValidateQuery(query); err != nil {
		return nil, err
	}

	root := opts.MemoryPath
	if root == "" {
		root = config.DefaultMemoryPath()
	}
	query.Scope = search.Scope{
		Root:           config.ExpandHome(root),
		Domain:         opts.Domain,
		IncludeArchive: opts.IncludeArchive,
	}

	var finder search.Finder
	switch opts.Finder {
	case "", FinderNative:
		finder = search.NewWalkFinder(search.DefaultInclude)
	case FinderGrep:
		finder = search.NewGrepFinder(search.DefaultInclude)
	default:
		return nil, memerrors.New(memerrors.CodeConfigInvalid, "invalid finder: "+opts.Finder).
			WithSuggestion("Use \"native\" or \"grep\"")
	}

	engine := search.NewEngine(search.Options{
		Finder:        finder,
		FinderTimeout: opts.FinderTimeout,
		Logger:        opts.Logger,
	})
	return engine.Search(ctx, query)
}

// Parse splits text into its header and body.
func Parse(text string) Document {
	return frontmatter.Parse(text)
}

// ParseFile reads and parses one memory file.
func ParseFile(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, memerrors.Wrap(memerrors.CodeReadFailed, "failed to read "+path, err)
	}
	return frontmatter.Parse(string(content)), nil
}
