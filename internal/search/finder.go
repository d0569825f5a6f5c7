package search

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	memerrors "github.com/cadre-oss/memsearch/internal/errors"
)

// Finder locates files under root whose raw text contains term.
//
// Matching is a header-unaware, case-insensitive substring test; callers use
// the result only as a candidate set.
type Finder interface {
	FindFilesContaining(ctx context.Context, term, root string) ([]string, error)
}

// DefaultInclude selects markdown files at any depth below a root.
const DefaultInclude = "**/*.md"

// WalkFinder scans files in-process with a directory walk.
type WalkFinder struct {
	// Include is a doublestar pattern matched against slash-separated paths
	// relative to the root.
	Include string
}

// NewWalkFinder creates a WalkFinder. An empty include selects markdown files.
func NewWalkFinder(include string) *WalkFinder {
	if include == "" {
		include = DefaultInclude
	}
	return &WalkFinder{Include: include}
}

// FindFilesContaining walks root and returns matching files in walk order.
// Unreadable files and directories are skipped.
func (f *WalkFinder) FindFilesContaining(ctx context.Context, term, root string) ([]string, error) {
	needle := []byte(strings.ToLower(term))
	var matches []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if d != nil && d.IsDir() && p != root {
				return fs.SkipDir
			}
			if p == root {
				return err
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(f.Include, filepath.ToSlash(rel)); !ok {
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			return nil // Skip unreadable files
		}
		if bytes.Contains(bytes.ToLower(content), needle) {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return nil, classifyFinderError(ctx, term, root, err)
	}

	return matches, nil
}

// GrepFinder delegates to an external grep binary (grep -rliF).
//
// grep runs under the C.UTF-8 locale. Terms that are not pure ASCII are
// scanned in-process, since case folding them would depend on that locale
// being installed.
type GrepFinder struct {
	// Binary is the grep executable; defaults to "grep".
	Binary string
	// Include is passed to --include. Only its final path element is used,
	// since grep matches --include against base names.
	Include string
}

// grepLocale overrides the caller's locale for grep.
const grepLocale = "LC_ALL=C.UTF-8"

// NewGrepFinder creates a GrepFinder for markdown files.
func NewGrepFinder(include string) *GrepFinder {
	if include == "" {
		include = DefaultInclude
	}
	return &GrepFinder{Binary: "grep", Include: include}
}

// FindFilesContaining runs grep and parses the file list it prints.
// Exit status 1 (no match) is not an error.
func (f *GrepFinder) FindFilesContaining(ctx context.Context, term, root string) ([]string, error) {
	if !isASCII(term) {
		return NewWalkFinder(f.Include).FindFilesContaining(ctx, term, root)
	}

	binary := f.Binary
	if binary == "" {
		binary = "grep"
	}

	args := []string{"-rliF", "--include=" + path.Base(filepath.ToSlash(f.Include)), "-e", term, root}
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(os.Environ(), grepLocale)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && ctx.Err() == nil {
			return nil, nil
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" && ctx.Err() == nil {
			err = errors.Join(err, errors.New(msg))
		}
		return nil, classifyFinderError(ctx, term, root, err)
	}

	var matches []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			matches = append(matches, line)
		}
	}
	return matches, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func classifyFinderError(ctx context.Context, term, root string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return memerrors.Wrap(memerrors.CodeTimeout, "pre-filter timed out for "+quoteTerm(term)+" in "+root, err)
	}
	return memerrors.Wrap(memerrors.CodeFinderFailed, "pre-filter failed for "+quoteTerm(term)+" in "+root, err)
}

func quoteTerm(term string) string {
	return "'" + term + "'"
}
