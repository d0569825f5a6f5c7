package search

import (
	"os"
	"path/filepath"
	"strings"
)

// Subtrees searched under a scope.
const (
	InformationDir = "information"
	ArchiveDir     = "archive"
)

// Scope selects which part of the memory corpus a search covers.
type Scope struct {
	// Root is the memory base path.
	Root string
	// Domain is an optional subpath appended to Root, e.g. "projects/memory-system".
	Domain string
	// IncludeArchive adds the archive subtree to the information subtree.
	IncludeArchive bool
}

// Path returns Root joined with Domain.
func (s Scope) Path() string {
	if s.Domain == "" {
		return s.Root
	}
	return filepath.Join(s.Root, s.Domain)
}

// Roots returns the existing directories the pre-filter should search.
//
// The usual layout is <root>/<domain>/information and <root>/<domain>/archive.
// A domain that already starts inside one of those subtrees
// ("information/projects") is searched directly; archive domains still
// require IncludeArchive. Missing paths yield no roots.
func (s Scope) Roots() []string {
	if s.Root == "" || !isDir(s.Root) {
		return nil
	}

	base := s.Path()
	if !isDir(base) {
		return nil
	}

	var roots []string
	if info := filepath.Join(base, InformationDir); isDir(info) {
		roots = append(roots, info)
	}
	if s.IncludeArchive {
		if archive := filepath.Join(base, ArchiveDir); isDir(archive) {
			roots = append(roots, archive)
		}
	}
	if len(roots) > 0 {
		return roots
	}

	switch s.domainSubtree() {
	case InformationDir:
		return []string{base}
	case ArchiveDir:
		if s.IncludeArchive {
			return []string{base}
		}
	}
	return nil
}

// domainSubtree returns the first path segment of Domain.
func (s Scope) domainSubtree() string {
	d := filepath.ToSlash(filepath.Clean(s.Domain))
	if d == "." || strings.HasPrefix(d, "../") || d == ".." {
		return ""
	}
	first, _, _ := strings.Cut(strings.TrimPrefix(d, "/"), "/")
	return first
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
