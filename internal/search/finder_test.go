package search

import (
	"context"
	"os/exec"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memerrors "github.com/cadre-oss/memsearch/internal/errors"
	"github.com/cadre-oss/memsearch/internal/testutil"
)

func finderCorpus(t *testing.T) *testutil.Corpus {
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", "---\nkeywords: [Assigned]\n---\n")
	c.Write("information/deep/nested/b.md", "mentions ASSIGNED in the body\n")
	c.Write("information/c.md", "nothing relevant\n")
	c.Write("information/notes.txt", "assigned but not markdown\n")
	return c
}

func TestWalkFinder(t *testing.T) {
	c := finderCorpus(t)
	f := NewWalkFinder("")

	got, err := f.FindFilesContaining(context.Background(), "assigned", c.Path("information"))
	require.NoError(t, err)
	sort.Strings(got)

	assert.Equal(t, []string{
		c.Path("information/a.md"),
		c.Path("information/deep/nested/b.md"),
	}, got)
}

func TestWalkFinder_CustomInclude(t *testing.T) {
	c := finderCorpus(t)
	f := NewWalkFinder("**/*.txt")

	got, err := f.FindFilesContaining(context.Background(), "assigned", c.Path("information"))
	require.NoError(t, err)
	assert.Equal(t, []string{c.Path("information/notes.txt")}, got)
}

func TestWalkFinder_NoMatch(t *testing.T) {
	c := finderCorpus(t)

	got, err := NewWalkFinder("").FindFilesContaining(context.Background(), "zzz", c.Path("information"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWalkFinder_MissingRoot(t *testing.T) {
	c := testutil.NewCorpus(t)

	_, err := NewWalkFinder("").FindFilesContaining(context.Background(), "x", c.Path("missing"))
	require.Error(t, err)
	assert.Equal(t, memerrors.CodeFinderFailed, memerrors.AsCode(err))
}

func TestWalkFinder_DeadlineExceeded(t *testing.T) {
	c := finderCorpus(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := NewWalkFinder("").FindFilesContaining(ctx, "assigned", c.Path("information"))
	require.Error(t, err)
	assert.Equal(t, memerrors.CodeTimeout, memerrors.AsCode(err))
}

func requireGrep(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("grep"); err != nil {
		t.Skip("grep not available")
	}
}

func TestGrepFinder(t *testing.T) {
	requireGrep(t)
	c := finderCorpus(t)

	got, err := NewGrepFinder("").FindFilesContaining(context.Background(), "assigned", c.Path("information"))
	require.NoError(t, err)
	sort.Strings(got)

	assert.Equal(t, []string{
		c.Path("information/a.md"),
		c.Path("information/deep/nested/b.md"),
	}, got)
}

func TestGrepFinder_NoMatchIsNotAnError(t *testing.T) {
	requireGrep(t)
	c := finderCorpus(t)

	got, err := NewGrepFinder("").FindFilesContaining(context.Background(), "zzz", c.Path("information"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGrepFinder_TermIsLiteral(t *testing.T) {
	requireGrep(t)
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", "keywords: [a.b]\n")
	c.Write("information/b.md", "keywords: [axb]\n")

	got, err := NewGrepFinder("").FindFilesContaining(context.Background(), "a.b", c.Path("information"))
	require.NoError(t, err)
	assert.Equal(t, []string{c.Path("information/a.md")}, got)
}

func TestGrepFinder_MissingBinary(t *testing.T) {
	c := finderCorpus(t)
	f := &GrepFinder{Binary: "memsearch-no-such-grep", Include: DefaultInclude}

	_, err := f.FindFilesContaining(context.Background(), "assigned", c.Path("information"))
	require.Error(t, err)
	assert.Equal(t, memerrors.CodeFinderFailed, memerrors.AsCode(err))
}

func TestGrepFinder_NonASCIITermFoldsUnderCLocale(t *testing.T) {
	requireGrep(t)
	t.Setenv("LC_ALL", "C")
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", "---\nkeywords: [Ärger]\n---\n")
	c.Write("information/b.md", "---\nkeywords: [other]\n---\n")

	got, err := NewGrepFinder("").FindFilesContaining(context.Background(), "ärger", c.Path("information"))
	require.NoError(t, err)
	assert.Equal(t, []string{c.Path("information/a.md")}, got)
}

func TestGrepFinder_NonASCIITermScansInProcess(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", "---\ntags: [CAFÉ]\n---\n")
	f := &GrepFinder{Binary: "memsearch-no-such-grep", Include: DefaultInclude}

	got, err := f.FindFilesContaining(context.Background(), "café", c.Path("information"))
	require.NoError(t, err)
	assert.Equal(t, []string{c.Path("information/a.md")}, got)
}
