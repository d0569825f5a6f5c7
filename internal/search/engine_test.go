package search

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cadre-oss/memsearch/internal/event"
	"github.com/cadre-oss/memsearch/internal/frontmatter"
	"github.com/cadre-oss/memsearch/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestEngine(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = testutil.TestLogger()
	}
	return NewEngine(opts)
}

func files(results []Result) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.File)
	}
	return out
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	c := testutil.NewCorpus(t)
	a := c.Write("information/a.md", testutil.Memory("keywords: [Assigned]", "body\n"))
	b := c.Write("information/b.md", testutil.Memory("keywords: [reassigned-work]", ""))

	results, err := newTestEngine(Options{}).Search(context.Background(), Query{
		Keywords: []string{"assigned"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files(results))
	assert.Equal(t, []string{"Assigned"}, results[0].MatchedValues)
	assert.Equal(t, "keywords", results[0].MatchedField)
}

func TestSearch_ORAcrossTerms(t *testing.T) {
	c := testutil.NewCorpus(t)
	a := c.Write("information/a.md", testutil.Memory("keywords: [assigned]", ""))
	b := c.Write("information/b.md", testutil.Memory("keywords: [tasks]", ""))
	c.Write("information/c.md", testutil.Memory("keywords: [other]", ""))

	results, err := newTestEngine(Options{}).Search(context.Background(), Query{
		Keywords: []string{"assigned", "tasks"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files(results))
}

func TestSearch_DomainScoping(t *testing.T) {
	c := testutil.NewCorpus(t)
	x := c.Write("information/projects/x.md", testutil.Memory("keywords: [assigned]", ""))
	c.Write("information/personal/y.md", testutil.Memory("keywords: [assigned]", ""))

	results, err := newTestEngine(Options{}).Search(context.Background(), Query{
		Keywords: []string{"assigned"},
		Scope:    Scope{Root: c.Root, Domain: "information/projects"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{x}, files(results))
}

func TestSearch_DomainWithOwnLayout(t *testing.T) {
	c := testutil.NewCorpus(t)
	x := c.Write("projects/information/x.md", testutil.Memory("keywords: [assigned]", ""))
	c.Write("personal/information/y.md", testutil.Memory("keywords: [assigned]", ""))

	results, err := newTestEngine(Options{}).Search(context.Background(), Query{
		Keywords: []string{"assigned"},
		Scope:    Scope{Root: c.Root, Domain: "projects"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{x}, files(results))
}

func TestSearch_MissingPathsYieldEmpty(t *testing.T) {
	c := testutil.NewCorpus(t)
	finder := &testutil.MockFinder{}
	engine := newTestEngine(Options{Finder: finder})

	for _, scope := range []Scope{
		{Root: c.Path("missing")},
		{Root: c.Root, Domain: "missing"},
		{Root: c.Root},
	} {
		results, err := engine.Search(context.Background(), Query{Keywords: []string{"x"}, Scope: scope})
		require.NoError(t, err)
		assert.Empty(t, results)
	}
	assert.Zero(t, finder.CallCount())
}

func TestSearch_NoTerms(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", testutil.Memory("keywords: [assigned]", ""))
	finder := &testutil.MockFinder{}

	results, err := newTestEngine(Options{Finder: finder}).Search(context.Background(), Query{
		Keywords: []string{"", "  "},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, finder.CallCount())
}

func TestSearch_HeaderWithoutFieldsNeverMatches(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", testutil.Memory("title: assigned\ndomain: assigned", "assigned assigned\n"))
	c.Write("information/b.md", "assigned in a file with no header\n")

	results, err := newTestEngine(Options{}).Search(context.Background(), Query{
		Keywords: []string{"assigned"},
		Tags:     []string{"assigned"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_FieldsMatchOwnTermsOnly(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", testutil.Memory("keywords: [memory]\ntags: [assigned]", ""))

	results, err := newTestEngine(Options{}).Search(context.Background(), Query{
		Keywords: []string{"assigned"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_BothFieldsMatch(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", testutil.Memory(
		"keywords: [memory, search]\ntags: [memory, infra]\ndomain: projects", ""))

	results, err := newTestEngine(Options{}).Search(context.Background(), Query{
		Keywords: []string{"mem", "memory"},
		Tags:     []string{"memory", "infra"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "keywords,tags", r.MatchedField)
	assert.Equal(t, []string{"keywords", "tags"}, r.MatchedFields())
	assert.Equal(t, []string{"memory", "infra"}, r.MatchedValues)

	domain, ok := r.Frontmatter.Get("domain")
	require.True(t, ok)
	assert.Equal(t, "projects", domain.String())
}

func TestSearch_ScalarKeywordsWrapped(t *testing.T) {
	c := testutil.NewCorpus(t)
	a := c.Write("information/a.md", testutil.Memory("keywords: assigned work", ""))

	results, err := newTestEngine(Options{}).Search(context.Background(), Query{
		Keywords: []string{"work"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, a, results[0].File)
	assert.Equal(t, []string{"assigned work"}, results[0].MatchedValues)
}

func TestSearch_ListForms(t *testing.T) {
	c := testutil.NewCorpus(t)
	inline := c.Write("information/inline.md", testutil.Memory("keywords: [a, b, target]", ""))
	multi := c.Write("information/multi.md", testutil.Memory("keywords: [a,\n  target,\n  c]", ""))
	dash := c.Write("information/dash.md", testutil.Memory("keywords:\n  - a\n  - target", ""))

	results, err := newTestEngine(Options{}).Search(context.Background(), Query{
		Keywords: []string{"target"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{dash, inline, multi}, files(results))
}

func TestSearch_Archive(t *testing.T) {
	c := testutil.NewCorpus(t)
	info := c.Write("information/a.md", testutil.Memory("keywords: [assigned]", ""))
	arch := c.Write("archive/old.md", testutil.Memory("keywords: [assigned]", ""))
	engine := newTestEngine(Options{})

	results, err := engine.Search(context.Background(), Query{
		Keywords: []string{"assigned"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{info}, files(results))

	results, err = engine.Search(context.Background(), Query{
		Keywords: []string{"assigned"},
		Scope:    Scope{Root: c.Root, IncludeArchive: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{arch, info}, files(results))
}

func TestSearch_SortedAndDeduplicated(t *testing.T) {
	c := testutil.NewCorpus(t)
	z := c.Write("information/z.md", testutil.Memory("keywords: [one, two]", ""))
	a := c.Write("information/a.md", testutil.Memory("keywords: [one, two]", ""))

	finder := &testutil.MockFinder{Files: map[string][]string{
		"one": {z, a},
		"two": {a, z},
	}}
	results, err := newTestEngine(Options{Finder: finder}).Search(context.Background(), Query{
		Keywords: []string{"one", "two"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{a, z}, files(results))
	assert.Equal(t, 2, finder.CallCount())
}

func TestSearch_FinderFailureIsSkipped(t *testing.T) {
	c := testutil.NewCorpus(t)
	a := c.Write("information/a.md", testutil.Memory("keywords: [good]", ""))
	c.Write("information/b.md", testutil.Memory("keywords: [bad]", ""))

	finder := &testutil.MockFinder{
		Files:     map[string][]string{"good": {a}},
		FailTerms: map[string]bool{"bad": true},
	}
	logger := &testutil.CaptureLogger{}

	results, err := newTestEngine(Options{Finder: finder, Logger: logger}).Search(context.Background(), Query{
		Keywords: []string{"bad", "good"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files(results))
	assert.Contains(t, logger.Warnings(), "Pre-filter failed, skipping")
}

func TestSearch_FinderTimeoutIsSkipped(t *testing.T) {
	c := testutil.NewCorpus(t)
	a := c.Write("information/a.md", testutil.Memory("keywords: [slow]", ""))

	finder := &testutil.MockFinder{
		Files: map[string][]string{"slow": {a}},
		Delay: time.Second,
	}
	logger := &testutil.CaptureLogger{}

	start := time.Now()
	results, err := newTestEngine(Options{
		Finder:        finder,
		FinderTimeout: 20 * time.Millisecond,
		Logger:        logger,
	}).Search(context.Background(), Query{
		Keywords: []string{"slow"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, logger.Warnings(), "Pre-filter failed, skipping")
}

func TestSearch_UnreadableCandidatesAreSkipped(t *testing.T) {
	c := testutil.NewCorpus(t)
	good := c.Write("information/good.md", testutil.Memory("keywords: [assigned]", ""))
	bad := c.WriteBytes("information/bad.md", append([]byte("---\nkeywords: [assigned]\n---\n"), 0xff, 0xfe))
	gone := c.Path("information/gone.md")

	finder := &testutil.MockFinder{Files: map[string][]string{
		"assigned": {good, bad, gone},
	}}
	bus, rec := testutil.NewRecordingBus()
	logger := &testutil.CaptureLogger{}

	results, err := newTestEngine(Options{Finder: finder, Bus: bus, Logger: logger}).Search(context.Background(), Query{
		Keywords: []string{"assigned"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{good}, files(results))
	assert.Equal(t, 2, rec.Count(event.SearchFileSkipped))
	assert.Len(t, logger.Warnings(), 2)
}

func TestSearch_Events(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", testutil.Memory("keywords: [assigned]", ""))
	c.Write("information/b.md", "assigned in body only\n")
	bus, rec := testutil.NewRecordingBus()

	_, err := newTestEngine(Options{Bus: bus}).Search(context.Background(), Query{
		Keywords: []string{"assigned"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)

	assert.Equal(t, []event.EventType{
		event.SearchStarted,
		event.SearchCandidates,
		event.SearchMatched,
		event.SearchCompleted,
	}, rec.Types())

	evs := rec.Events()
	id := evs[0].Data["search_id"]
	require.NotEmpty(t, id)
	for _, ev := range evs {
		assert.Equal(t, id, ev.Data["search_id"], ev.Type)
	}
	assert.Equal(t, 2, evs[1].Data["candidates"])

	completed := evs[3].Data
	assert.Equal(t, int64(1), completed["matches"])
	assert.Equal(t, int64(2), completed["files_parsed"])
	assert.Equal(t, int64(1), completed["finder_calls"])
}

type failingHook struct{}

func (failingHook) Name() string                 { return "failing" }
func (failingHook) Matches(event.EventType) bool { return true }
func (failingHook) IsBlocking() bool             { return true }
func (failingHook) Handle(event.Event) error     { return errors.New("boom") }

func TestSearch_BlockingHookFailureDoesNotAbort(t *testing.T) {
	c := testutil.NewCorpus(t)
	a := c.Write("information/a.md", testutil.Memory("keywords: [assigned]", ""))
	bus := event.NewBus(nil)
	bus.Register(failingHook{})
	logger := &testutil.CaptureLogger{}

	results, err := newTestEngine(Options{Bus: bus, Logger: logger}).Search(context.Background(), Query{
		Keywords: []string{"assigned"},
		Scope:    Scope{Root: c.Root},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files(results))
	assert.Contains(t, logger.Warnings(), "Event hook failed")
}

func TestSearch_CancelledContext(t *testing.T) {
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", testutil.Memory("keywords: [assigned]", ""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(Options{}).Search(ctx, Query{
		Keywords: []string{"assigned"},
		Scope:    Scope{Root: c.Root},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_RepeatCallsReread(t *testing.T) {
	c := testutil.NewCorpus(t)
	a := c.Write("information/a.md", testutil.Memory("keywords: [before]", ""))
	engine := newTestEngine(Options{})
	q := Query{Keywords: []string{"after"}, Scope: Scope{Root: c.Root}}

	results, err := engine.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, os.WriteFile(a, []byte(testutil.Memory("keywords: [after]", "")), 0644))

	results, err = engine.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files(results))
}

func TestSearch_GrepFinderParity(t *testing.T) {
	requireGrep(t)
	c := testutil.NewCorpus(t)
	c.Write("information/projects/a.md", testutil.Memory("keywords: [Assigned]\ntags: [ops]", ""))
	c.Write("information/projects/b.md", testutil.Memory("keywords: [tasks]", "assigned in body"))
	c.Write("archive/c.md", testutil.Memory("tags: [assigned]", ""))

	q := Query{
		Keywords: []string{"assigned"},
		Tags:     []string{"assigned", "ops"},
		Scope:    Scope{Root: c.Root, IncludeArchive: true},
	}
	native, err := newTestEngine(Options{Finder: NewWalkFinder("")}).Search(context.Background(), q)
	require.NoError(t, err)
	grep, err := newTestEngine(Options{Finder: NewGrepFinder("")}).Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, files(native), files(grep))
	assert.Len(t, native, 2)
}

func TestSearch_GrepFinderParityNonASCII(t *testing.T) {
	requireGrep(t)
	t.Setenv("LC_ALL", "C")
	c := testutil.NewCorpus(t)
	c.Write("information/a.md", testutil.Memory("keywords: [Ärger]", ""))

	q := Query{Keywords: []string{"ärger"}, Scope: Scope{Root: c.Root}}
	native, err := newTestEngine(Options{Finder: NewWalkFinder("")}).Search(context.Background(), q)
	require.NoError(t, err)
	grep, err := newTestEngine(Options{Finder: NewGrepFinder("")}).Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, []string{c.Path("information/a.md")}, files(native))
	assert.Equal(t, files(native), files(grep))
}

func TestMatch(t *testing.T) {
	h := frontmatter.NewHeader()
	h.Set("keywords", frontmatter.List("Alpha", "beta"))
	h.Set("tags", frontmatter.Scalar("gamma"))

	res, ok := Match(h, []string{"ALPHA"}, []string{"gam"})
	require.True(t, ok)
	assert.Equal(t, "keywords,tags", res.MatchedField)
	assert.Equal(t, []string{"Alpha", "gamma"}, res.MatchedValues)
	assert.Empty(t, res.File)

	_, ok = Match(h, []string{"delta"}, nil)
	assert.False(t, ok)

	_, ok = Match(frontmatter.NewHeader(), []string{"alpha"}, []string{"gamma"})
	assert.False(t, ok)
}

func TestValidateQuery(t *testing.T) {
	err := ValidateQuery(Query{Keywords: []string{" "}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[USAGE]")

	assert.NoError(t, ValidateQuery(Query{Tags: []string{"x"}}))
}

func TestSplitTerms(t *testing.T) {
	assert.Nil(t, SplitTerms(""))
	assert.Nil(t, SplitTerms(" , ,"))
	assert.Equal(t, []string{"assigned", "tasks"}, SplitTerms("assigned, tasks,"))
}
