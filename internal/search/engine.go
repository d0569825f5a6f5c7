// Package search finds memory files whose header keywords or tags contain
// the requested terms.
//
// A search runs in two stages. A Finder first narrows the corpus to files
// whose raw text mentions any term; each candidate is then parsed and kept
// only if a term occurs in its keywords or tags field. Corpus problems
// (missing directories, unreadable files, failed or slow pre-filter calls)
// are logged and skipped, never returned.
package search

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	memerrors "github.com/cadre-oss/memsearch/internal/errors"
	"github.com/cadre-oss/memsearch/internal/event"
	"github.com/cadre-oss/memsearch/internal/frontmatter"
	"github.com/cadre-oss/memsearch/internal/telemetry"
)

// Header fields the precise stage matches against.
const (
	FieldKeywords = "keywords"
	FieldTags     = "tags"
)

// DefaultFinderTimeout bounds each pre-filter call when Options leaves it unset.
const DefaultFinderTimeout = 10 * time.Second

// Logger is the logging surface the engine needs.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
}

// Query describes one search.
type Query struct {
	Keywords []string
	Tags     []string
	Scope    Scope
}

// Terms returns keyword and tag terms in order, without duplicates.
func (q Query) Terms() []string {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range append(append([]string{}, q.Keywords...), q.Tags...) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	return terms
}

// Normalized returns a copy with terms trimmed and empty terms removed.
func (q Query) Normalized() Query {
	q.Keywords = cleanTerms(q.Keywords)
	q.Tags = cleanTerms(q.Tags)
	return q
}

// ValidateQuery rejects a query without any keyword or tag term.
func ValidateQuery(q Query) error {
	q = q.Normalized()
	if len(q.Keywords) == 0 && len(q.Tags) == 0 {
		return memerrors.New(memerrors.CodeUsage, "must specify at least one --keyword or --tag").
			WithSuggestion("Example: memsearch --keyword assigned --domain projects/")
	}
	return nil
}

// SplitTerms splits a comma separated flag value into trimmed, non-empty terms.
func SplitTerms(s string) []string {
	if s == "" {
		return nil
	}
	return cleanTerms(strings.Split(s, ","))
}

func cleanTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Result is one matching memory file.
type Result struct {
	File string `json:"file" yaml:"file"`
	// MatchedField is "keywords", "tags" or "keywords,tags".
	MatchedField  string              `json:"matched_field" yaml:"matched_field"`
	MatchedValues []string            `json:"matched_values" yaml:"matched_values"`
	Frontmatter   *frontmatter.Header `json:"frontmatter" yaml:"frontmatter"`
}

// MatchedFields splits MatchedField into its field names.
func (r Result) MatchedFields() []string {
	return strings.Split(r.MatchedField, ",")
}

// Options configures an Engine.
type Options struct {
	// Finder runs the pre-filter stage. Defaults to a WalkFinder over markdown files.
	Finder Finder
	// FinderTimeout bounds each finder call. Defaults to DefaultFinderTimeout.
	FinderTimeout time.Duration
	// Logger receives warnings for skipped work. Nil discards them.
	Logger Logger
	// Bus receives search lifecycle events. Nil disables events.
	Bus *event.Bus
}

// Engine runs searches. It holds no per-search state and is safe to reuse.
type Engine struct {
	finder  Finder
	timeout time.Duration
	logger  Logger
	bus     *event.Bus
}

// NewEngine creates a search engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		finder:  opts.Finder,
		timeout: opts.FinderTimeout,
		logger:  opts.Logger,
		bus:     opts.Bus,
	}
	if e.finder == nil {
		e.finder = NewWalkFinder(DefaultInclude)
	}
	if e.timeout <= 0 {
		e.timeout = DefaultFinderTimeout
	}
	if e.logger == nil {
		e.logger = nopLogger{}
	}
	return e
}

// run carries the state of a single search.
type run struct {
	id      string
	query   Query
	metrics *telemetry.Metrics
	started time.Time
}

// Search returns the files whose keywords or tags match the query, in sorted
// path order. A query without terms or a scope that does not exist yields no
// results. The returned error is non-nil only when ctx is cancelled.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	q = q.Normalized()
	r := &run{
		id:      uuid.NewString(),
		query:   q,
		metrics: telemetry.NewMetrics(),
		started: time.Now(),
	}

	terms := q.Terms()
	if len(terms) == 0 {
		e.logger.Debug("No search terms supplied", "search_id", r.id)
		return nil, nil
	}

	e.emit(event.SearchStarted, map[string]interface{}{
		"search_id":       r.id,
		"keywords":        q.Keywords,
		"tags":            q.Tags,
		"root":            q.Scope.Root,
		"domain":          q.Scope.Domain,
		"include_archive": q.Scope.IncludeArchive,
	})

	roots := q.Scope.Roots()
	if len(roots) == 0 {
		e.logger.Debug("Search scope has no searchable directories",
			"search_id", r.id, "path", q.Scope.Path())
	}

	candidates := e.candidates(ctx, r, terms, roots)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.emit(event.SearchCandidates, map[string]interface{}{
		"search_id":  r.id,
		"roots":      roots,
		"candidates": len(candidates),
	})

	var results []Result
	for _, file := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res, ok := e.evaluate(r, file); ok {
			results = append(results, res)
		}
	}

	r.metrics.RecordDuration(time.Since(r.started))
	summary := r.metrics.GetSummary()
	e.logger.Debug("Search completed", append([]interface{}{"search_id", r.id}, flatten(summary)...)...)
	summary["search_id"] = r.id
	e.emit(event.SearchCompleted, summary)

	return results, nil
}

// candidates runs the pre-filter for every term and root and returns the
// deduplicated candidate files in sorted order.
func (e *Engine) candidates(ctx context.Context, r *run, terms, roots []string) []string {
	set := make(map[string]struct{})

	for _, term := range terms {
		for _, root := range roots {
			r.metrics.IncFinderCalls()
			start := time.Now()

			callCtx, cancel := context.WithTimeout(ctx, e.timeout)
			files, err := e.finder.FindFilesContaining(callCtx, term, root)
			cancel()

			r.metrics.RecordFinderLatency(time.Since(start))
			if err != nil {
				r.metrics.IncFinderFailures()
				e.logger.Warn("Pre-filter failed, skipping",
					"search_id", r.id,
					"term", term,
					"root", root,
					"code", memerrors.AsCode(err),
					"error", err,
				)
				continue
			}
			for _, f := range files {
				set[f] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	r.metrics.AddCandidates(len(out))
	return out
}

// evaluate reads and parses one candidate and matches its header.
func (e *Engine) evaluate(r *run, file string) (Result, bool) {
	content, err := os.ReadFile(file)
	if err != nil {
		e.skip(r, file, memerrors.Wrap(memerrors.CodeReadFailed, "failed to read "+file, err))
		return Result{}, false
	}
	if !utf8.Valid(content) {
		e.skip(r, file, memerrors.New(memerrors.CodeReadFailed, "file is not valid UTF-8: "+file))
		return Result{}, false
	}

	doc := frontmatter.Parse(string(content))
	r.metrics.IncFilesParsed()
	if !doc.HasHeader() {
		e.logger.Debug("Candidate has no header", "search_id", r.id, "file", file)
		return Result{}, false
	}

	res, ok := Match(doc.Header, r.query.Keywords, r.query.Tags)
	if !ok {
		return Result{}, false
	}
	res.File = file

	r.metrics.IncMatches()
	e.emit(event.SearchMatched, map[string]interface{}{
		"search_id":      r.id,
		"file":           file,
		"matched_field":  res.MatchedField,
		"matched_values": res.MatchedValues,
	})
	return res, true
}

func (e *Engine) skip(r *run, file string, err error) {
	r.metrics.IncFilesSkipped()
	e.logger.Warn("Failed to parse candidate, skipping",
		"search_id", r.id,
		"file", file,
		"code", memerrors.AsCode(err),
		"error", err,
	)
	e.emit(event.SearchFileSkipped, map[string]interface{}{
		"search_id": r.id,
		"file":      file,
		"error":     err.Error(),
	})
}

// emit publishes an event. Hook failures never affect the search.
func (e *Engine) emit(t event.EventType, data map[string]interface{}) {
	if err := e.bus.Emit(event.NewEvent(t, data)); err != nil {
		e.logger.Warn("Event hook failed", "event", string(t), "error", err)
	}
}

// Match checks a header's keywords and tags against the supplied terms. It
// returns a Result without File set, and false when nothing matched.
func Match(h *frontmatter.Header, keywords, tags []string) (Result, bool) {
	var fields []string
	var values []string
	seen := make(map[string]bool)

	collect := func(field string, terms []string) {
		matched := matchField(h, field, terms)
		if len(matched) == 0 {
			return
		}
		fields = append(fields, field)
		for _, v := range matched {
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
	}
	collect(FieldKeywords, keywords)
	collect(FieldTags, tags)

	if len(fields) == 0 {
		return Result{}, false
	}
	return Result{
		MatchedField:  strings.Join(fields, ","),
		MatchedValues: values,
		Frontmatter:   h,
	}, true
}

// matchField returns the header values of field that contain any term,
// compared case-insensitively. A scalar field is treated as a one-element list.
func matchField(h *frontmatter.Header, field string, terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	v, ok := h.Get(field)
	if !ok {
		return nil
	}

	var matched []string
	for _, term := range terms {
		needle := strings.ToLower(term)
		for _, hv := range v.List() {
			if strings.Contains(strings.ToLower(hv), needle) {
				matched = append(matched, hv)
			}
		}
	}
	return matched
}

func flatten(m map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]interface{}, 0, len(m)*2)
	for _, k := range keys {
		out = append(out, k, m[k])
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
