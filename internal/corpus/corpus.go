// Package corpus holds the loaded question bank and serves queries against
// an immutable snapshot that reloads replace atomically.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/qaindex/internal/document"
	"github.com/dgallion1/qaindex/internal/index"
	"github.com/dgallion1/qaindex/internal/loader"
	"github.com/dgallion1/qaindex/internal/metrics"
	"github.com/dgallion1/qaindex/internal/parser"
)

var (
	// ErrNotLoaded is returned by Reload before the first successful Load.
	ErrNotLoaded = errors.New("corpus not loaded")
	// ErrAlreadyLoaded is returned by Load once a corpus is live.
	ErrAlreadyLoaded = errors.New("corpus already loaded")
)

// State is the lifecycle state of a Corpus.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoaded   State = "loaded"
)

// Snapshot is one fully built corpus. It is never mutated after it is
// published.
type Snapshot struct {
	Dir       string
	Documents []*document.Document
	Index     *index.Index
	Report    Report
	LoadedAt  time.Time

	byPath map[string]*document.Document
}

// Document returns the loaded document with the given path.
func (s *Snapshot) Document(path string) (*document.Document, bool) {
	d, ok := s.byPath[path]
	return d, ok
}

// Report summarizes a load.
type Report struct {
	LoadedDocuments int           `json:"loaded_documents"`
	SkippedFiles    int           `json:"skipped_files"`
	Sections        int           `json:"sections"`
	Tokens          int           `json:"tokens"`
	Warnings        []string      `json:"warnings"`
	Duration        time.Duration `json:"duration_ns"`
}

// Result is one ranked query match.
type Result struct {
	ID         int      `json:"id"`
	Heading    string   `json:"heading"`
	Path       string   `json:"path"`
	Score      int      `json:"score"`
	Coverage   float64  `json:"coverage"`
	Line       int      `json:"line"`
	Breadcrumb []string `json:"breadcrumb,omitempty"`
	Malformed  bool     `json:"malformed,omitempty"`
	Languages  []string `json:"languages,omitempty"`
}

// Corpus is the handle for a process-wide question bank. The zero value is
// not usable; construct with New.
type Corpus struct {
	parser  parser.Parser
	loader  *loader.Loader
	log     *slog.Logger
	metrics *metrics.Collector

	workers int

	mu      sync.Mutex // serializes Load and Reload
	current atomic.Pointer[Snapshot]
}

// New returns an unloaded corpus. m may be nil.
func New(p parser.Parser, l *loader.Loader, log *slog.Logger, m *metrics.Collector) *Corpus {
	if log == nil {
		log = slog.Default()
	}
	return &Corpus{
		parser:  p,
		loader:  l,
		log:     log,
		metrics: m,
		workers: runtime.GOMAXPROCS(0),
	}
}

// SetParseWorkers bounds how many files are parsed concurrently during a
// load. Call it before Load.
func (c *Corpus) SetParseWorkers(n int) {
	if n > 0 {
		c.workers = n
	}
}

// State reports whether a corpus has been loaded.
func (c *Corpus) State() State {
	if c.current.Load() == nil {
		return StateUnloaded
	}
	return StateLoaded
}

// Snapshot returns the live snapshot, or nil when unloaded.
func (c *Corpus) Snapshot() *Snapshot {
	return c.current.Load()
}

// Dir returns the directory of the live snapshot.
func (c *Corpus) Dir() string {
	if s := c.current.Load(); s != nil {
		return s.Dir
	}
	return ""
}

// Load reads dir and publishes the first snapshot.
func (c *Corpus) Load(ctx context.Context, dir string) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.Load() != nil {
		return Report{}, ErrAlreadyLoaded
	}
	return c.loadLocked(ctx, dir)
}

// Reload rebuilds the corpus from dir and swaps it in atomically. Queries
// running during a reload see either the old or the new snapshot in full.
// On error the old snapshot stays live.
func (c *Corpus) Reload(ctx context.Context, dir string) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.Load() == nil {
		return Report{}, ErrNotLoaded
	}
	return c.loadLocked(ctx, dir)
}

func (c *Corpus) loadLocked(ctx context.Context, dir string) (Report, error) {
	log := c.log.With("dir", dir)
	snap, err := c.build(ctx, dir)
	if err != nil {
		c.metrics.ObserveLoadFailure()
		log.Error("corpus load failed", "error", err)
		return Report{}, err
	}

	c.current.Store(snap)
	r := snap.Report
	c.metrics.ObserveLoad(r.LoadedDocuments, r.Sections, r.Tokens, len(r.Warnings))
	log.Info("corpus loaded",
		"documents", r.LoadedDocuments,
		"skipped", r.SkippedFiles,
		"sections", r.Sections,
		"tokens", r.Tokens,
		"warnings", len(r.Warnings),
		"duration_ms", r.Duration.Milliseconds(),
	)
	return r, nil
}

// build reads, parses and indexes dir into a new snapshot without touching
// the live one.
func (c *Corpus) build(ctx context.Context, dir string) (*Snapshot, error) {
	start := time.Now()
	snap := &Snapshot{
		Dir:    dir,
		byPath: make(map[string]*document.Document),
	}
	report := Report{Warnings: []string{}}

	var files []*document.RawFile
	for file, err := range c.loader.Walk(ctx, dir) {
		if err != nil {
			var fe *loader.FileError
			if !errors.As(err, &fe) || fe.Root {
				return nil, fmt.Errorf("load %s: %w", dir, err)
			}
			report.SkippedFiles++
			report.Warnings = append(report.Warnings, err.Error())
			c.log.Warn("skipping file", "path", fe.Path, "error", err)
			continue
		}
		files = append(files, file)
	}

	docs := c.parseAll(files)

	var sections []*document.Section
	for _, doc := range docs {
		for _, w := range doc.Warnings {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", doc.Path, w))
		}
		for _, s := range doc.Sections {
			s.ID = len(sections)
			sections = append(sections, s)
			for _, w := range s.Warnings {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s:%d: %s", doc.Path, s.Line, w))
			}
		}
		snap.Documents = append(snap.Documents, doc)
		snap.byPath[doc.Path] = doc
	}

	snap.Index = index.Build(sections, func(s *document.Section) string {
		if d, ok := snap.byPath[s.DocPath]; ok {
			return s.HeadingSource(d)
		}
		return s.Heading
	})

	report.LoadedDocuments = len(snap.Documents)
	report.Sections = len(sections)
	report.Tokens = snap.Index.Len()
	report.Duration = time.Since(start)
	snap.Report = report
	snap.LoadedAt = time.Now()
	return snap, nil
}

// parseAll parses files with bounded concurrency. The result keeps the
// order of files.
func (c *Corpus) parseAll(files []*document.RawFile) []*document.Document {
	docs := make([]*document.Document, len(files))
	sem := make(chan struct{}, max(c.workers, 1))
	var wg sync.WaitGroup
	for i, f := range files {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			docs[i] = c.parser.Parse(f)
		}()
	}
	wg.Wait()
	return docs
}

// Query returns ranked sections for text. An unloaded corpus or a query with
// no tokens yields an empty result.
func (c *Corpus) Query(text string, mode index.Mode, limit int) []Result {
	start := time.Now()
	snap := c.current.Load()
	if snap == nil {
		return []Result{}
	}

	hits := snap.Index.Search(text, mode, limit)
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		s := h.Section
		results = append(results, Result{
			ID:         s.ID,
			Heading:    s.Heading,
			Path:       s.DocPath,
			Score:      h.Score,
			Coverage:   h.Coverage,
			Line:       s.Line,
			Breadcrumb: s.Breadcrumb,
			Malformed:  s.Malformed,
			Languages:  s.Languages(),
		})
	}
	c.metrics.ObserveQuery(string(mode), time.Since(start), len(results))
	return results
}

// Documents returns the documents of the live snapshot.
func (c *Corpus) Documents() []*document.Document {
	if s := c.current.Load(); s != nil {
		return s.Documents
	}
	return nil
}

// Section looks up a section and its document in the live snapshot.
func (c *Corpus) Section(id int) (*document.Section, *document.Document, bool) {
	snap := c.current.Load()
	if snap == nil {
		return nil, nil, false
	}
	s, ok := snap.Index.Section(id)
	if !ok {
		return nil, nil, false
	}
	d, ok := snap.Document(s.DocPath)
	return s, d, ok
}
