package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/qaindex/internal/index"
	"github.com/dgallion1/qaindex/internal/loader"
	"github.com/dgallion1/qaindex/internal/metrics"
	"github.com/dgallion1/qaindex/internal/parser"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func newCorpus(m *metrics.Collector) *Corpus {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(parser.NewMarkdownParser(0), loader.New(nil, 0), log, m)
}

const useEffectDoc = "# React\n\n### What is useEffect?\n\n" +
	"useEffect lets you perform side effects in function components.\n\n" +
	"```javascript\nuseEffect(() => {\n  document.title = `Clicked ${count} times`;\n});\n```\n"

const mongoDoc = "### What is MongoDB?\n\nMongoDB is a NoSQL document database.\n"

func TestCorpus_EndToEnd(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.md": useEffectDoc,
		"b.md": mongoDoc,
	})
	c := newCorpus(nil)

	report, err := c.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.LoadedDocuments)
	assert.Equal(t, 0, report.SkippedFiles)
	assert.Equal(t, 3, report.Sections)
	assert.Empty(t, report.Warnings)

	results := c.Query("side effects", index.ModeAny, 0)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "What is useEffect?", r.Heading)
	assert.Equal(t, "a.md", r.Path)
	assert.Equal(t, 2, r.Score)
	assert.Equal(t, 1.0, r.Coverage)
	assert.Equal(t, []string{"React"}, r.Breadcrumb)
	assert.Equal(t, []string{"javascript"}, r.Languages)

	for _, res := range c.Query("side effects", index.ModeAll, 0) {
		assert.NotEqual(t, "b.md", res.Path)
	}

	s, d, ok := c.Section(r.ID)
	require.True(t, ok)
	assert.Equal(t, "a.md", d.Path)
	require.Len(t, s.CodeBlocks, 1)
	assert.Equal(t, "javascript", s.CodeBlocks[0].Lang)
}

func TestCorpus_EmptyQuery(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.md": useEffectDoc})
	c := newCorpus(nil)
	_, err := c.Load(context.Background(), dir)
	require.NoError(t, err)

	results := c.Query("", index.ModeAny, 0)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestCorpus_StateMachine(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.md": mongoDoc})
	c := newCorpus(nil)
	ctx := context.Background()

	assert.Equal(t, StateUnloaded, c.State())
	assert.Empty(t, c.Query("mongodb", index.ModeAny, 0))

	_, err := c.Reload(ctx, dir)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Equal(t, StateUnloaded, c.State())

	_, err = c.Load(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, c.State())
	assert.Equal(t, dir, c.Dir())

	_, err = c.Load(ctx, dir)
	assert.ErrorIs(t, err, ErrAlreadyLoaded)

	_, err = c.Reload(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, c.State())
}

func TestCorpus_SkippedFilesAreWarnings(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"good.md":   mongoDoc,
		"binary.md": "# x\x00\x01",
		"broken.md": "## Broken\n\n```ts\nconst x = 1\n",
	})
	c := newCorpus(nil)

	report, err := c.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.LoadedDocuments)
	assert.Equal(t, 1, report.SkippedFiles)
	require.Len(t, report.Warnings, 2)
	assert.Contains(t, report.Warnings[0], "binary.md")
	assert.Contains(t, report.Warnings[0], "decode error")
	assert.Contains(t, report.Warnings[1], "broken.md:1: unterminated code fence")

	results := c.Query("mongodb", index.ModeAny, 0)
	require.Len(t, results, 1)
}

func TestCorpus_MissingRootLeavesStateUntouched(t *testing.T) {
	c := newCorpus(nil)
	ctx := context.Background()

	_, err := c.Load(ctx, filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, loader.ErrIO)
	assert.Equal(t, StateUnloaded, c.State())

	dir := writeCorpus(t, map[string]string{"a.md": mongoDoc})
	_, err = c.Load(ctx, dir)
	require.NoError(t, err)

	_, err = c.Reload(ctx, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, dir, c.Dir())
	assert.Len(t, c.Query("mongodb", index.ModeAny, 0), 1)
}

func TestCorpus_CancelledReloadKeepsSnapshot(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.md": mongoDoc})
	c := newCorpus(nil)
	_, err := c.Load(context.Background(), dir)
	require.NoError(t, err)
	before := c.Snapshot()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Reload(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
	assert.Same(t, before, c.Snapshot())
}

// vocabularyDoc builds n sections that all contain word and nothing else
// from the other vocabulary.
func vocabularyDoc(word string, n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "## %s question %d\n\nAnswer about %s.\n\n", word, i, word)
	}
	return b.String()
}

func TestCorpus_ReloadIsAtomic(t *testing.T) {
	dirA := writeCorpus(t, map[string]string{"a.md": vocabularyDoc("alpha", 40)})
	dirB := writeCorpus(t, map[string]string{"b1.md": vocabularyDoc("omega", 15), "b2.md": vocabularyDoc("omega", 10)})

	c := newCorpus(nil)
	ctx := context.Background()
	_, err := c.Load(ctx, dirA)
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				results := c.Query("alpha omega", index.ModeAny, 0)
				var alpha, omega int
				for _, r := range results {
					if strings.HasPrefix(r.Heading, "alpha") {
						alpha++
					} else {
						omega++
					}
				}
				mixed := alpha > 0 && omega > 0
				partial := !(alpha == 40 && omega == 0) && !(omega == 25 && alpha == 0)
				if mixed || partial {
					select {
					case errs <- fmt.Sprintf("observed alpha=%d omega=%d", alpha, omega):
					default:
					}
					return
				}
			}
		}()
	}

	for i := range 30 {
		dir := dirB
		if i%2 == 1 {
			dir = dirA
		}
		_, err := c.Reload(ctx, dir)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}

	// Last reload (i=29) was dirA.
	results := c.Query("omega", index.ModeAny, 0)
	assert.Empty(t, results)
	assert.Len(t, c.Query("alpha", index.ModeAny, 0), 40)
}

func TestCorpus_RecordsMetrics(t *testing.T) {
	m := metrics.NewCollector("qaindex", time.Hour)
	dir := writeCorpus(t, map[string]string{"a.md": useEffectDoc})
	c := newCorpus(m)
	_, err := c.Load(context.Background(), dir)
	require.NoError(t, err)

	c.Query("useeffect", index.ModeAny, 0)
	assert.Equal(t, 1, m.QueryStats.Snapshot().Count)
}

func TestCorpus_ParseWorkersKeepDocumentOrder(t *testing.T) {
	files := make(map[string]string)
	for i := range 20 {
		files[fmt.Sprintf("doc%02d.md", i)] = fmt.Sprintf("## Question %d\n\nanswer\n", i)
	}
	dir := writeCorpus(t, files)

	serial := newCorpus(nil)
	serial.SetParseWorkers(1)
	_, err := serial.Load(context.Background(), dir)
	require.NoError(t, err)

	parallel := newCorpus(nil)
	parallel.SetParseWorkers(8)
	_, err = parallel.Load(context.Background(), dir)
	require.NoError(t, err)

	want := serial.Query("answer", index.ModeAny, 0)
	got := parallel.Query("answer", index.ModeAny, 0)
	require.Len(t, got, 20)
	assert.Equal(t, want, got)
	for i, r := range got {
		assert.Equal(t, i, r.ID)
		assert.Equal(t, fmt.Sprintf("doc%02d.md", i), r.Path)
	}
}
