package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/qaindex/internal/document"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func collect(l *Loader, dir string) ([]*document.RawFile, []error) {
	var files []*document.RawFile
	var errs []error
	for f, err := range l.Walk(context.Background(), dir) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, f)
	}
	return files, errs
}

func TestWalk_FiltersByExtensionInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", []byte("# B\n"))
	writeFile(t, dir, "a.md", []byte("# A\n"))
	writeFile(t, dir, "notes.txt", []byte("ignored"))
	writeFile(t, dir, "sub/c.MD", []byte("# C\n"))
	writeFile(t, dir, ".git/d.md", []byte("# hidden\n"))

	files, errs := collect(New(nil, 0), dir)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := []string{"a.md", "b.md", "sub/c.MD"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d", len(want), len(files))
	}
	for i, w := range want {
		if files[i].Path != w {
			t.Errorf("file[%d]: expected %q, got %q", i, w, files[i].Path)
		}
	}
	if files[0].Text != "# A\n" {
		t.Errorf("expected text %q, got %q", "# A\n", files[0].Text)
	}
}

func TestWalk_SkipsUndecodableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.md", []byte("# Good\n"))
	writeFile(t, dir, "binary.md", []byte{'#', ' ', 0x00, 0x01})
	writeFile(t, dir, "latin1.md", []byte{'c', 'a', 'f', 0xE9})

	files, errs := collect(New(nil, 0), dir)
	if len(files) != 1 || files[0].Path != "good.md" {
		t.Fatalf("expected only good.md, got %v", files)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrDecode) {
			t.Errorf("expected ErrDecode, got %v", err)
		}
		var fe *FileError
		if !errors.As(err, &fe) || fe.Path == "" || fe.Root {
			t.Errorf("expected non-root FileError with path, got %#v", err)
		}
	}
}

func TestWalk_OversizedAndBrokenFilesAreIOErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.md", make([]byte, 64))
	if err := os.Symlink(filepath.Join(dir, "missing.md"), filepath.Join(dir, "dangling.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, errs := collect(New(nil, 16), dir)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrIO) {
			t.Errorf("expected ErrIO, got %v", err)
		}
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	_, errs := collect(New(nil, 0), filepath.Join(t.TempDir(), "nope"))
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	var fe *FileError
	if !errors.As(errs[0], &fe) || !fe.Root {
		t.Fatalf("expected root FileError, got %v", errs[0])
	}
	if !errors.Is(errs[0], ErrIO) {
		t.Errorf("expected ErrIO, got %v", errs[0])
	}
}

func TestWalk_Restartable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", []byte("# A\n"))
	l := New(nil, 0)
	seq := l.Walk(context.Background(), dir)

	count := func() int {
		n := 0
		for f, err := range seq {
			if err == nil && f != nil {
				n++
			}
		}
		return n
	}
	if first := count(); first != 1 {
		t.Fatalf("expected 1 file, got %d", first)
	}
	writeFile(t, dir, "b.md", []byte("# B\n"))
	if second := count(); second != 2 {
		t.Errorf("expected 2 files after adding one, got %d", second)
	}
}

func TestWalk_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", []byte("# A\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotCtxErr bool
	for _, err := range New(nil, 0).Walk(ctx, dir) {
		if errors.Is(err, context.Canceled) {
			gotCtxErr = true
		}
	}
	if !gotCtxErr {
		t.Error("expected context.Canceled to be yielded")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    string
		wantErr bool
	}{
		{"plain", []byte("hello"), "hello", false},
		{"bom stripped", []byte("\xEF\xBB\xBFhello"), "hello", false},
		{"crlf normalized", []byte("a\r\nb\r\n"), "a\nb\n", false},
		{"nul byte", []byte("a\x00b"), "", true},
		{"invalid utf8", []byte{0xff, 0xfe}, "", true},
	}
	for _, tt := range tests {
		got, err := Decode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error=%v, got %v", tt.name, tt.wantErr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestNew_NormalizesExtensions(t *testing.T) {
	l := New([]string{"MD", " .txt ", ""}, 0)
	if !l.Matches("a.md") || !l.Matches("b.TXT") {
		t.Errorf("expected md and txt to match, extensions=%v", l.Extensions)
	}
	if l.Matches("c.markdown") {
		t.Error("expected .markdown not to match custom extensions")
	}
	if l.MaxFileBytes != DefaultMaxFileBytes {
		t.Errorf("expected default max bytes, got %d", l.MaxFileBytes)
	}
}
