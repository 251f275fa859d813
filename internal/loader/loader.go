// Package loader reads Markdown files from a corpus directory.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/qaindex/internal/document"
)

var (
	// ErrIO marks a file or directory that could not be read.
	ErrIO = errors.New("io error")
	// ErrDecode marks a file that is not valid UTF-8 text.
	ErrDecode = errors.New("decode error")
)

// FileError reports a file the loader skipped.
type FileError struct {
	Path string
	Kind error // ErrIO or ErrDecode
	Err  error
	Root bool // The corpus root itself failed; nothing was loaded.
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// DefaultExtensions lists the file extensions loaded when none are configured.
var DefaultExtensions = []string{".md", ".markdown"}

// DefaultMaxFileBytes caps the size of a single corpus file.
const DefaultMaxFileBytes = 10 << 20

// Loader walks a corpus directory and yields decoded files.
type Loader struct {
	Extensions   []string
	MaxFileBytes int64
}

// New returns a Loader for the given extensions and size cap. Zero values
// fall back to the defaults.
func New(extensions []string, maxFileBytes int64) *Loader {
	l := &Loader{MaxFileBytes: maxFileBytes}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		l.Extensions = append(l.Extensions, ext)
	}
	if len(l.Extensions) == 0 {
		l.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if l.MaxFileBytes <= 0 {
		l.MaxFileBytes = DefaultMaxFileBytes
	}
	return l
}

// Matches reports whether filename has one of the loader's extensions.
func (l *Loader) Matches(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range l.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Walk returns a lazy sequence over the matching files under dir, in lexical
// order. Files that cannot be read or decoded are yielded as *FileError and
// the walk continues. The sequence can be ranged over again to re-read the
// directory.
func (l *Loader) Walk(ctx context.Context, dir string) iter.Seq2[*document.RawFile, error] {
	return func(yield func(*document.RawFile, error) bool) {
		info, err := os.Stat(dir)
		if err != nil {
			yield(nil, &FileError{Path: dir, Kind: ErrIO, Err: err, Root: true})
			return
		}
		if !info.IsDir() {
			yield(nil, &FileError{Path: dir, Kind: ErrIO, Err: errors.New("not a directory"), Root: true})
			return
		}

		stopped := false
		walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, werr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if werr != nil {
				if path == dir {
					return werr
				}
				if !yield(nil, &FileError{Path: relPath(dir, path), Kind: ErrIO, Err: werr}) {
					stopped = true
					return fs.SkipAll
				}
				return nil
			}
			if d.IsDir() {
				if path != dir && strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
				return nil
			}
			if !l.Matches(d.Name()) {
				return nil
			}

			rel := relPath(dir, path)
			text, err := l.readFile(path)
			var ok bool
			if err != nil {
				ok = yield(nil, withPath(err, rel))
			} else {
				ok = yield(&document.RawFile{Path: rel, Text: text}, nil)
			}
			if !ok {
				stopped = true
				return fs.SkipAll
			}
			return nil
		})
		if stopped || walkErr == nil {
			return
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			yield(nil, ctxErr)
			return
		}
		yield(nil, &FileError{Path: dir, Kind: ErrIO, Err: walkErr, Root: true})
	}
}

func (l *Loader) readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &FileError{Kind: ErrIO, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, l.MaxFileBytes+1))
	if err != nil {
		return "", &FileError{Kind: ErrIO, Err: err}
	}
	if int64(len(data)) > l.MaxFileBytes {
		return "", &FileError{Kind: ErrIO, Err: fmt.Errorf("file exceeds max size (%d bytes)", l.MaxFileBytes)}
	}

	text, err := Decode(data)
	if err != nil {
		return "", &FileError{Kind: ErrDecode, Err: err}
	}
	return text, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode validates data as UTF-8 text, strips a leading byte order mark and
// normalizes CRLF line endings.
func Decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data, 0) >= 0 {
		return "", errors.New("binary content (NUL byte)")
	}
	if !utf8.Valid(data) {
		return "", errors.New("invalid UTF-8")
	}
	text := string(data)
	if strings.Contains(text, "\r") {
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	return text, nil
}

func withPath(err error, path string) error {
	var fe *FileError
	if errors.As(err, &fe) {
		fe.Path = path
		return fe
	}
	return &FileError{Path: path, Kind: ErrIO, Err: err}
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
