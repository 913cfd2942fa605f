package ignore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"golang.org/x/text/unicode/norm"
)

// DefaultFileName is the reserved name of ignore files.
const DefaultFileName = ".clang-format-ignore"

// ErrNoParent is returned for paths whose parent directory cannot be derived.
var ErrNoParent = errors.New("ignore: path has no parent directory")

// Resolver checks paths against layered ignore files.
type Resolver struct {
	fileName   string
	skipHidden bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFileName overrides the ignore file name.
func WithFileName(name string) Option {
	return func(r *Resolver) {
		if strings.TrimSpace(name) != "" {
			r.fileName = name
		}
	}
}

// WithSkipHidden makes dot-prefixed entries invisible to the walk, which
// means hidden files are always reported as ignored.
func WithSkipHidden(skip bool) Option {
	return func(r *Resolver) {
		r.skipHidden = skip
	}
}

// New returns a Resolver using DefaultFileName unless overridden.
func New(opts ...Option) *Resolver {
	r := &Resolver{fileName: DefaultFileName}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FileName returns the ignore file name the resolver looks for.
func (r *Resolver) FileName() string {
	return r.fileName
}

// IsIgnored reports whether path is excluded from formatting.
//
// The path's parent directory is walked one level deep with the collected
// ignore rules applied; the path is eligible only when the walk yields it.
// A path that does not exist is therefore reported as ignored. Failing to
// resolve or read the parent directory, or failing to read an ignore file
// that exists, is an error: the answer is never guessed.
func (r *Resolver) IsIgnored(path string) (bool, error) {
	dir, name, err := splitParent(path)
	if err != nil {
		return false, err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, fmt.Errorf("ignore: resolve parent of %q: %w", path, err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return false, fmt.Errorf("ignore: inspect parent of %q: %w", path, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("ignore: parent of %q is not a directory", path)
	}

	matcher, err := r.loadMatcher(absDir)
	if err != nil {
		return false, err
	}

	found, err := r.walk(absDir, norm.NFC.String(name), matcher)
	if err != nil {
		return false, err
	}
	return !found, nil
}

// walk reports whether target is among the entries yielded by a walk of dir
// bounded to its immediate entries.
func (r *Resolver) walk(dir, target string, matcher gitignore.Matcher) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("ignore: walk %s: %w", dir, err)
	}

	base := components(dir)
	for _, entry := range entries {
		name := norm.NFC.String(entry.Name())
		if r.excluded(base, name, entry.IsDir(), matcher) {
			continue
		}
		if name == target {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) excluded(base []string, name string, isDir bool, matcher gitignore.Matcher) bool {
	if r.skipHidden && strings.HasPrefix(name, ".") {
		return true
	}
	candidate := make([]string, 0, len(base)+1)
	candidate = append(candidate, base...)
	candidate = append(candidate, name)
	return matcher.Match(candidate, isDir)
}

// splitParent derives the directory to walk and the entry name to look for.
func splitParent(path string) (dir, name string, err error) {
	if strings.TrimSpace(path) == "" {
		return "", "", ErrNoParent
	}
	clean := filepath.Clean(path)
	name = filepath.Base(clean)
	dir = filepath.Dir(clean)
	if name == "." || name == ".." || name == string(filepath.Separator) || dir == clean {
		return "", "", fmt.Errorf("%w: %q", ErrNoParent, path)
	}
	return dir, name, nil
}

// components splits a slash or OS-separated path into its non-empty elements.
func components(p string) []string {
	p = filepath.ToSlash(p)
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		out = append(out, norm.NFC.String(part))
	}
	return out
}
