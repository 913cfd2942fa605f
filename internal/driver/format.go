package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"clangfmt/internal/cache"
	"clangfmt/internal/format"
	"clangfmt/internal/project"
	"clangfmt/internal/trace"
)

// Formatter is the per-file formatting step. *format.Service implements it.
type Formatter interface {
	Format(ctx context.Context, path, content string) (format.Outcome, error)
	IsIgnored(path string) (bool, error)
	EngineName() string
	Concurrent() bool
}

// Status summarises what happened to one file.
type Status uint8

const (
	StatusIgnored   Status = iota // excluded by an ignore file
	StatusUnchanged               // already formatted
	StatusChanged                 // formatting changed the content
	StatusFailed                  // see Result.Err
)

// String returns the status word used in reports.
func (s Status) String() string {
	switch s {
	case StatusIgnored:
		return "ignored"
	case StatusUnchanged:
		return "unchanged"
	case StatusChanged:
		return "changed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures FormatPaths.
type Options struct {
	// Check reports changes without writing files.
	Check bool
	// Stdout keeps formatted content in the results instead of writing files.
	Stdout bool
	// Jobs bounds the worker count; 0 means GOMAXPROCS. Engines that are not
	// concurrent always run with one worker.
	Jobs int
	// Extensions selects files when walking directories;
	// nil means project.DefaultExtensions.
	Extensions []string
	// Cache skips the engine for content it has seen formatted. May be nil.
	Cache *cache.Disk
	// Progress receives per-file events. May be nil.
	Progress ProgressSink
}

// Result captures the result of formatting a single file.
type Result struct {
	Path      string
	Status    Status
	Cached    bool
	Original  string
	Formatted string // set for changed files, and for every success with Stdout
	Err       error  // *FileError when Status is StatusFailed
}

// Changed reports whether formatting changed (or would change) the file.
func (r Result) Changed() bool { return r.Status == StatusChanged }

// FileError is a failure confined to one file.
type FileError struct {
	Path string
	Op   string // "read", "check", "format", "write"
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ErrNoFiles is returned when the given paths contain nothing to format.
var ErrNoFiles = errors.New("format: no source files found")

// FormatPaths formats the given files and directories (directories are
// walked recursively for files with a known extension). Per-file failures
// are reported in the results and do not stop the run; the returned error
// is reserved for collection failures and cancellation.
func FormatPaths(ctx context.Context, f Formatter, paths []string, opts Options) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracer := trace.FromContext(ctx)
	runSpan := trace.Begin(tracer, trace.ScopeDriver, "fmt", trace.ParentID(ctx))
	ctx = trace.WithSpan(ctx, runSpan)

	exts := opts.Extensions
	if exts == nil {
		exts = project.DefaultExtensions
	}
	notify(opts.Progress, Event{Stage: StageCollect, Progress: ProgressWorking})
	files, err := CollectFiles(ctx, paths, exts)
	if err != nil {
		runSpan.End("collect failed")
		return nil, err
	}
	if len(files) == 0 {
		runSpan.End("no files")
		return nil, ErrNoFiles
	}
	notify(opts.Progress, Event{Stage: StageCollect, Progress: ProgressDone})
	for _, path := range files {
		notify(opts.Progress, Event{File: path, Stage: StageRead, Progress: ProgressQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if !f.Concurrent() {
		jobs = 1
	}
	runSpan.WithExtra("files", strconv.Itoa(len(files))).WithExtra("jobs", strconv.Itoa(jobs))

	// indices are unique per goroutine, no mutex needed
	results := make([]Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = formatOne(gctx, f, path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		runSpan.End("cancelled")
		return results, err
	}

	runSpan.End(summarize(results))
	return results, nil
}

func formatOne(ctx context.Context, f Formatter, path string, opts Options) Result {
	started := time.Now()
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "file", trace.ParentID(ctx))
	span.WithExtra("path", path)
	ctx = trace.WithSpan(ctx, span)

	res := formatFile(ctx, f, path, opts)

	evt := Event{File: path, Stage: StageFormat, Progress: ProgressDone, Err: res.Err, Elapsed: time.Since(started)}
	switch res.Status {
	case StatusFailed:
		evt.Progress = ProgressError
		trace.Failure(trace.FromContext(ctx), trace.ScopeFile, "file", res.Err.Error(), span.ID())
	case StatusIgnored:
		evt.Progress = ProgressSkipped
	}
	notify(opts.Progress, evt)

	detail := res.Status.String()
	if res.Cached {
		detail += " (cached)"
	}
	span.End(detail)
	return res
}

func formatFile(ctx context.Context, f Formatter, path string, opts Options) Result {
	res := Result{Path: path}
	fail := func(op string, err error) Result {
		res.Status = StatusFailed
		res.Err = &FileError{Path: path, Op: op, Err: err}
		return res
	}

	notify(opts.Progress, Event{File: path, Stage: StageRead, Progress: ProgressWorking})
	data, err := os.ReadFile(path)
	if err != nil {
		return fail("read", err)
	}
	content := string(data)
	res.Original = content

	var ck *cacheKey
	if opts.Cache != nil {
		// ignore rules can change without the content changing
		ignored, err := f.IsIgnored(path)
		if err != nil {
			return fail("check", err)
		}
		if ignored {
			res.Status = StatusIgnored
			if opts.Stdout {
				res.Formatted = content
			}
			return res
		}
		ck = newCacheKey(f.EngineName(), path)
		if ck != nil && opts.Cache.Has(ck.forContent(content)) {
			trace.Point(trace.FromContext(ctx), trace.ScopeFile, "cache hit", path, trace.ParentID(ctx))
			res.Status = StatusUnchanged
			res.Cached = true
			if opts.Stdout {
				res.Formatted = content
			}
			return res
		}
	}

	notify(opts.Progress, Event{File: path, Stage: StageFormat, Progress: ProgressWorking})
	out, err := f.Format(ctx, path, content)
	if err != nil {
		return fail("check", err)
	}

	switch out.Kind {
	case format.KindIgnored:
		res.Status = StatusIgnored
		if opts.Stdout {
			res.Formatted = content
		}
		return res
	case format.KindError:
		return fail("format", out.Err())
	}

	if out.Formatted == content {
		res.Status = StatusUnchanged
		if opts.Stdout {
			res.Formatted = content
		}
		remember(opts.Cache, ck, content)
		return res
	}

	res.Status = StatusChanged
	res.Formatted = out.Formatted
	if opts.Check || opts.Stdout {
		return res
	}

	notify(opts.Progress, Event{File: path, Stage: StageWrite, Progress: ProgressWorking})
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, []byte(out.Formatted), mode.Perm()); err != nil {
		return fail("write", err)
	}
	remember(opts.Cache, ck, out.Formatted)
	return res
}

// cacheKey holds the per-file parts of a cache key.
type cacheKey struct {
	engine  string
	style   string
	absPath string
}

// newCacheKey returns nil when the path cannot be made absolute or a style
// file cannot be read; such a file is formatted without the cache.
func newCacheKey(engine, path string) *cacheKey {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	style, err := cache.StyleFingerprint(absPath)
	if err != nil {
		return nil
	}
	return &cacheKey{engine: engine, style: style, absPath: absPath}
}

func (k *cacheKey) forContent(content string) cache.Digest {
	return cache.KeyFor(k.engine, k.style, k.absPath, content)
}

// remember records formatted content. Cache write failures only cost a
// future engine call, so they are dropped.
func remember(c *cache.Disk, k *cacheKey, content string) {
	if c == nil || k == nil {
		return
	}
	_ = c.Put(k.forContent(content), &cache.Entry{
		Engine: k.engine,
		Path:   k.absPath,
		Size:   len(content),
	})
}

func summarize(results []Result) string {
	var counts [StatusFailed + 1]int
	for _, r := range results {
		if r.Status <= StatusFailed {
			counts[r.Status]++
		}
	}
	return fmt.Sprintf("changed=%d unchanged=%d ignored=%d failed=%d",
		counts[StatusChanged], counts[StatusUnchanged], counts[StatusIgnored], counts[StatusFailed])
}

// FormatStdin formats content as if it were the file at assumedPath. The
// path decides eligibility and is handed to the engine; it is never read.
func FormatStdin(ctx context.Context, f Formatter, assumedPath, content string) (format.Outcome, error) {
	if strings.TrimSpace(assumedPath) == "" {
		return format.Outcome{}, errors.New("format: stdin needs a file name to format as")
	}
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "stdin", trace.ParentID(ctx))
	span.WithExtra("path", assumedPath)
	out, err := f.Format(trace.WithSpan(ctx, span), assumedPath, content)
	if err != nil {
		span.End("failed")
		return format.Outcome{}, err
	}
	span.End(out.Kind.String())
	return out, nil
}

// skipDirs are never descended into when walking directories.
var skipDirs = map[string]struct{}{
	".git": {},
	".hg":  {},
	".svn": {},
}

// CollectFiles expands paths into a sorted, de-duplicated file list.
// Files named explicitly are kept whatever their extension; directories
// contribute files whose extension is in exts.
func CollectFiles(ctx context.Context, paths []string, exts []string) ([]string, error) {
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = struct{}{}
	}

	var files []string
	seen := make(map[string]struct{})
	addFile := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			addFile(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if _, skip := skipDirs[d.Name()]; skip && path != p {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if _, ok := extSet[strings.ToLower(filepath.Ext(path))]; ok {
				addFile(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}
