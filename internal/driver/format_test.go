package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"clangfmt/internal/cache"
	"clangfmt/internal/driver"
	"clangfmt/internal/ffi"
	"clangfmt/internal/ffi/ffitest"
	"clangfmt/internal/format"
	"clangfmt/internal/ignore"
	"clangfmt/internal/trace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func newService(t *testing.T, eng format.Engine) *format.Service {
	t.Helper()
	svc, err := format.New(ignore.New(), eng)
	if err != nil {
		t.Fatalf("format.New: %v", err)
	}
	return svc
}

func byPath(results []driver.Result) map[string]driver.Result {
	out := make(map[string]driver.Result, len(results))
	for _, r := range results {
		out[filepath.Base(r.Path)] = r
	}
	return out
}

type recordingSink struct {
	mu     sync.Mutex
	events []driver.Event
}

func (s *recordingSink) OnEvent(evt driver.Event) {
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.c"), "")
	writeFile(t, filepath.Join(dir, "sub", "b.H"), "")
	writeFile(t, filepath.Join(dir, "sub", "notes.md"), "")
	writeFile(t, filepath.Join(dir, ".git", "hooks.c"), "")
	writeFile(t, filepath.Join(dir, "Makefile"), "")

	files, err := driver.CollectFiles(context.Background(),
		[]string{dir, filepath.Join(dir, "a.c"), filepath.Join(dir, "Makefile")},
		[]string{".c", ".h"})
	if err != nil {
		t.Fatalf("CollectFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "Makefile"),
		filepath.Join(dir, "a.c"),
		filepath.Join(dir, "sub", "b.H"),
	}
	if strings.Join(files, "\n") != strings.Join(want, "\n") {
		t.Fatalf("CollectFiles = %v, want %v", files, want)
	}

	if _, err := driver.CollectFiles(context.Background(), []string{filepath.Join(dir, "missing")}, nil); err == nil {
		t.Fatalf("expected error for a missing path")
	}
}

func TestFormatPaths_WritesChangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".clang-format-ignore"), "skip.c\n")
	writeFile(t, filepath.Join(dir, "messy.c"), "int   x;\n")
	writeFile(t, filepath.Join(dir, "clean.c"), "int x;\n")
	writeFile(t, filepath.Join(dir, "skip.c"), "int   y;\n")
	if err := os.Chmod(filepath.Join(dir, "messy.c"), 0o600); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	results, err := driver.FormatPaths(context.Background(), newService(t, ffitest.Squeeze()), []string{dir}, driver.Options{})
	if err != nil {
		t.Fatalf("FormatPaths: %v", err)
	}
	got := byPath(results)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if r := got["messy.c"]; r.Status != driver.StatusChanged || r.Err != nil {
		t.Fatalf("messy.c: %+v", r)
	}
	if r := got["clean.c"]; r.Status != driver.StatusUnchanged {
		t.Fatalf("clean.c: %+v", r)
	}
	if r := got["skip.c"]; r.Status != driver.StatusIgnored {
		t.Fatalf("skip.c: %+v", r)
	}

	if s := readFile(t, filepath.Join(dir, "messy.c")); s != "int x;\n" {
		t.Fatalf("messy.c not rewritten: %q", s)
	}
	if s := readFile(t, filepath.Join(dir, "skip.c")); s != "int   y;\n" {
		t.Fatalf("ignored file was modified: %q", s)
	}
	info, err := os.Stat(filepath.Join(dir, "messy.c"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode not preserved: %v", info.Mode().Perm())
	}
}

func TestFormatPaths_CheckAndStdoutLeaveFiles(t *testing.T) {
	for _, opts := range []driver.Options{{Check: true}, {Stdout: true}} {
		dir := t.TempDir()
		path := filepath.Join(dir, "a.c")
		writeFile(t, path, "int   x;\n")

		results, err := driver.FormatPaths(context.Background(), newService(t, ffitest.Squeeze()), []string{path}, opts)
		if err != nil {
			t.Fatalf("FormatPaths: %v", err)
		}
		if len(results) != 1 || !results[0].Changed() {
			t.Fatalf("expected one changed result, got %+v", results)
		}
		if results[0].Formatted != "int x;\n" || results[0].Original != "int   x;\n" {
			t.Fatalf("unexpected contents %+v", results[0])
		}
		if s := readFile(t, path); s != "int   x;\n" {
			t.Fatalf("file modified with %+v: %q", opts, s)
		}
	}
}

func TestFormatPaths_StdoutKeepsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	writeFile(t, path, "int x;\n")

	results, err := driver.FormatPaths(context.Background(), newService(t, ffi.Echo()), []string{path}, driver.Options{Stdout: true})
	if err != nil {
		t.Fatalf("FormatPaths: %v", err)
	}
	if results[0].Status != driver.StatusUnchanged || results[0].Formatted != "int x;\n" {
		t.Fatalf("unexpected result %+v", results[0])
	}
}

func TestFormatPaths_FailuresAreCollected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.c"), "int x;\n")
	writeFile(t, filepath.Join(dir, "b.c"), "int y;\n")

	results, err := driver.FormatPaths(context.Background(), newService(t, ffitest.Failing("expected ';'")), []string{dir}, driver.Options{})
	if err != nil {
		t.Fatalf("FormatPaths: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != driver.StatusFailed {
			t.Fatalf("%s: status %v, want failed", r.Path, r.Status)
		}
		var fe *driver.FileError
		if !errors.As(r.Err, &fe) || fe.Op != "format" {
			t.Fatalf("%s: err = %v, want format *FileError", r.Path, r.Err)
		}
		var engErr *ffi.EngineError
		if !errors.As(r.Err, &engErr) || engErr.Message != "expected ';'" {
			t.Fatalf("%s: err does not carry the engine message: %v", r.Path, r.Err)
		}
	}
}

func TestFormatPaths_EncodingFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	writeFile(t, path, "int\x00 x;\n")

	results, err := driver.FormatPaths(context.Background(), newService(t, ffi.Echo()), []string{path}, driver.Options{})
	if err != nil {
		t.Fatalf("FormatPaths: %v", err)
	}
	var encErr *ffi.EncodingError
	if results[0].Status != driver.StatusFailed || !errors.As(results[0].Err, &encErr) {
		t.Fatalf("unexpected result %+v", results[0])
	}
	if !strings.Contains(results[0].Err.Error(), "invalid input") {
		t.Fatalf("error text = %q", results[0].Err.Error())
	}
}

func TestFormatPaths_NoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "")
	_, err := driver.FormatPaths(context.Background(), newService(t, ffi.Echo()), []string{dir}, driver.Options{})
	if !errors.Is(err, driver.ErrNoFiles) {
		t.Fatalf("err = %v, want ErrNoFiles", err)
	}
}

func TestFormatPaths_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.c"), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := driver.FormatPaths(ctx, newService(t, ffi.Echo()), []string{dir}, driver.Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestFormatPaths_CacheSkipsEngine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.c"), "int x;\n")
	writeFile(t, filepath.Join(dir, "b.c"), "int   y;\n")

	c, err := cache.OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("cache.OpenAt: %v", err)
	}
	svc := newService(t, ffitest.CountingEcho())
	opts := driver.Options{Cache: c}

	ffitest.Reset()
	if _, err := driver.FormatPaths(context.Background(), svc, []string{dir}, opts); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if n := ffitest.Calls(); n != 2 {
		t.Fatalf("first run made %d engine calls, want 2", n)
	}

	ffitest.Reset()
	results, err := driver.FormatPaths(context.Background(), svc, []string{dir}, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n := ffitest.Calls(); n != 0 {
		t.Fatalf("second run made %d engine calls, want 0", n)
	}
	for _, r := range results {
		if !r.Cached || r.Status != driver.StatusUnchanged {
			t.Fatalf("%s: %+v, want cached unchanged", r.Path, r)
		}
	}

	writeFile(t, filepath.Join(dir, "a.c"), "int z;\n")
	ffitest.Reset()
	if _, err := driver.FormatPaths(context.Background(), svc, []string{dir}, opts); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if n := ffitest.Calls(); n != 1 {
		t.Fatalf("edited file should be formatted again, got %d calls", n)
	}
}

// styleEngine upper-cases code when the .clang-format next to the file
// says "upper".
type styleEngine struct {
	calls atomic.Int64
}

func (e *styleEngine) Name() string     { return "style" }
func (e *styleEngine) Concurrent() bool { return true }

func (e *styleEngine) Format(fileName, code string) (string, error) {
	e.calls.Add(1)
	style, err := os.ReadFile(filepath.Join(filepath.Dir(fileName), ".clang-format"))
	if err == nil && strings.TrimSpace(string(style)) == "upper" {
		return strings.ToUpper(code), nil
	}
	return code, nil
}

func TestFormatPaths_CacheFollowsStyleAndIgnoreChanges(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.c")
	writeFile(t, file, "int x;\n")
	writeFile(t, filepath.Join(dir, ".clang-format"), "lower\n")

	c, err := cache.OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("cache.OpenAt: %v", err)
	}
	eng := &styleEngine{}
	svc := newService(t, eng)
	ring := trace.NewRingTracer(64, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)
	opts := driver.Options{Check: true, Cache: c}

	runOnce := func(step string) driver.Result {
		t.Helper()
		results, err := driver.FormatPaths(ctx, svc, []string{file}, opts)
		if err != nil || len(results) != 1 {
			t.Fatalf("%s: %v, %d results", step, err, len(results))
		}
		return results[0]
	}

	if r := runOnce("first run"); r.Status != driver.StatusUnchanged || r.Cached || eng.calls.Load() != 1 {
		t.Fatalf("first run: %+v after %d calls", r, eng.calls.Load())
	}
	if r := runOnce("second run"); r.Status != driver.StatusUnchanged || !r.Cached || eng.calls.Load() != 1 {
		t.Fatalf("second run: %+v after %d calls", r, eng.calls.Load())
	}
	hit := false
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindPoint && ev.Name == "cache hit" {
			hit = true
		}
	}
	if !hit {
		t.Fatalf("no cache hit event traced")
	}

	writeFile(t, filepath.Join(dir, ".clang-format"), "upper\n")
	r := runOnce("after style change")
	if r.Cached || r.Status != driver.StatusChanged || r.Formatted != "INT X;\n" {
		t.Fatalf("after style change: %+v", r)
	}
	if n := eng.calls.Load(); n != 2 {
		t.Fatalf("engine called %d times, want 2", n)
	}

	writeFile(t, filepath.Join(dir, ".clang-format"), "lower\n")
	writeFile(t, filepath.Join(dir, ".clang-format-ignore"), "a.c\n")
	if r := runOnce("after ignoring"); r.Status != driver.StatusIgnored || r.Cached {
		t.Fatalf("after ignoring: %+v", r)
	}
	if n := eng.calls.Load(); n != 2 {
		t.Fatalf("ignored file reached the engine, %d calls", n)
	}
}

func TestFormatPaths_Progress(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".clang-format-ignore"), "b.c\n")
	writeFile(t, filepath.Join(dir, "a.c"), "")
	writeFile(t, filepath.Join(dir, "b.c"), "")

	sink := &recordingSink{}
	_, err := driver.FormatPaths(context.Background(), newService(t, ffi.Echo()), []string{dir}, driver.Options{Progress: sink})
	if err != nil {
		t.Fatalf("FormatPaths: %v", err)
	}

	final := make(map[string]driver.Progress)
	queued := 0
	for _, evt := range sink.events {
		if evt.File == "" {
			continue
		}
		if evt.Progress == driver.ProgressQueued {
			queued++
		}
		final[filepath.Base(evt.File)] = evt.Progress
	}
	if queued != 2 {
		t.Fatalf("expected 2 queued events, got %d", queued)
	}
	if final["a.c"] != driver.ProgressDone || final["b.c"] != driver.ProgressSkipped {
		t.Fatalf("unexpected final progress %v", final)
	}
}

func TestFormatPaths_NonConcurrentEngineRunsSerially(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.c", "b.c", "c.c", "d.c"} {
		writeFile(t, filepath.Join(dir, name), "int x;\n")
	}
	eng := &serialCheck{}
	results, err := driver.FormatPaths(context.Background(), newService(t, eng), []string{dir}, driver.Options{Jobs: 8})
	if err != nil {
		t.Fatalf("FormatPaths: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if eng.overlap {
		t.Fatalf("engine without Concurrent was called in parallel")
	}
}

// serialCheck flags overlapping calls. It has no Concurrent method.
type serialCheck struct {
	mu      sync.Mutex
	busy    bool
	overlap bool
}

func (e *serialCheck) Format(_, code string) (string, error) {
	e.mu.Lock()
	if e.busy {
		e.overlap = true
	}
	e.busy = true
	e.mu.Unlock()

	for i := 0; i < 1000; i++ {
		_ = strings.Repeat("x", 16)
	}

	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
	return code, nil
}

func TestFormatStdin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.c")
	writeFile(t, path, "on disk")

	out, err := driver.FormatStdin(context.Background(), newService(t, ffitest.Squeeze()), path, "int   x;")
	if err != nil {
		t.Fatalf("FormatStdin: %v", err)
	}
	if !out.OK() || out.Formatted != "int x;" {
		t.Fatalf("unexpected outcome %+v", out)
	}

	out, err = driver.FormatStdin(context.Background(), newService(t, ffi.Echo()), filepath.Join(dir, "absent.c"), "x")
	if err != nil || !out.Ignored() {
		t.Fatalf("absent assumed file should be ignored, got %+v, %v", out, err)
	}

	if _, err := driver.FormatStdin(context.Background(), newService(t, ffi.Echo()), "", "x"); err == nil {
		t.Fatalf("expected an error without a file name")
	}
}

func TestStatus_String(t *testing.T) {
	for s, want := range map[driver.Status]string{
		driver.StatusIgnored:   "ignored",
		driver.StatusUnchanged: "unchanged",
		driver.StatusChanged:   "changed",
		driver.StatusFailed:    "failed",
	} {
		if s.String() != want {
			t.Fatalf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
