package ignore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mustIgnored(t *testing.T, r *Resolver, path string) bool {
	t.Helper()
	ignored, err := r.IsIgnored(path)
	if err != nil {
		t.Fatalf("IsIgnored(%q) error: %v", path, err)
	}
	return ignored
}

func TestIsIgnored_NoIgnoreFiles(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "main.cc")
	writeFile(t, src, "int main() {}\n")

	if mustIgnored(t, New(), src) {
		t.Fatalf("expected %s to be eligible", src)
	}
}

func TestIsIgnored_MissingFileIsIgnored(t *testing.T) {
	root := t.TempDir()
	if !mustIgnored(t, New(), filepath.Join(root, "absent.cc")) {
		t.Fatalf("expected a missing file to be reported as ignored")
	}
}

func TestIsIgnored_PatternsInSameDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultFileName), "# generated\n\n*.pb.cc\n")
	writeFile(t, filepath.Join(root, "msg.pb.cc"), "")
	writeFile(t, filepath.Join(root, "msg.cc"), "")

	r := New()
	cases := []struct {
		name string
		want bool
	}{
		{"msg.pb.cc", true},
		{"msg.cc", false},
	}
	for _, tc := range cases {
		got := mustIgnored(t, r, filepath.Join(root, tc.name))
		if got != tc.want {
			t.Fatalf("IsIgnored(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsIgnored_ParentRulesAreRelativeToTheirDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultFileName), "sub/*.c\n/top.c\n")
	writeFile(t, filepath.Join(root, "top.c"), "")
	writeFile(t, filepath.Join(root, "sub", "a.c"), "")
	writeFile(t, filepath.Join(root, "sub", "top.c"), "")
	writeFile(t, filepath.Join(root, "sub", "a.h"), "")
	writeFile(t, filepath.Join(root, "other", "a.c"), "")

	r := New()
	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "top.c"), true},
		{filepath.Join(root, "sub", "a.c"), true},
		{filepath.Join(root, "sub", "top.c"), true},
		{filepath.Join(root, "sub", "a.h"), false},
		{filepath.Join(root, "other", "a.c"), false},
	}
	for _, tc := range cases {
		if got := mustIgnored(t, r, tc.path); got != tc.want {
			t.Fatalf("IsIgnored(%s) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIsIgnored_AnchoredPatternDoesNotMatchDeeper(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultFileName), "/gen.c\n")
	writeFile(t, filepath.Join(root, "nested", "gen.c"), "")

	if mustIgnored(t, New(), filepath.Join(root, "nested", "gen.c")) {
		t.Fatalf("anchored pattern must only match next to its ignore file")
	}
}

func TestIsIgnored_DeeperFileOverridesParent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultFileName), "*.c\n")
	writeFile(t, filepath.Join(root, "sub", DefaultFileName), "!keep.c\n")
	writeFile(t, filepath.Join(root, "sub", "keep.c"), "")
	writeFile(t, filepath.Join(root, "sub", "drop.c"), "")

	r := New()
	if mustIgnored(t, r, filepath.Join(root, "sub", "keep.c")) {
		t.Fatalf("negated pattern in the nearer ignore file should re-include keep.c")
	}
	if !mustIgnored(t, r, filepath.Join(root, "sub", "drop.c")) {
		t.Fatalf("drop.c should still be excluded by the parent rule")
	}
}

func TestIsIgnored_LastPatternWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultFileName), "*.c\n!main.c\n")
	writeFile(t, filepath.Join(root, "main.c"), "")
	writeFile(t, filepath.Join(root, "util.c"), "")

	r := New()
	if mustIgnored(t, r, filepath.Join(root, "main.c")) {
		t.Fatalf("main.c is re-included by a later pattern")
	}
	if !mustIgnored(t, r, filepath.Join(root, "util.c")) {
		t.Fatalf("util.c should be excluded")
	}
}

func TestIsIgnored_DirectoryPatternCoversContents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultFileName), "vendor/\n")
	writeFile(t, filepath.Join(root, "vendor", "lib.c"), "")

	if !mustIgnored(t, New(), filepath.Join(root, "vendor", "lib.c")) {
		t.Fatalf("files under an excluded directory must be ignored")
	}
}

func TestIsIgnored_GitignoreIsNotConsulted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.c\n")
	writeFile(t, filepath.Join(root, ".ignore"), "*.c\n")
	writeFile(t, filepath.Join(root, "main.c"), "")

	if mustIgnored(t, New(), filepath.Join(root, "main.c")) {
		t.Fatalf("version-control ignore files must not affect eligibility")
	}
}

func TestIsIgnored_HiddenFiles(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".config.h")
	writeFile(t, hidden, "")

	if mustIgnored(t, New(), hidden) {
		t.Fatalf("hidden files are traversed by default")
	}
	if !mustIgnored(t, New(WithSkipHidden(true)), hidden) {
		t.Fatalf("WithSkipHidden should hide dotfiles from the walk")
	}
}

func TestIsIgnored_CustomFileName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".fmtignore"), "*.c\n")
	writeFile(t, filepath.Join(root, DefaultFileName), "")
	writeFile(t, filepath.Join(root, "a.c"), "")

	if mustIgnored(t, New(), filepath.Join(root, "a.c")) {
		t.Fatalf("default resolver must not read .fmtignore")
	}
	if !mustIgnored(t, New(WithFileName(".fmtignore")), filepath.Join(root, "a.c")) {
		t.Fatalf("custom ignore file name was not honoured")
	}
}

func TestIsIgnored_RelativePath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultFileName), "skip.c\n")
	writeFile(t, filepath.Join(root, "skip.c"), "")
	writeFile(t, filepath.Join(root, "keep.c"), "")
	t.Chdir(root)

	r := New()
	if !mustIgnored(t, r, "./skip.c") {
		t.Fatalf("./skip.c should be ignored")
	}
	if mustIgnored(t, r, "keep.c") {
		t.Fatalf("keep.c should be eligible")
	}
}

func TestIsIgnored_NoCachingBetweenCalls(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "late.c")
	writeFile(t, src, "")

	r := New()
	if mustIgnored(t, r, src) {
		t.Fatalf("late.c should start eligible")
	}
	writeFile(t, filepath.Join(root, DefaultFileName), "late.c\n")
	if !mustIgnored(t, r, src) {
		t.Fatalf("a newly written ignore file must be picked up on the next call")
	}
}

func TestIsIgnored_Errors(t *testing.T) {
	root := t.TempDir()
	notDir := filepath.Join(root, "file.c")
	writeFile(t, notDir, "")

	r := New()
	cases := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"root", string(filepath.Separator)},
		{"missing parent", filepath.Join(root, "nope", "a.c")},
		{"parent is a file", filepath.Join(notDir, "a.c")},
	}
	for _, tc := range cases {
		if _, err := r.IsIgnored(tc.path); err == nil {
			t.Fatalf("%s: expected an error for %q", tc.name, tc.path)
		}
	}

	if _, err := r.IsIgnored(""); !errors.Is(err, ErrNoParent) {
		t.Fatalf("empty path error = %v, want ErrNoParent", err)
	}
}

func TestIsIgnored_UnreadableIgnoreFileFails(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	ignoreFile := filepath.Join(root, DefaultFileName)
	writeFile(t, ignoreFile, "*.c\n")
	writeFile(t, filepath.Join(root, "a.c"), "")
	if err := os.Chmod(ignoreFile, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(ignoreFile, 0o600) })

	if _, err := New().IsIgnored(filepath.Join(root, "a.c")); err == nil {
		t.Fatalf("an unreadable ignore file must not be silently skipped")
	}
}

func TestIsIgnored_ConcurrentCalls(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultFileName), "*.gen.c\n")
	paths := map[string]bool{}
	for _, name := range []string{"a.c", "b.gen.c", "c.c", "d.gen.c"} {
		p := filepath.Join(root, name)
		writeFile(t, p, "")
		paths[p] = filepath.Ext(name[:len(name)-2]) == ".gen"
	}

	r := New()
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 8; i++ {
		for p, want := range paths {
			wg.Add(1)
			go func(p string, want bool) {
				defer wg.Done()
				got, err := r.IsIgnored(p)
				if err != nil {
					errs <- err
					return
				}
				if got != want {
					errs <- errors.New("unexpected answer for " + p)
				}
			}(p, want)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
