package textdiff

import (
	"strings"
	"testing"
)

func TestUnified_Equal(t *testing.T) {
	if got := Unified("a.c", "int x;\n", "int x;\n", false); got != "" {
		t.Fatalf("expected empty diff, got %q", got)
	}
}

func TestUnified_SingleChange(t *testing.T) {
	got := Unified("x.c", "a\nb\nc\n", "a\nB\nc\n", false)
	want := strings.Join([]string{
		"--- x.c (original)",
		"+++ x.c (formatted)",
		"@@ -1,3 +1,3 @@",
		" a",
		"-b",
		"+B",
		" c",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected diff:\n%s\nwant:\n%s", got, want)
	}
}

func TestUnified_SeparateHunks(t *testing.T) {
	var before, after []string
	for i := 0; i < 20; i++ {
		l := string(rune('a' + i))
		before = append(before, l)
		switch i {
		case 1:
			after = append(after, "X")
		case 18:
			after = append(after, "Y")
		default:
			after = append(after, l)
		}
	}
	got := Unified("f.c", strings.Join(before, "\n")+"\n", strings.Join(after, "\n")+"\n", false)
	if n := strings.Count(got, "@@ -"); n != 2 {
		t.Fatalf("expected 2 hunks, got %d:\n%s", n, got)
	}
	if !strings.Contains(got, "@@ -1,5 +1,5 @@") {
		t.Fatalf("unexpected first hunk:\n%s", got)
	}
	if !strings.Contains(got, "@@ -16,5 +16,5 @@") {
		t.Fatalf("unexpected second hunk:\n%s", got)
	}
}

func TestUnified_MissingTrailingNewline(t *testing.T) {
	got := Unified("a.c", "int x;", "int x;\n", false)
	if !strings.Contains(got, "-int x;\n\\ No newline at end of file\n+int x;\n") {
		t.Fatalf("unexpected diff:\n%s", got)
	}
}

func TestUnified_Colored(t *testing.T) {
	got := Unified("a.c", "a\n", "b\n", true)
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected ANSI escapes in colored diff: %q", got)
	}
	plain := Unified("a.c", "a\n", "b\n", false)
	if strings.Contains(plain, "\x1b[") {
		t.Fatalf("unexpected ANSI escapes in plain diff: %q", plain)
	}
}

func TestStat(t *testing.T) {
	added, removed := Stat("a\nb\nc\n", "a\nB\nC\nd\n")
	if added != 3 || removed != 2 {
		t.Fatalf("Stat = +%d -%d, want +3 -2", added, removed)
	}
	if a, r := Stat("same", "same"); a != 0 || r != 0 {
		t.Fatalf("Stat on equal input = +%d -%d", a, r)
	}
}
