// Package textdiff renders line diffs between a file and its formatted form.
package textdiff

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Context is the number of unchanged lines shown around each change.
const Context = 3

type op byte

const (
	opEqual  op = ' '
	opDelete op = '-'
	opInsert op = '+'
)

type line struct {
	op   op
	text string // includes the trailing newline, if any
}

// lines computes a line-level diff. Within a changed region deletions come
// before insertions.
func lines(before, after string) []line {
	dmp := diffmatchpatch.New()
	a, b, table := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	var out, ins []line
	flush := func() {
		out = append(out, ins...)
		ins = ins[:0]
	}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			for _, l := range splitLines(d.Text) {
				out = append(out, line{opEqual, l})
			}
		case diffmatchpatch.DiffDelete:
			for _, l := range splitLines(d.Text) {
				out = append(out, line{opDelete, l})
			}
		case diffmatchpatch.DiffInsert:
			for _, l := range splitLines(d.Text) {
				ins = append(ins, line{opInsert, l})
			}
		}
	}
	flush()
	return out
}

func splitLines(s string) []string {
	parts := strings.SplitAfter(s, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// Stat counts inserted and deleted lines.
func Stat(before, after string) (added, removed int) {
	if before == after {
		return 0, 0
	}
	for _, l := range lines(before, after) {
		switch l.op {
		case opInsert:
			added++
		case opDelete:
			removed++
		}
	}
	return added, removed
}

// Unified returns a unified diff of before and after labelled with name, or
// "" when they are equal.
func Unified(name, before, after string, colored bool) string {
	if before == after {
		return ""
	}
	paint := newPalette(colored)
	ls := lines(before, after)

	var sb strings.Builder
	sb.WriteString(paint.header.Sprintf("--- %s (original)", name))
	sb.WriteByte('\n')
	sb.WriteString(paint.header.Sprintf("+++ %s (formatted)", name))
	sb.WriteByte('\n')

	for _, h := range hunks(ls) {
		sb.WriteString(paint.hunk.Sprint(h.header()))
		sb.WriteByte('\n')
		for _, l := range ls[h.from:h.to] {
			text := strings.TrimSuffix(l.text, "\n")
			s := string(l.op) + text
			switch l.op {
			case opDelete:
				s = paint.del.Sprint(s)
			case opInsert:
				s = paint.ins.Sprint(s)
			}
			sb.WriteString(s)
			sb.WriteByte('\n')
			if !strings.HasSuffix(l.text, "\n") {
				sb.WriteString("\\ No newline at end of file\n")
			}
		}
	}
	return sb.String()
}

type hunk struct {
	from, to         int // index range into the line list
	oldStart, oldLen int
	newStart, newLen int
}

func (h hunk) header() string {
	return fmt.Sprintf("@@ -%s +%s @@", span(h.oldStart, h.oldLen), span(h.newStart, h.newLen))
}

func span(start, n int) string {
	if n == 0 {
		return fmt.Sprintf("%d,0", start-1)
	}
	if n == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, n)
}

// hunks groups changes that are at most 2*Context lines apart.
func hunks(ls []line) []hunk {
	var changes []int
	for i, l := range ls {
		if l.op != opEqual {
			changes = append(changes, i)
		}
	}
	if len(changes) == 0 {
		return nil
	}

	var out []hunk
	first, last := changes[0], changes[0]
	emit := func() {
		from := max(0, first-Context)
		to := min(len(ls), last+Context+1)
		h := hunk{from: from, to: to, oldStart: 1, newStart: 1}
		for _, l := range ls[:from] {
			if l.op != opInsert {
				h.oldStart++
			}
			if l.op != opDelete {
				h.newStart++
			}
		}
		for _, l := range ls[from:to] {
			if l.op != opInsert {
				h.oldLen++
			}
			if l.op != opDelete {
				h.newLen++
			}
		}
		out = append(out, h)
	}
	for _, c := range changes[1:] {
		if c-last > 2*Context {
			emit()
			first = c
		}
		last = c
	}
	emit()
	return out
}

type palette struct {
	header, hunk, del, ins *color.Color
}

func newPalette(colored bool) palette {
	p := palette{
		header: color.New(color.Bold),
		hunk:   color.New(color.FgCyan),
		del:    color.New(color.FgRed),
		ins:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.header, p.hunk, p.del, p.ins} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}
