package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"clangfmt/internal/driver"
	"clangfmt/internal/ui"
)

// uiMode is the value of fmt --ui.
type uiMode uint8

const (
	uiAuto uiMode = iota
	uiOn
	uiOff
)

func parseUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiAuto, nil
	case "on":
		return uiOn, nil
	case "off":
		return uiOff, nil
	default:
		return uiAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// enabled reports whether the progress view should draw on out. Nothing is
// drawn when out is not a file; in auto mode it must also be an interactive
// terminal and --quiet must be off.
func (m uiMode) enabled(out *os.File, quiet bool) bool {
	if out == nil || m == uiOff {
		return false
	}
	if m == uiOn {
		return true
	}
	return !quiet && os.Getenv("TERM") != "dumb" && isTerminal(out)
}

type formatOutcome struct {
	results []driver.Result
	err     error
}

// runFormatWithUI runs FormatPaths in the background while a progress view
// renders its events.
func runFormatWithUI(ctx context.Context, out io.Writer, title string, files []string, f driver.Formatter, paths []string, opts driver.Options) ([]driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan formatOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.FormatPaths(ctx, f, paths, optsCopy)
		outcomeCh <- formatOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the producer from blocking on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil && ctx.Err() == nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
