package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"clangfmt/internal/driver"
	"clangfmt/internal/format"
	"clangfmt/internal/observ"
	"clangfmt/internal/textdiff"
)

func newFmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [flags] <path> [path...]",
		Short: "Format source files in place",
		Long: `Format files and directories (directories are walked recursively).
Files excluded by a .clang-format-ignore file in their directory or any
parent directory are left untouched.`,
		RunE: runFmt,
	}
	cmd.Flags().Bool("check", false, "check if files are properly formatted")
	cmd.Flags().String("format", "text", "output format (text|json)")
	cmd.Flags().Bool("stdout", false, "print formatted code to stdout instead of rewriting files")
	cmd.Flags().Bool("diff", false, "print a diff of the changes instead of rewriting files")
	cmd.Flags().IntP("jobs", "j", 0, "parallel workers (0 = GOMAXPROCS)")
	cmd.Flags().String("engine", "clang", "formatting engine (clang|echo)")
	cmd.Flags().Bool("no-cache", false, "do not consult or update the formatted-file cache")
	cmd.Flags().Bool("stdin", false, "format standard input and write the result to stdout")
	cmd.Flags().String("assume-filename", "", "file name used for ignore rules and by the engine with --stdin")
	cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	cmd.Flags().Bool("timings", false, "print phase timings to stderr")
	return cmd
}

type fmtOptions struct {
	check          bool
	outputFormat   string
	stdout         bool
	diff           bool
	stdin          bool
	assumeFilename string
	ui             uiMode
	quiet          bool
	timings        bool
}

func readFmtOptions(cmd *cobra.Command, args []string) (fmtOptions, error) {
	var opts fmtOptions
	var err error
	flags := cmd.Flags()
	if opts.check, err = flags.GetBool("check"); err != nil {
		return opts, err
	}
	if opts.outputFormat, err = flags.GetString("format"); err != nil {
		return opts, err
	}
	if opts.stdout, err = flags.GetBool("stdout"); err != nil {
		return opts, err
	}
	if opts.diff, err = flags.GetBool("diff"); err != nil {
		return opts, err
	}
	if opts.stdin, err = flags.GetBool("stdin"); err != nil {
		return opts, err
	}
	if opts.assumeFilename, err = flags.GetString("assume-filename"); err != nil {
		return opts, err
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, err
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return opts, err
	}
	if opts.ui, err = parseUIMode(uiValue); err != nil {
		return opts, err
	}
	opts.outputFormat = strings.ToLower(strings.TrimSpace(opts.outputFormat))
	opts.quiet = quietFlag(cmd)

	switch opts.outputFormat {
	case "text", "json":
	default:
		return opts, fmt.Errorf("fmt: unsupported output format %q", opts.outputFormat)
	}
	if opts.stdout && opts.check {
		return opts, errors.New("fmt: --stdout cannot be used with --check")
	}
	if opts.stdout && opts.diff {
		return opts, errors.New("fmt: --stdout cannot be used with --diff")
	}
	if opts.stdout && opts.outputFormat != "text" {
		return opts, errors.New("fmt: --stdout is only supported with text output")
	}
	if opts.stdin {
		if len(args) > 0 {
			return opts, errors.New("fmt: --stdin takes no paths")
		}
		if strings.TrimSpace(opts.assumeFilename) == "" {
			return opts, errors.New("fmt: --stdin requires --assume-filename")
		}
	} else if len(args) == 0 {
		return opts, errors.New("fmt: no paths given")
	}
	return opts, nil
}

func runFmt(cmd *cobra.Command, args []string) error {
	opts, err := readFmtOptions(cmd, args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	var timings *observ.Timings
	if opts.timings {
		timings = observ.New()
		defer func() { _, _ = timings.WriteTo(cmd.ErrOrStderr()) }()
	}

	setupDone := timings.Track("setup")
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	setupDone("engine " + s.service.EngineName())
	if opts.stdin {
		return runFmtStdin(cmd, s, opts)
	}

	driverOpts := driver.Options{
		Check:      opts.check || opts.diff,
		Stdout:     opts.stdout,
		Jobs:       s.config.Format.Jobs,
		Extensions: s.config.Format.Extensions,
		Cache:      s.cache,
	}

	formatDone := timings.Track("format")
	var results []driver.Result
	if opts.outputFormat == "text" && !opts.stdout && opts.ui.enabled(stdoutFile(cmd), opts.quiet) {
		files, err := driver.CollectFiles(cmd.Context(), args, driverOpts.Extensions)
		if err != nil {
			return err
		}
		results, err = runFormatWithUI(cmd.Context(), cmd.OutOrStdout(), "clangfmt fmt", files, s.service, args, driverOpts)
		if err != nil {
			return err
		}
	} else {
		results, err = driver.FormatPaths(cmd.Context(), s.service, args, driverOpts)
		if err != nil {
			return err
		}
	}

	formatDone(fmt.Sprintf("%d files", len(results)))

	reportDone := timings.Track("report")
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var hasErrors, hasChanges bool
	switch {
	case opts.outputFormat == "json":
		if err := renderFmtJSON(out, results, opts); err != nil {
			return err
		}
		hasErrors, hasChanges = tally(results)
	case opts.stdout:
		hasErrors = renderFmtStdout(out, errOut, results)
	default:
		hasErrors, hasChanges = renderFmtText(out, errOut, results, opts)
	}
	reportDone("")

	if hasErrors {
		return errors.New("fmt: failed to format some files")
	}
	if opts.check && hasChanges {
		return errors.New("fmt: formatting changes required")
	}
	return nil
}

func runFmtStdin(cmd *cobra.Command, s *settings, opts fmtOptions) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("fmt: reading stdin: %w", err)
	}
	content := string(data)

	outcome, err := driver.FormatStdin(cmd.Context(), s.service, opts.assumeFilename, content)
	if err != nil {
		return err
	}
	formatted := content
	switch outcome.Kind {
	case format.KindError:
		return fmt.Errorf("fmt: <stdin>: %s", outcome.Message)
	case format.KindSuccess:
		formatted = outcome.Formatted
	}

	out := cmd.OutOrStdout()
	switch {
	case opts.diff:
		_, _ = io.WriteString(out, textdiff.Unified(opts.assumeFilename, content, formatted, colorEnabled()))
	case !opts.check:
		_, _ = io.WriteString(out, formatted)
	}
	if opts.check && formatted != content {
		return errors.New("fmt: formatting changes required")
	}
	return nil
}

func tally(results []driver.Result) (hasErrors, hasChanges bool) {
	for _, res := range results {
		switch res.Status {
		case driver.StatusFailed:
			hasErrors = true
		case driver.StatusChanged:
			hasChanges = true
		}
	}
	return hasErrors, hasChanges
}

func renderFmtStdout(out, errOut io.Writer, results []driver.Result) (hasErrors bool) {
	for _, res := range results {
		if res.Err != nil {
			hasErrors = true
			fmt.Fprintf(errOut, "fmt: %v\n", res.Err)
			continue
		}
		_, _ = io.WriteString(out, res.Formatted)
	}
	return hasErrors
}

func renderFmtText(out, errOut io.Writer, results []driver.Result, opts fmtOptions) (hasErrors, hasChanges bool) {
	for _, res := range results {
		if res.Err != nil {
			hasErrors = true
			fmt.Fprintf(errOut, "fmt: %v\n", res.Err)
			continue
		}
		if !res.Changed() {
			continue
		}
		hasChanges = true
		switch {
		case opts.diff:
			_, _ = io.WriteString(out, textdiff.Unified(res.Path, res.Original, res.Formatted, colorEnabled()))
		case opts.quiet:
		case opts.check:
			fmt.Fprintln(out, res.Path)
		default:
			fmt.Fprintf(out, "reformatted %s\n", res.Path)
		}
	}
	return hasErrors, hasChanges
}

func renderFmtJSON(out io.Writer, results []driver.Result, opts fmtOptions) error {
	type jsonResult struct {
		Path     string `json:"path"`
		Status   string `json:"status"`
		Changed  bool   `json:"changed"`
		Cached   bool   `json:"cached,omitempty"`
		Added    int    `json:"added,omitempty"`
		Removed  int    `json:"removed,omitempty"`
		Error    string `json:"error,omitempty"`
		CheckRun bool   `json:"check"`
	}

	payload := make([]jsonResult, 0, len(results))
	for _, res := range results {
		jr := jsonResult{
			Path:     res.Path,
			Status:   res.Status.String(),
			Changed:  res.Changed(),
			Cached:   res.Cached,
			CheckRun: opts.check,
		}
		if res.Changed() {
			jr.Added, jr.Removed = textdiff.Stat(res.Original, res.Formatted)
		}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		payload = append(payload, jr)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
