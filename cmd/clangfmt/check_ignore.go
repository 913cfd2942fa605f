package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckIgnoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-ignore <path> [path...]",
		Short: "Report whether paths are excluded by .clang-format-ignore files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheckIgnore,
	}
	cmd.Flags().String("format", "text", "output format (text|json)")
	return cmd
}

func runCheckIgnore(cmd *cobra.Command, args []string) error {
	outputFormat, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	outputFormat = strings.ToLower(strings.TrimSpace(outputFormat))
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("check-ignore: unsupported output format %q", outputFormat)
	}
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	resolver := newResolver(cfg)

	type entry struct {
		Path        string `json:"path"`
		Ignored     bool   `json:"ignored"`
		Formattable bool   `json:"formattable"`
		Error       string `json:"error,omitempty"`
	}
	entries := make([]entry, 0, len(args))
	failed := false
	for _, path := range args {
		ignored, err := resolver.IsIgnored(path)
		e := entry{Path: path, Ignored: ignored, Formattable: cfg.Format.HasExtension(path)}
		if err != nil {
			failed = true
			e.Error = err.Error()
		}
		entries = append(entries, e)
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return err
		}
	} else {
		for _, e := range entries {
			switch {
			case e.Error != "":
				fmt.Fprintf(cmd.ErrOrStderr(), "check-ignore: %s\n", e.Error)
			case e.Ignored:
				fmt.Fprintf(out, "ignored\t%s\n", e.Path)
			default:
				fmt.Fprintf(out, "eligible\t%s\n", e.Path)
			}
		}
	}

	if failed {
		return errors.New("check-ignore: some paths could not be checked")
	}
	return nil
}
