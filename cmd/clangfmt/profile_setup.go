package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clangfmt/internal/prof"
)

// setupProfiling starts the profilers requested by persistent flags. They
// are stopped by finishTracing together with the tracer.
func setupProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()

	var cfg prof.Config
	var err error
	if cfg.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if cfg.Mem, err = flags.GetString("mem-profile"); err != nil {
		return fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if cfg.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if cfg == (prof.Config{}) {
		return nil
	}

	session, err := prof.Start(cfg)
	if err != nil {
		return err
	}
	traceCleanups = append(traceCleanups, func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "profile: %v\n", err)
		}
	})
	return nil
}
