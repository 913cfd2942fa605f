package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clangfmt/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the formatted-file cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cache entry",
		Args:  cobra.NoArgs,
		RunE:  runCacheClean,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cache.Dir(cache.App)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	})
	return cmd
}

func runCacheClean(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	c, err := cache.Open(cache.App)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Clean(); err != nil {
		return fmt.Errorf("cache: failed to clean %s: %w", c.Path(), err)
	}
	if !quietFlag(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", c.Path())
	}
	return nil
}
