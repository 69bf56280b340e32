package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prism-mfg/prism-cli/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persistent result cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop cached results written under other schema versions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("history"); err != nil {
			return err
		}

		s, err := loadSchema(cfg.Paths.SchemaOverrides)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := store.NewCache(st).InvalidateExcept(ctx, s.Version())
		if err != nil {
			return eris.Wrap(err, "cache prune")
		}

		zap.L().Info("cache pruned", zap.Int("removed", n), zap.String("schema_version", s.Version()))
		fmt.Fprintf(os.Stdout, "Removed %d cache entries not matching schema %s\n", n, s.Version())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
