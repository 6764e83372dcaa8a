package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
)

const reindexLongDesc string = `Embed every document of a collection that has no vector yet.

Documents with too little text are skipped. The run stops at the first
provider failure and reports how far it got.

Examples:
  semindex reindex articles
  semindex reindex articles --env prod`

func newReindexCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <collection>",
		Short: "Embed documents that have no vector yet",
		Long:  reindexLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, usage := domain.NewContextWithUsage(cmd.Context())
			report, err := a.documents.Reindex(ctx, args[0])
			tokens, _ := usage.Snapshot()

			fmt.Fprintf(cmd.OutOrStdout(), "collection=%s scanned=%d embedded=%d skipped=%d failed=%d tokens=%d\n",
				report.CollectionID, report.Scanned, report.Embedded, report.Skipped, report.Failed, tokens)
			if err != nil {
				logger.Error("Reindex stopped", zap.String("collection", args[0]), zap.Error(err))
				return fmt.Errorf("reindex %s: %w", args[0], err)
			}
			return nil
		},
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
