package cli

import (
	"github.com/spf13/cobra"

	"github.com/idoschwartz11/MySmartCart/internal/pipeline"
)

var flagWindowDays int

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute trailing-window daily product statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.close()

		agg := pipeline.NewAggregator(a.log, a.db)
		agg.WindowDays = orDefault(flagWindowDays, a.cfg.WindowDays)

		_, err = agg.Run(cmd.Context())
		return err
	},
}

func init() {
	aggregateCmd.Flags().IntVar(&flagWindowDays, "window-days", 0, "trailing window length in days")
	rootCmd.AddCommand(aggregateCmd)
}
