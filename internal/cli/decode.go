package cli

import (
	"github.com/spf13/cobra"

	"github.com/idoschwartz11/MySmartCart/internal/pipeline"
)

var (
	flagDecodeBatch int
	flagRetryFailed bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Parse downloaded catalog files into normalized price rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.close()

		dec := pipeline.NewDecoder(a.log, a.db, a.store)
		dec.Batch = orDefault(flagDecodeBatch, a.cfg.DecodeBatch)
		dec.RetryFailed = flagRetryFailed

		_, err = dec.Run(cmd.Context())
		return err
	},
}

func init() {
	decodeCmd.Flags().IntVar(&flagDecodeBatch, "batch", 0, "max files to decode this run")
	decodeCmd.Flags().BoolVar(&flagRetryFailed, "retry-failed", false, "also reprocess files whose last decode failed")
	rootCmd.AddCommand(decodeCmd)
}
