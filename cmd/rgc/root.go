package main

import (
	"github.com/spf13/cobra"

	"geocoding/internal/logger"
	"geocoding/internal/metrics"
	"geocoding/internal/utils"
)

type rootOptions struct {
	dataDir     string
	dumpMetrics bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "rgc",
		Short:         "Reverse geocoding over compressed 2-d trees",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.dumpMetrics {
				return nil
			}
			return metrics.Dump(logger.L())
		},
	}
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", utils.EnvString("RGC_DATA_DIR", "data/rgc"), "directory holding <subset>.rgc.zst files")
	cmd.PersistentFlags().BoolVar(&opts.dumpMetrics, "metrics", false, "log collected metrics before exiting")
	cmd.AddCommand(newConvertCmd(opts), newShowCmd(), newFindCmd(opts))
	return cmd
}
