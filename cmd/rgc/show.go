package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"geocoding/internal/container"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print every point of a tree file as \"lon lat name\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := container.Load(args[0])
			if err != nil {
				return err
			}
			w := bufio.NewWriter(cmd.OutOrStdout())
			for loc, name := range tree.All() {
				fmt.Fprintf(w, "%.9f %.9f %s\n", float64(loc[0])*1e-9, float64(loc[1])*1e-9, name)
			}
			return w.Flush()
		},
	}
}
