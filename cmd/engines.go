package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/webpkit/webp"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List the WebP engines available on this machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		codec, err := newCodec()
		if err != nil {
			return err
		}
		for _, name := range webp.Engines() {
			mark := " "
			if name == codec.Engine() {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enginesCmd)
}
