package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// clearCmd removes the stored result.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored result of the last import",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Clear(cmd.Context()); err != nil {
			return err
		}

		slog.Debug("Stored result cleared", "backend", mainConfig.Store.Backend, "path", mainConfig.Store.Path)
		fmt.Fprintln(cmd.OutOrStdout(), "Stored import cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
