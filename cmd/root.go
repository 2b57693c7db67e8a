package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Hxucaa/cardano-sl/logx"
)

var rootCmd = &cobra.Command{
	Use:   "cardano-sl",
	Short: "Cardano SL wallet sync CLI",
	Long:  "Command line interface for initializing and inspecting the wallet block-listener state.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
