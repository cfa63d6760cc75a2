package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envPath    string
	outputJSON bool
	logger     *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "tsumegoctl",
	Short: "Import, inspect and verify solved tsumego collections",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l.Sugar()
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "configuration file")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(newImportGraphCmd())
	rootCmd.AddCommand(newImportCollectionsCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newReportCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
