package main

import (
	"fmt"

	"github.com/lzande/pixel-sentinel/internal/report"
	"github.com/lzande/pixel-sentinel/internal/store"
	"github.com/lzande/pixel-sentinel/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the HTML system report",
	Long: `Write an HTML report summarizing the tracked file count, the subscriber
groups, each group's membership, and the album-to-group links.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	outputPath := viper.GetString("report-path")
	if err := report.WriteHTMLReport(db, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.SuccessLog("System report saved to %s", outputPath)
	return nil
}
