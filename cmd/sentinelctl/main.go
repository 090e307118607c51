package main

import (
	"fmt"
	"os"

	"github.com/lzande/pixel-sentinel/internal/manage"
	"github.com/lzande/pixel-sentinel/internal/store"
	"github.com/lzande/pixel-sentinel/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "sentinelctl",
		Short: "PixelSentinel administration - manage groups, members, and album links",
		Long: `sentinelctl manages who gets alerted about new photos: subscriber
groups, their members, and the links between albums and groups. It also
produces the HTML system report.

Without a subcommand it opens the interactive management menu.`,
		Version:      Version,
		SilenceUsage: true,
		RunE:         runMenu,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sentinel.yaml)")
	rootCmd.PersistentFlags().String("db", "pixelsentinel.db", "state database file")
	rootCmd.PersistentFlags().String("report-path", "PixelSentinelReport.html", "HTML report output path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("report-path", rootCmd.PersistentFlags().Lookup("report-path"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("sentinel")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SENTINEL")
	viper.AutomaticEnv()

	viper.ReadInConfig()
}

func runMenu(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetColors(util.IsTerminal(os.Stderr.Fd()))

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	menu := manage.New(&manage.Config{
		Store:      db,
		ReportPath: viper.GetString("report-path"),
	})

	return menu.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
