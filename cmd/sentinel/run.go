package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lzande/pixel-sentinel/internal/album"
	"github.com/lzande/pixel-sentinel/internal/notify"
	"github.com/lzande/pixel-sentinel/internal/reconcile"
	"github.com/lzande/pixel-sentinel/internal/report"
	"github.com/lzande/pixel-sentinel/internal/scan"
	"github.com/lzande/pixel-sentinel/internal/store"
	"github.com/lzande/pixel-sentinel/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runPass(cmd *cobra.Command, args []string) error {
	watchRoot := viper.GetString("watch-root")
	if watchRoot == "" {
		return fmt.Errorf("%w: watch root is required (use --watch-root or set in config)", util.ErrInvalidConfig)
	}

	dbPath := viper.GetString("db")
	verbose := viper.GetBool("verbose")
	quiet := viper.GetBool("quiet")

	util.SetVerbose(verbose)
	util.SetQuiet(quiet)
	util.SetColors(util.IsTerminal(os.Stderr.Fd()))

	startTime := time.Now()

	util.InfoLog("Opening database: %s", dbPath)
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logLevel := report.LevelInfo
	if quiet {
		logLevel = report.LevelWarning
	} else if verbose {
		logLevel = report.LevelDebug
	}

	events, err := report.NewEventLogger(viper.GetString("artifacts"), logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		events = report.NullLogger()
	}
	defer events.Close()

	if events.Path() != "" {
		util.InfoLog("Event log: %s", events.Path())
	}

	// An empty store means this is the initial import: record everything,
	// build the album index, but alert nobody about a pre-existing library.
	priorCount, err := db.CountFiles()
	if err != nil {
		return fmt.Errorf("failed to inspect state: %w", err)
	}
	firstRun := priorCount == 0

	util.InfoLog("Scanning: %s", watchRoot)
	scanner := scan.New(&scan.Config{
		Root:         watchRoot,
		ExcludeDirs:  viper.GetStringSlice("exclude-dirs"),
		ExcludeFiles: viper.GetStringSlice("exclude-files"),
	})

	entries, err := scanner.Scan()
	if err != nil {
		return err
	}
	events.LogScan(watchRoot, len(entries))
	util.InfoLog("Scan found %d files", len(entries))

	reconciler := reconcile.New(&reconcile.Config{Store: db, Events: events})
	result, err := reconciler.Run(entries)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	index := album.New(db, events)
	created, removed, err := index.Reconcile()
	if err != nil {
		return fmt.Errorf("album maintenance failed: %w", err)
	}

	if firstRun {
		util.SuccessLog("Initial state recorded: %d files, %d albums", len(result.Added), len(created))
		util.InfoLog("Run sentinelctl to set up groups, members, and album links.")
	} else {
		reportChanges(result)

		if len(result.Added) > 0 {
			if err := sendAlerts(db, events, result); err != nil {
				return err
			}
		}
	}

	util.SuccessLog("Pass complete in %v: %d added, %d moved, %d deleted, %d skipped",
		time.Since(startTime).Round(time.Millisecond),
		len(result.Added), len(result.Moved), len(result.Deleted), result.Skipped)
	util.DebugLog("Fingerprints: %d computed, %d reused; albums: %d created, %d removed",
		result.Hashed, result.Reused, len(created), len(removed))

	return nil
}

func reportChanges(result *reconcile.Result) {
	for _, f := range result.Added {
		util.InfoLog("New file: %s (checksum: %.8s)", f.Path, f.Checksum)
	}
	for _, mv := range result.Moved {
		util.InfoLog("Moved: %s -> %s", mv.OldPath, mv.NewPath)
	}
	for _, p := range result.Deleted {
		util.InfoLog("Removed: %s", p)
	}
}

func sendAlerts(db *store.Store, events *report.EventLogger, result *reconcile.Result) error {
	if viper.GetString("smtp.host") == "" {
		util.WarnLog("No SMTP server configured; skipping %d notification(s)", len(result.Added))
		return nil
	}

	paths := make([]string, 0, len(result.Added))
	for _, f := range result.Added {
		paths = append(paths, f.Path)
	}
	counts := album.CountByKey(paths)

	sender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     viper.GetString("smtp.host"),
		Port:     viper.GetInt("smtp.port"),
		Username: viper.GetString("smtp.user"),
		Password: viper.GetString("smtp.password"),
		From:     viper.GetString("smtp.from"),
	})

	dispatcher := notify.New(&notify.Config{
		Store:     db,
		Sender:    sender,
		Events:    events,
		SendDelay: viper.GetDuration("smtp.send-delay"),
	})

	sent, failed, err := dispatcher.Dispatch(counts)
	if err != nil {
		return fmt.Errorf("notification dispatch failed: %w", err)
	}
	if failed > 0 {
		util.WarnLog("Notifications: %d sent, %d failed", sent, failed)
	} else if sent > 0 {
		util.SuccessLog("Notifications: %d sent", sent)
	}

	return nil
}
