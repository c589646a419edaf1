package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meltforce/liftlog/internal/journal"
)

func main() {
	serverURL := flag.String("server", "", "LiftLog server URL, e.g. http://liftlog:80 (required)")
	apiKey := flag.String("api-key", "", "API key (or set LIFTLOG_API_KEY)")
	dir := flag.String("dir", ".", "directory containing YYYY-MM-DD.txt journal files")
	stateDir := flag.String("state", defaultStateDir(), "directory for the sync state database")
	dryRun := flag.Bool("dry-run", false, "report what would be sent without sending")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintln(os.Stderr, "usage: liftlog-sync -server <url> [-api-key <key>] [-dir <journals>] [-dry-run]")
		os.Exit(2)
	}

	key := *apiKey
	if key == "" {
		key = os.Getenv("LIFTLOG_API_KEY")
	}
	if key == "" && !*dryRun {
		fmt.Fprintln(os.Stderr, "an API key is required: pass -api-key or set LIFTLOG_API_KEY")
		os.Exit(2)
	}

	state, err := journal.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state db", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	client := journal.NewClient(*serverURL, key)
	syncer := journal.New(client, state, *dir, *dryRun, log)

	stats, err := syncer.Run()
	if err != nil {
		log.Error("sync failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}
	printStats(stats)
}

func printStats(stats *journal.Stats) {
	if stats == nil {
		return
	}
	fmt.Printf("journals found:   %d\n", stats.FilesTotal)
	fmt.Printf("journals sent:    %d\n", stats.FilesSent)
	fmt.Printf("journals skipped: %d\n", stats.FilesSkipped)
	fmt.Printf("items logged:     %d\n", stats.ItemsLogged)
	fmt.Printf("items duplicated: %d\n", stats.ItemsDuplicated)
	fmt.Printf("items unknown:    %d\n", stats.ItemsUnknown)
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".liftlog-sync"
	}
	return filepath.Join(home, ".liftlog-sync")
}
