package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/importer"
	"github.com/meltforce/liftlog/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	csvPath := flag.String("path", "", "path to the CSV export to import (required)")
	planFlag := flag.String("plan", "", "plan UUID to match exercises against (default: the default plan)")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: liftlog-import -path <export.csv> [-plan <uuid>] [-dry-run]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var planID uuid.UUID
	if *planFlag != "" {
		planID, err = uuid.Parse(*planFlag)
		if err != nil {
			log.Error("invalid plan id", "plan", *planFlag, "error", err)
			os.Exit(1)
		}
	} else {
		plan, err := db.DefaultPlan(ctx, 1)
		if err != nil {
			log.Error("no default plan; pass -plan", "error", err)
			os.Exit(1)
		}
		planID = plan.ID
	}

	imp := importer.New(db, planID, log, *dryRun)
	stats, err := imp.ImportFile(ctx, *csvPath)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	printStats(os.Stdout, stats, *dryRun)
}

func printStats(w io.Writer, stats *importer.Stats, dryRun bool) {
	mode := "imported"
	if dryRun {
		mode = "would import"
	}
	fmt.Fprintf(w, "sessions found:     %d\n", stats.SessionsFound)
	fmt.Fprintf(w, "sessions %s: %d\n", mode, stats.SessionsImported)
	fmt.Fprintf(w, "logs inserted:      %d\n", stats.LogsInserted)
	fmt.Fprintf(w, "logs duplicated:    %d\n", stats.LogsDuplicated)
	fmt.Fprintf(w, "unknown exercises:  %d\n", len(stats.UnknownExercises))
	for _, name := range stats.UnknownExercises {
		fmt.Fprintf(w, "  %s\n", name)
	}
}
