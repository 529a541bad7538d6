package main

import (
	"flag"
	"fmt"
	"os"

	"courseflags/internal/config"
	"courseflags/internal/logger"
	"courseflags/internal/pipeline"
	"courseflags/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(logger.Init(cfg.LogLevel))
	defer func() { _ = logger.Sync() }()

	if len(os.Args) < 2 {
		must(cfg.Validate())
		history := openHistory(cfg)
		if history != nil {
			defer history.Close()
		}
		res, err := pipeline.NewAnnotationService(cfg, history).Run()
		must(err)
		fmt.Printf("Done. New file created: %s\n", res.OutputPath)
		return
	}

	cmd := os.Args[1]
	switch cmd {
	case "history":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs to list")
		_ = fs.Parse(os.Args[2:])
		if cfg.HistoryDBPath == "" {
			must(fmt.Errorf("RUN_HISTORY_DB is not set"))
		}
		db, err := storage.Open(cfg.HistoryDBPath)
		must(err)
		defer db.Close()
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%s trace=%s rows=%d ue=%d/%d ur=%d/%d output=%s\n",
				r.CreatedAt, r.TraceID, r.RowCount, r.UEYes, r.UERefSize, r.URYes, r.URRefSize, r.OutputPath)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func openHistory(cfg config.Config) *storage.DB {
	if cfg.HistoryDBPath == "" {
		return nil
	}
	db, err := storage.Open(cfg.HistoryDBPath)
	must(err)
	return db
}

func usage() {
	fmt.Println("usage: courseflags [command]")
	fmt.Println("with no command, flags every course in the primary table with UE/UR membership")
	fmt.Println("commands:")
	fmt.Println("  history [--limit=20]   list recorded runs (requires RUN_HISTORY_DB)")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
