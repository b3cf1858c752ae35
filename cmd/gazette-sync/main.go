package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	_ "gocloud.dev/blob/s3blob"

	"github.com/chaiyosart/open-law/internal/config"
	"github.com/chaiyosart/open-law/internal/hub"
	"github.com/chaiyosart/open-law/internal/period"
	"github.com/chaiyosart/open-law/internal/store"
	"github.com/chaiyosart/open-law/internal/syncer"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("gazette-sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configPath := fs.String("config", "", "Path to YAML config file")
	output := fs.String("output", "", "Mirror target: local directory or bucket URL")
	concurrency := fs.Int("concurrency", 0, "Parallel download width")
	zipMode := fs.Bool("zip", false, "Materialize periods from archive bundles instead of per-file downloads")
	verifyMode := fs.Bool("verify", false, "Only verify local state against stored metadata; no network")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}
	if *zipMode && *verifyMode {
		fmt.Fprintln(os.Stderr, "Error: -zip and -verify are mutually exclusive")
		return ExitInvalidArgs
	}

	// A .env file is optional.
	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	cfg = cfg.Merge(config.Config{Output: *output, Concurrency: *concurrency})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	periods, err := selectPeriods(cfg, fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[gazette-sync] Received interrupt, shutting down...")
		cancel()
	}()

	st, err := openStore(ctx, cfg.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	defer st.Close()

	client := hub.NewClient(hub.Options{
		BaseURL:  cfg.BaseURL,
		Repo:     cfg.Repo,
		Revision: cfg.Revision,
		Attempts: cfg.Retry.Attempts,
		Backoff:  cfg.Retry.Backoff,
	})

	mode := syncer.ModeDownload
	switch {
	case *verifyMode:
		mode = syncer.ModeVerify
	case *zipMode:
		mode = syncer.ModeArchive
	}

	sum, err := syncer.New(cfg, client, st, log).Run(ctx, periods, mode)
	if sum != nil {
		sum.Print(os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	return ExitSuccess
}

// selectPeriods picks the periods to process: positional arguments
// first, then the configured period list, then the hot months.
func selectPeriods(cfg config.Config, args []string) ([]period.Period, error) {
	if len(args) > 0 {
		return period.ParseAll(args)
	}
	if len(cfg.Periods) > 0 {
		return period.ParseAll(cfg.Periods)
	}
	return period.Hot(time.Now(), cfg.HotPeriods), nil
}

// openStore opens the mirror target. Targets with a URL scheme go
// through the blob URL opener; anything else is a local directory.
func openStore(ctx context.Context, target string) (*store.Store, error) {
	if strings.Contains(target, "://") {
		return store.OpenURL(ctx, target)
	}
	return store.OpenDir(target)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, `Usage: gazette-sync [options] [YYYY-MM ...]

Mirror the Thai Royal Gazette dataset (PDFs and JSONL metadata
indexes) to local disk or an S3-compatible bucket, incrementally and
resumably. Without positional arguments the currently hot months are
synced.

Options:`)
	fs.PrintDefaults()
}
