package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ward.fit/collate/internal/cli"
	"ward.fit/collate/internal/config"
	"ward.fit/collate/internal/db"
	"ward.fit/collate/internal/engine"
	"ward.fit/collate/internal/globaltime"
	"ward.fit/collate/internal/ingest"
	"ward.fit/collate/internal/logging"
	bundleschema "ward.fit/collate/schema"
)

func runDedup(args []string) int {
	fs := flag.NewFlagSet("dedup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	file := fs.String("file", "", "Path to the note bundle JSON file (required)")
	out := fs.String("out", "", "Write the result JSON to this path instead of stdout")
	timeout := fs.Duration("timeout", 30*time.Second, "Dedup deadline")
	source := fs.String("source", "cli", "Source label recorded in the audit ledger")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read bundle file: %v\n", err)
		return 1
	}

	bundle, err := bundleschema.ValidateNoteBundle(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid note bundle: %v\n", err)
		return 1
	}

	notes, err := ingest.BuildNotes(bundle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unusable note content: %v\n", err)
		return 1
	}

	engineCfg := ingest.EngineConfig(engineConfigFromEnv(cfg), bundle.Options)
	eng, err := engine.New(engineCfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid engine configuration: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	startedAt := globaltime.UTC()
	result := eng.Dedup(ctx, notes)
	finishedAt := globaltime.UTC()

	if cfg.AuditEnabled() {
		pool, poolErr := db.NewPool(ctx, cfg)
		if poolErr != nil {
			logger.Error().Err(poolErr).Msg("audit database unavailable; skipping ledger")
		} else {
			defer pool.Close()
			runID, auditErr := pool.RecordDedupRun(ctx, strings.TrimSpace(*source), startedAt, finishedAt, result)
			if auditErr != nil {
				logger.Error().Err(auditErr).Msg("record dedup run failed")
			} else {
				logger.Info().Int64("run_id", runID).Msg("dedup run recorded")
			}
		}
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		return 1
	}

	if strings.TrimSpace(*out) != "" {
		if err := os.WriteFile(*out, append(encoded, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write result file: %v\n", err)
			return 1
		}
	} else {
		fmt.Println(string(encoded))
	}

	fmt.Fprintf(os.Stderr,
		"dedup input=%d output=%d reduction=%.1f%% clusters=%d merges=%d partial=%t errors=%d\n",
		result.InputCount,
		result.OutputCount,
		result.ReductionPercent,
		result.ClusterCount,
		result.PhaseStats.ComplementaryMerges,
		result.Partial,
		len(result.PhaseStats.Errors),
	)

	if result.Partial {
		return 1
	}
	return 0
}
