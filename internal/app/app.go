// Package app implements the collate CLI commands.
package app

import (
	"fmt"
	"os"
	"strings"

	"ward.fit/collate/internal/config"
	"ward.fit/collate/internal/engine"
	"ward.fit/collate/internal/similarity"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "dedup":
		return runDedup(args[1:])
	case "hash-credential":
		return runHashCredential(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "collate CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  collate <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health           Verify audit database connectivity")
	fmt.Fprintln(os.Stderr, "  validate         Validate note bundle JSON files against the v1 schema")
	fmt.Fprintln(os.Stderr, "  dedup            Deduplicate a note bundle file and print the result")
	fmt.Fprintln(os.Stderr, "  hash-credential  Produce a bcrypt hash for COLLATE_API_PASSWORD_HASH")
	fmt.Fprintln(os.Stderr, "  serve            Start the Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"collate <command> -h\" for command-specific flags.")
}

// engineConfigFromEnv maps environment configuration onto the engine's
// knob set.
func engineConfigFromEnv(cfg *config.Config) engine.Config {
	return engine.Config{
		Weights: similarity.Weights{
			Jaccard:     cfg.JaccardWeight,
			Levenshtein: cfg.LevenshteinWeight,
			Semantic:    cfg.SemanticWeight,
		},
		ThresholdNear:      cfg.ThresholdNear,
		ThresholdSentence:  cfg.ThresholdSentence,
		ComplementaryMin:   cfg.ComplementaryMin,
		ComplementaryMax:   cfg.ComplementaryMax,
		PreserveChronology: cfg.PreserveChronology,
		MergeComplementary: cfg.MergeComplementary,
	}
}
