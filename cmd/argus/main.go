package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/sevigo/argus/internal/app"
	"github.com/sevigo/argus/internal/config"
	"github.com/sevigo/argus/internal/logger"
)

// exit codes, spec §6 "Mode surface": 0 success (including a clean review
// with no findings), 1 a handled failure the operator can act on, 2 an
// unhandled failure worth a stack trace.
const (
	exitOK             = 0
	exitHandledError   = 1
	exitUnhandledPanic = 2
)

// flagEnv binds one cobra flag to the ARGUS_-prefixed environment variable
// config.Load and app.ModeFromEnv/TargetSHA read, since config.Load owns a
// private viper instance rather than accepting external flag bindings --
// setting the env var is the seam between cobra and the rest of argus.
type flagEnv struct {
	flag, env string
}

var boundFlags = []flagEnv{
	{"mode", "ARGUS_MODE"},
	{"target-sha", "ARGUS_TARGET_SHA"},
	{"model", "ARGUS_MODEL"},
	{"max-tokens", "ARGUS_MAX_TOKENS"},
	{"storage-dir", "ARGUS_STORAGE_DIR"},
	{"embedding-model", "ARGUS_EMBEDDING_MODEL"},
	{"review-depth", "ARGUS_REVIEW_DEPTH"},
	{"enable-agentic", "ARGUS_ENABLE_AGENTIC"},
	{"log-level", "ARGUS_LOGGING_LEVEL"},
	{"log-format", "ARGUS_LOGGING_FORMAT"},
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "argus",
		Short: "argus indexes a repository and reviews its pull requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, bf := range boundFlags {
				if !cmd.Flags().Changed(bf.flag) {
					continue
				}
				v, err := cmd.Flags().GetString(bf.flag)
				if err != nil {
					continue
				}
				os.Setenv(bf.env, v)
			}
			return runMode(cmd.Context())
		},
	}

	cmd.Flags().String("mode", "", "bootstrap|index|review (overrides ARGUS_MODE)")
	cmd.Flags().String("target-sha", "", "commit SHA to index or bootstrap (overrides ARGUS_TARGET_SHA)")
	cmd.Flags().String("model", "", "generator model name")
	cmd.Flags().String("max-tokens", "", "total prompt token budget")
	cmd.Flags().String("storage-dir", "", "storage_dir setting (checkouts always go to a system temp directory)")
	cmd.Flags().String("embedding-model", "", "embedding model name, enables semantic retrieval")
	cmd.Flags().String("review-depth", "", "quick|standard|deep")
	cmd.Flags().String("enable-agentic", "", "true|false, enables the agentic retrieval strategy")
	cmd.Flags().String("log-level", "", "debug|info|warn|error")
	cmd.Flags().String("log-format", "", "text|json")

	return cmd
}

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("unhandled panic", "panic", r, "stack", string(debug.Stack()))
			code = exitUnhandledPanic
		}
	}()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("argus failed", "error", err)
		return exitHandledError
	}
	return exitOK
}

func runMode(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}

	log := logger.NewLogger(cfg.Logging, nil)
	slog.SetDefault(log)

	mode, err := app.ModeFromEnv()
	if err != nil {
		return fmt.Errorf("resolve mode: %w", err)
	}

	a, cleanup, err := app.New(ctx, cfg, secrets, log)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer cleanup()

	switch mode {
	case app.ModeBootstrap:
		target, err := app.TargetSHA()
		if err != nil {
			return err
		}
		result, err := a.RunBootstrap(ctx, target)
		if err != nil {
			return err
		}
		log.Info("bootstrap complete", "files", result.FileCount, "analyzed", result.Analyzed)
		return nil

	case app.ModeIndex:
		target, err := app.TargetSHA()
		if err != nil {
			return err
		}
		result, err := a.RunIndex(ctx, target)
		if err != nil {
			return err
		}
		log.Info("index complete", "dirty_shards", result.DirtyShards, "pushed", result.Pushed)
		return nil

	case app.ModeReview:
		result, err := a.RunReview(ctx)
		if err != nil {
			return err
		}
		log.Info("review complete", "comments_posted", result.CommentsPosted, "retrieval_items", result.RetrievalItems)
		return nil

	default:
		return fmt.Errorf("unhandled mode %q", mode)
	}
}
