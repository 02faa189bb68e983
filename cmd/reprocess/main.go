package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cvtoletter/backend/internal/config"
	"github.com/cvtoletter/backend/internal/infrastructure/messaging"
	"github.com/cvtoletter/backend/pkg/logger"
	pkgmessaging "github.com/cvtoletter/backend/pkg/messaging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "reprocess",
		Short:         "Operator tools for the credit ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(webhooksCmd())
	rootCmd.AddCommand(watchCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session [session_id...]",
		Short: "Reconcile specific checkout sessions against the provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				failed := 0
				for _, id := range args {
					result, err := a.admin.Reprocess(ctx, id)
					if err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", id, err)
						continue
					}
					if err := printJSON(cmd.OutOrStdout(), result); err != nil {
						return err
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d sessions failed", failed, len(args))
				}
				return nil
			})
		},
	}
}

func pendingCmd() *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Reprocess checkout sessions stuck in pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if dryRun {
					sessions, err := a.admin.ListPending(ctx, olderThan, limit)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), sessions)
				}

				results, err := a.admin.ReprocessPending(ctx, olderThan, limit)
				if err != nil {
					return err
				}
				return printReprocessResults(cmd.OutOrStdout(), results)
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*time.Minute, "Only sessions pending longer than this")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum sessions per run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the sessions without reprocessing")

	return cmd
}

func webhooksCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Retry failed webhook deliveries that are due",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				summary, err := a.admin.RetryWebhooks(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum deliveries to retry (0 uses the configured batch)")

	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream credits.applied events from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled {
				return fmt.Errorf("redis is disabled in config")
			}

			log, err := logger.NewZapLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			client, err := pkgmessaging.NewRedisClient(ctx, pkgmessaging.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			messages, err := client.Subscribe(ctx, cfg.Redis.Channel)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", cfg.Redis.Channel)
			for msg := range messages {
				evt, err := messaging.DecodeCreditsApplied(msg.Payload)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skip: %v\n", err)
					continue
				}
				if err := printJSON(cmd.OutOrStdout(), evt); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func printReprocessResults(w io.Writer, results map[string]error) error {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	failed := 0
	for _, id := range ids {
		if err := results[id]; err != nil {
			failed++
			fmt.Fprintf(w, "%s\tFAILED\t%v\n", id, err)
			continue
		}
		fmt.Fprintf(w, "%s\tOK\n", id)
	}
	fmt.Fprintf(w, "processed %d, failed %d\n", len(ids), failed)
	if failed > 0 {
		return fmt.Errorf("%d sessions failed", failed)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
