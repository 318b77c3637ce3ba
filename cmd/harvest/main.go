// Command harvest runs pipeline batches from the command line, for
// cron jobs and manual runs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"recipe-harvester/internal/di"
	"recipe-harvester/internal/infra"
	"recipe-harvester/internal/infra/config"
	"recipe-harvester/internal/infra/logger"
	"recipe-harvester/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "harvest",
		Short: "Recipe acquisition pipeline",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newBackfillCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		maxResults    int
		domains       []string
		noAutoApprove bool
		minConfidence float64
		timeoutMins   int
	)

	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Run one harvest batch for a search query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			components, pool, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutMins)*time.Minute)
			defer cancel()

			stats, err := components.HarvestUsecase.Run(ctx, args[0], usecase.HarvestOptions{
				MaxResults:      maxResults,
				DomainAllowList: domains,
				AutoApprove:     !noAutoApprove,
				MinConfidence:   minConfidence,
			})
			if err != nil {
				log.Error("harvest run failed", "error", err)
				return err
			}

			return printJSON(stats)
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 10, "maximum search results to process")
	cmd.Flags().StringSliceVar(&domains, "domains", nil, "restrict hits to these source domains")
	cmd.Flags().BoolVar(&noAutoApprove, "no-auto-approve", false, "store accepted recipes pending review")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "override the confidence threshold for this run")
	cmd.Flags().IntVar(&timeoutMins, "timeout", 60, "run timeout in minutes")
	return cmd
}

func newBackfillCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Attach embeddings to recipes stored without one",
		RunE: func(cmd *cobra.Command, args []string) error {
			components, pool, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer pool.Close()

			stats, err := components.BackfillUsecase.Execute(cmd.Context(), batchSize)
			if err != nil {
				log.Error("backfill failed", "error", err)
				return err
			}
			return printJSON(stats)
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 100, "recipes per backfill pass")
	return cmd
}

func bootstrap() (*di.ApplicationComponents, interface{ Close() }, *slog.Logger, error) {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New()
	slog.SetDefault(log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := infra.NewPostgresDB(context.Background(), dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	return di.NewApplicationComponents(cfg, pool, log), pool, log, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
