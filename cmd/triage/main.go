// cmd/triage/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	awsclients "ticket-triage/internal/common/aws"
	"ticket-triage/internal/common/config"
	"ticket-triage/internal/common/database"
	commonerrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/observability"

	"ticket-triage/internal/bedrock"
	"ticket-triage/internal/cache"
	"ticket-triage/internal/dataset"
	"ticket-triage/internal/notify"
	"ticket-triage/internal/search"
	"ticket-triage/internal/store"
	"ticket-triage/internal/triage"
)

var (
	configPath string
	verbose    bool

	inputPath  string
	outputPath string

	replyTo string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "triage",
		Short: "Classify customer support tickets with a Bedrock text model",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults to ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log every ticket's input/output pair")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Classify every ticket in a CSV and write the report",
		RunE:  runBatch,
	}
	batchCmd.Flags().StringVar(&inputPath, "input", "Support_ticket_text_data.csv", "input CSV with ticket id and text columns")
	batchCmd.Flags().StringVar(&outputPath, "output", "Processed_Support_Tickets.csv", "output CSV for the report")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [ticket text]",
		Short: "Classify a single ticket and print the record",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringVar(&replyTo, "reply-to", "", "email the generated first reply to this address")

	rootCmd.AddCommand(batchCmd, analyzeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// newLogger builds the zap logger from the logging config section.
// --verbose forces the debug level regardless of the configured one.
func newLogger(cfg *config.Config, verbose bool) *zap.Logger {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logger.New(level, cfg.Logging.Format)
}

// validateReplyRequest rejects an explicit --reply-to when the email channel
// is disabled, so a requested send never no-ops silently.
func validateReplyRequest(replyTo string, cfg *config.Config) error {
	if replyTo == "" {
		return nil
	}
	if !cfg.Notifications.Email.Enabled {
		return commonerrors.NewConfigInvalidError("--reply-to requires notifications.email.enabled")
	}
	return nil
}

// buildInvoker constructs the inference client and, when enabled, wraps it
// with the Redis completion cache.
func buildInvoker(ctx context.Context, cfg *config.Config, log logger.Logger) (triage.Invoker, func(), error) {
	runtime, err := awsclients.NewBedrockRuntimeClient(ctx, cfg.Bedrock.Region, cfg.Bedrock.EndpointURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bedrock client init: %w", err)
	}

	var invoker triage.Invoker = bedrock.NewClient(runtime, cfg.Bedrock, log)
	cleanup := func() {}

	if cfg.Cache.Enabled {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("redis init: %w", err)
		}
		if err := rdb.Ping(ctx); err != nil {
			return nil, nil, err
		}
		invoker = cache.NewCachedInvoker(invoker, rdb, config.GetDuration(cfg.Cache.TTL), log)
		cleanup = func() { rdb.Close() }
	}

	return invoker, cleanup, nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLog := newLogger(cfg, verbose)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	ctx := cmd.Context()
	runID := uuid.New().String()
	log = log.With(map[string]interface{}{"runId": runID})

	obs := observability.New("ticket-triage")
	defer obs.Shutdown()

	if cfg.Metrics.Enabled {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
				log.Warn("metrics endpoint stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	// Validate the dataset before any inference call.
	tickets, err := dataset.LoadTickets(inputPath, cfg.Dataset)
	if err != nil {
		log.Error("input dataset rejected", map[string]interface{}{"error": err.Error(), "path": inputPath})
		return err
	}
	log.Info("input dataset loaded", map[string]interface{}{"tickets": len(tickets), "path": inputPath})

	invoker, cleanup, err := buildInvoker(ctx, cfg, log)
	if err != nil {
		log.Error("invoker init failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	defer cleanup()

	processor := triage.NewProcessor(invoker, log,
		triage.WithVerbose(verbose),
		triage.WithObservability(obs),
	)

	rows := processor.Run(ctx, tickets)

	if err := dataset.WriteReport(outputPath, rows); err != nil {
		log.Error("report write failed", map[string]interface{}{"error": err.Error(), "path": outputPath})
		return err
	}
	log.Info("report written", map[string]interface{}{"rows": len(rows), "path": outputPath})

	if cfg.Archive.Enabled {
		if err := archiveRun(ctx, cfg, log, runID, rows); err != nil {
			log.Error("report archive failed", map[string]interface{}{
				"error":     err.Error(),
				"retryable": commonerrors.IsRetryable(err),
			})
		}
	}

	if cfg.Index.Enabled {
		if err := indexRun(ctx, cfg, log, runID, rows); err != nil {
			log.Error("report indexing failed", map[string]interface{}{
				"error":     err.Error(),
				"retryable": commonerrors.IsRetryable(err),
			})
		}
	}

	return nil
}

func archiveRun(ctx context.Context, cfg *config.Config, log logger.Logger, runID string, rows []triage.ReportRow) error {
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Ping(ctx); err != nil {
		return err
	}

	reportStore := store.NewReportStore(pg.GetDB(), cfg.Archive.Table, log)
	if err := reportStore.EnsureSchema(ctx); err != nil {
		return err
	}
	return reportStore.SaveRun(ctx, runID, rows)
}

func indexRun(ctx context.Context, cfg *config.Config, log logger.Logger, runID string, rows []triage.ReportRow) error {
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}

	indexer := search.NewReportIndexer(es, cfg.Index.Name, log)
	return indexer.IndexRun(ctx, runID, rows)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ticketText := strings.TrimSpace(args[0])
	if ticketText == "" {
		return fmt.Errorf("ticket text must not be blank")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := validateReplyRequest(replyTo, cfg); err != nil {
		return err
	}

	zapLog := newLogger(cfg, verbose)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	ctx := cmd.Context()

	invoker, cleanup, err := buildInvoker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	processor := triage.NewProcessor(invoker, log, triage.WithVerbose(verbose))
	row := processor.ProcessTicket(ctx, triage.Ticket{ID: "adhoc", Text: ticketText})

	out, err := json.MarshalIndent(row, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if replyTo != "" {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return fmt.Errorf("ses client init: %w", err)
		}
		dispatcher := notify.NewReplyDispatcher(sesClient, cfg.Notifications.Email.FromEmail, log)
		if err := dispatcher.Dispatch(ctx, replyTo, row); err != nil {
			return err
		}
	}

	return nil
}
