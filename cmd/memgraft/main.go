// Package main provides the memgraft binary: a harness that measures
// how often poisoned experience records surface in retrieval results.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/memgraft/memgraft/internal/bus"
	"github.com/memgraft/memgraft/internal/config"
	"github.com/memgraft/memgraft/internal/embedding"
	"github.com/memgraft/memgraft/internal/evaluation"
	"github.com/memgraft/memgraft/internal/index"
	apperrors "github.com/memgraft/memgraft/internal/pkg/errors"
	"github.com/memgraft/memgraft/internal/pkg/logger"
	"github.com/memgraft/memgraft/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "memgraft",
		Short: "Memgraft - memory poisoning retrieval evaluation harness",
		Long: `Memgraft measures the Poisoned Retrieval Rate (PRR) of an agent
experience store: the share of queries for which a poisoned record
surfaces in the top-k retrieval results.

Run 'memgraft evaluate' to execute a full evaluation run.
Run 'memgraft query' to probe a persisted index interactively.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		evaluateCmd(),
		queryCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeValidation, "loading configuration", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return cfg, logger.New(level, cfg.Log.Format), nil
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the full evaluation pipeline",
		Long: `Load the seed store, augment it to the target sizes, build the
retrieval index, run the query battery, and persist the index plus a
timestamped PRR report.`,
		RunE: runEvaluate,
	}

	cmd.Flags().String("seeds", "", "seed file path (overrides config)")
	cmd.Flags().Int("target-benign", -1, "benign record count after augmentation (overrides config)")
	cmd.Flags().Int("target-poisoned", -1, "required poisoned record count (overrides config)")
	cmd.Flags().String("backend", "", "retrieval backend: lexical or vector (overrides config)")
	cmd.Flags().IntP("top-k", "k", 0, "retrieved records per query (overrides config)")
	cmd.Flags().String("scoring", "", "scoring mode: binary or fraction (overrides config)")
	cmd.Flags().String("queries", "", "query battery file (defaults to the built-in battery)")
	cmd.Flags().StringP("out", "o", "", "output directory (overrides config)")

	return cmd
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyEvaluateFlags(cmd, cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log.Info("starting evaluation run",
		"seeds", cfg.Seeds.Path,
		"backend", cfg.Index.Backend,
		"k", cfg.Index.TopK,
	)

	auditBus, err := bus.NewBus(cfg.Bus, log)
	if err != nil {
		log.WithError(err).Warn("audit bus unavailable, falling back to in-memory bus")
		auditBus = bus.NewMemoryBus(log)
	}
	defer auditBus.Close()

	publish := func(topic string, payload any) {
		if err := auditBus.Publish(ctx, topic, bus.NewEvent(topic, payload)); err != nil {
			log.WithError(err).Warn("audit publish failed", "topic", topic)
		}
	}

	// Load and augment the experience store.
	st, err := store.Load(cfg.Seeds.Path, log)
	if err != nil {
		return err
	}
	benign, poisoned := st.Counts()
	publish(bus.TopicStoreLoaded, map[string]any{
		"source": st.Source(), "benign": benign, "poisoned": poisoned,
	})

	if err := st.Augment(cfg.Seeds.TargetBenign, cfg.Seeds.TargetPoisoned); err != nil {
		return err
	}
	benign, poisoned = st.Counts()
	publish(bus.TopicStoreAugmented, map[string]any{
		"benign": benign, "poisoned": poisoned,
	})

	if cfg.Seeds.AuditPath != "" {
		if err := st.WriteAudit(cfg.Seeds.AuditPath); err != nil {
			log.WithError(err).Warn("seed audit write failed", "path", cfg.Seeds.AuditPath)
		}
	}

	// Build the retrieval index.
	provider := embedding.NewProvider(cfg.Embedding, log)
	backend := index.Select(index.Choice(cfg.Index.Backend), provider, log)
	if err := backend.Build(ctx, st.Records()); err != nil {
		return err
	}
	stats := backend.Stats()
	log.WithBackend(stats.Backend).Info("index built",
		"records", stats.Records, "poisoned", stats.Poisoned)
	publish(bus.TopicIndexBuilt, stats)

	// Run the battery.
	queries := evaluation.DefaultBattery()
	if cfg.Evaluation.QueriesPath != "" {
		queries, err = evaluation.LoadQueries(cfg.Evaluation.QueriesPath)
		if err != nil {
			return err
		}
	}

	engine := evaluation.NewEngine(log,
		evaluation.Scoring(cfg.Evaluation.Scoring), cfg.Evaluation.Parallelism)
	if err := engine.UseIndex(backend); err != nil {
		return err
	}

	report, err := engine.Evaluate(ctx, queries, cfg.Index.TopK)
	if err != nil {
		return err
	}
	publish(bus.TopicEvaluationCompleted, map[string]any{
		"run_id": report.RunID, "prr": report.PRR, "failed": report.Failed,
	})

	// Persist the index and the report. Neither failure invalidates the
	// computed result, so both are logged and the run still exits zero.
	indexPath := filepath.Join(cfg.Output.Dir, cfg.Output.IndexFile)
	if err := index.Save(backend, indexPath); err != nil {
		log.WithError(err).Error("index save failed", "path", indexPath)
		indexPath = ""
	}

	reportPath, err := engine.WriteReport(cfg.Output.Dir)
	if err != nil {
		log.WithError(err).Error("report write failed", "dir", cfg.Output.Dir)
	} else {
		publish(bus.TopicReportWritten, map[string]any{
			"run_id": report.RunID, "path": reportPath,
		})
	}

	printSummary(report, indexPath, reportPath)
	return nil
}

func applyEvaluateFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("seeds"); v != "" {
		cfg.Seeds.Path = v
	}
	// Zero is a valid target, so negative is the unset sentinel here.
	if v, _ := cmd.Flags().GetInt("target-benign"); v >= 0 {
		cfg.Seeds.TargetBenign = v
	}
	if v, _ := cmd.Flags().GetInt("target-poisoned"); v >= 0 {
		cfg.Seeds.TargetPoisoned = v
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Index.Backend = v
	}
	if v, _ := cmd.Flags().GetInt("top-k"); v > 0 {
		cfg.Index.TopK = v
	}
	if v, _ := cmd.Flags().GetString("scoring"); v != "" {
		cfg.Evaluation.Scoring = v
	}
	if v, _ := cmd.Flags().GetString("queries"); v != "" {
		cfg.Evaluation.QueriesPath = v
	}
	if v, _ := cmd.Flags().GetString("out"); v != "" {
		cfg.Output.Dir = v
	}
}

func printSummary(report *evaluation.Report, indexPath, reportPath string) {
	bold := color.New(color.Bold)
	prrColor := color.New(color.FgGreen)
	if report.PRR >= 0.5 {
		prrColor = color.New(color.FgRed)
	} else if report.PRR > 0 {
		prrColor = color.New(color.FgYellow)
	}

	fmt.Println()
	bold.Println("Evaluation summary")
	fmt.Printf("  run:      %s\n", report.RunID)
	fmt.Printf("  backend:  %s\n", report.Backend)
	fmt.Printf("  records:  %d (%d benign, %d poisoned)\n",
		report.Records, report.Benign, report.Poisoned)
	fmt.Printf("  queries:  %d (%d failed)\n", len(report.Queries), report.Failed)
	fmt.Printf("  PRR:      %s\n", prrColor.Sprintf("%.4f", report.PRR))
	if indexPath != "" {
		fmt.Printf("  index:    %s\n", indexPath)
	}
	if reportPath != "" {
		fmt.Printf("  report:   %s\n", reportPath)
	}
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run one query against a persisted index",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}

	cmd.Flags().String("index", "", "index artifact path (defaults to <out dir>/<index file>)")
	cmd.Flags().IntP("top-k", "k", 0, "retrieved records (overrides config)")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	indexPath, _ := cmd.Flags().GetString("index")
	if indexPath == "" {
		indexPath = filepath.Join(cfg.Output.Dir, cfg.Output.IndexFile)
	}
	k := cfg.Index.TopK
	if v, _ := cmd.Flags().GetInt("top-k"); v > 0 {
		k = v
	}

	provider := embedding.NewProvider(cfg.Embedding, log)
	backend, err := index.Load(indexPath, provider)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	hits, err := backend.Query(ctx, args[0], k)
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Println("no results")
		return nil
	}

	poisonedTag := color.New(color.FgRed, color.Bold)
	for i, hit := range hits {
		tag := "benign"
		if label, ok := backend.Label(hit.ID); ok && label == store.LabelPoisoned {
			tag = poisonedTag.Sprint("POISONED")
		}
		fmt.Printf("%2d. %-30s score=%.4f  %s\n", i+1, hit.ID, hit.Score, tag)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("memgraft %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
