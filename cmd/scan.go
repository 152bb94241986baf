package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"ats-screener/internal/ai"
	"ats-screener/internal/ai/gemini"
	"ats-screener/internal/candidate"
	"ats-screener/internal/logger"
	"ats-screener/internal/scan"
	"ats-screener/internal/scoring"
	"ats-screener/internal/secrets"
	"ats-screener/internal/source"
	"ats-screener/internal/store/postgres"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptShowShortlist = "Show shortlist report"
	PromptDumpToFile    = "Dump shortlist to file"
	PromptExit          = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Scan finished. What next?",
	Items: []string{PromptShowShortlist, PromptDumpToFile, PromptExit},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a full scan: ingest CVs, score them against the profile and rank the shortlist",
	Run: func(cmd *cobra.Command, _ []string) {
		runScan(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolP("auto-approve", "y", false, "print the shortlist report and exit without prompting")
	scanCmd.Flags().StringSliceP("cv-dir", "s", nil, "cv directories to scan, in addition to sources.directories from the config")
}

// runScan is the main command for the cli.
func runScan(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the ats-screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Profile == nil || strings.TrimSpace(config.Profile.JobTitle) == "" {
		logger.Fatal("a job title is required under profile.job-title to screen candidates against")
	}

	store := openStore(ctx, config, logger)
	defer store.Close()

	sources := prepareSources(cmd, config, logger)
	if len(sources) == 0 {
		logger.Fatal("at least one cv source is required",
			zap.String("hint", "set sources.directories in the configuration file or pass --cv-dir"),
		)
	}

	scorer, err := newAIScorer(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building ai scorer",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY_FILE"),
		)
	}

	orchestrator := scan.New(store, sources, prepareScorers(config, scorer, logger), scorer, logger, scanOptions(config))

	p := config.Profile
	p.UserID = resolveUser(config)

	runID, err := orchestrator.StartScan(ctx, p)
	if err != nil {
		logger.Fatal("starting the scan", zap.Error(err))
	}

	logger.Info("scan started", zap.String("run_id", runID), zap.String("user", p.UserID))
	orchestrator.Wait(runID)

	run, err := orchestrator.GetScanStatus(ctx, runID)
	if err != nil {
		logger.Fatal("getting the scan status", zap.Error(err))
	}

	if run.Status != scan.StatusCompleted {
		logger.Fatal("scan did not complete",
			zap.String("status", string(run.Status)),
			zap.String("error", run.Error),
		)
	}

	ranked, err := orchestrator.GetRankedCandidates(ctx, runID)
	if err != nil {
		logger.Fatal("getting ranked candidates", zap.Error(err))
	}

	if len(ranked) == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates left after filtering and ranking"))
		return
	}

	shortlist := &candidate.Candidates{Items: ranked}

	action := PromptShowShortlist
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current shortlist", zap.Int("count", shortlist.Len()))

		if err := handleAction(action, logger, shortlist); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		if cmd.Flag("auto-approve").Value.String() == "true" {
			return
		}
	}
}

func handleAction(action string, logger *zap.Logger, shortlist *candidate.Candidates) error {
	switch action {
	case PromptShowShortlist:
		pretty, _ := json.MarshalIndent(shortlist.Report(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", shortlist.Len()))
		return nil
	case PromptDumpToFile:
		filename, err := shortlist.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func resolveUser(config *Config) string {
	user := strings.TrimSpace(config.User)
	if user == "" {
		return defaultUser
	}
	return user
}

func openStore(ctx context.Context, config *Config, logger *zap.Logger) *postgres.Store {
	if config.Database == nil {
		logger.Fatal("database configuration is required",
			zap.String("hint", "set database.dsn, database.dsn-file or ATS_DATABASE_DSN"),
		)
	}

	dsn, err := secrets.Load(secrets.Source{
		Name:  "database dsn",
		Value: config.Database.DSN,
		File:  config.Database.DSNFile,
	})
	if err != nil {
		logger.Fatal("loading database dsn", zap.Error(err))
	}

	store, err := postgres.New(dsn, logger)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		logger.Fatal("migrating the database schema", zap.Error(err))
	}

	return store
}

func prepareSources(cmd *cobra.Command, config *Config, logger *zap.Logger) []source.Source {
	dirs := make([]string, 0)
	if config.Sources != nil {
		dirs = append(dirs, config.Sources.Directories...)
	}

	if cmd != nil {
		flagged, err := cmd.Flags().GetStringSlice("cv-dir")
		if err == nil {
			dirs = append(dirs, flagged...)
		}
	}

	seen := make(map[string]bool, len(dirs))
	sources := make([]source.Source, 0, len(dirs))
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		sources = append(sources, source.NewDirectory(dir, logger))
	}

	return sources
}

func prepareScorers(config *Config, scorer ai.Scorer, logger *zap.Logger) []scoring.CriterionScorer {
	deps := scoring.Deps{
		Scorer: scorer,
		Logger: logger,
	}

	if config.Scan != nil {
		deps.Timeout = config.Scan.ScoreTimeout
	}

	return scoring.All(deps)
}

func scanOptions(config *Config) scan.Options {
	opts := scan.Options{}
	if config.Scan != nil {
		opts.Concurrency = config.Scan.Concurrency
		opts.ExtractTimeout = config.Scan.ExtractTimeout
	}
	return opts
}

func newAIScorer(ctx context.Context, cfg *AIConfig, baseLogger *zap.Logger) (*gemini.Scorer, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required under ai.gemini")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	aiLogger := logger.WithCommonFields(baseLogger, "gemini", cfg.Gemini.Model)

	genLogger := logger.WithFields(aiLogger,
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewScorer(generator, aiLogger, cfg.Gemini.MaxLogLength), nil
}
