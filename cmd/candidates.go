package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"ats-screener/internal/candidate"
	"ats-screener/internal/logger"
	"ats-screener/internal/scan"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Print a finished run's ranked shortlist as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		showCandidates(cmd)
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)

	candidatesCmd.Flags().StringP("run-id", "r", "", "scan run to show candidates for")
	candidatesCmd.MarkFlagRequired("run-id")

	candidatesCmd.Flags().Bool("full", false, "print full records instead of the short report")
}

func showCandidates(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store := openStore(ctx, config, logger)
	defer store.Close()

	orchestrator := scan.New(store, nil, nil, nil, logger, scan.Options{})

	runID := cmd.Flag("run-id").Value.String()
	ranked, err := orchestrator.GetRankedCandidates(ctx, runID)
	if err != nil {
		logger.Fatal("getting ranked candidates", zap.String("run_id", runID), zap.Error(err))
	}

	if len(ranked) == 0 {
		logger.Info("no ranked candidates for this run", zap.String("run_id", runID))
		return
	}

	shortlist := &candidate.Candidates{Items: ranked}

	var out any = shortlist.Report()
	if cmd.Flag("full").Value.String() == "true" {
		out = shortlist
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Fatal("encoding candidates", zap.Error(err))
	}

	fmt.Println(string(pretty))
}
