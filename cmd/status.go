package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"ats-screener/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a scan run's status and progress counters",
	Run: func(cmd *cobra.Command, _ []string) {
		showStatus(cmd)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringP("run-id", "r", "", "scan run to inspect")
	statusCmd.MarkFlagRequired("run-id")
}

func showStatus(cmd *cobra.Command) {
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

	runID := cmd.Flag("run-id").Value.String()
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		logger.Fatal("getting the scan run", zap.String("run_id", runID), zap.Error(err))
	}

	pretty, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		logger.Fatal("encoding the scan run", zap.Error(err))
	}

	fmt.Println(string(pretty))
}
