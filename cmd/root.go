package cmd

import (
	"log"
	"time"

	"ats-screener/internal/profile"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "ats-screener"

	defaultUser = "default"
)

type Config struct {
	User     string           `mapstructure:"user"`
	Profile  *profile.Profile `mapstructure:"profile"`
	Sources  *SourcesConfig   `mapstructure:"sources"`
	Database *DatabaseConfig  `mapstructure:"database"`
	AI       *AIConfig        `mapstructure:"ai"`
	Scan     *ScanConfig      `mapstructure:"scan"`
}

type SourcesConfig struct {
	// Directories are local folders with CV files to ingest.
	Directories []string `mapstructure:"directories"`
}

type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn"`
	DSNFile string `mapstructure:"dsn-file"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ScanConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	ExtractTimeout time.Duration `mapstructure:"extract-timeout"`
	ScoreTimeout   time.Duration `mapstructure:"score-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ats-screener scans CV sources and shortlists candidates for a configured role",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	if err := viper.BindEnv("database.dsn", "ATS_DATABASE_DSN"); err != nil {
		log.Fatalf("binding ATS_DATABASE_DSN environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ats-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command works without a config file.
	if scanCmd.CalledAs() == "" && candidatesCmd.CalledAs() == "" && statusCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
