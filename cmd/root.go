package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "outlet-matcher"
)

type Config struct {
	Database     *DatabaseConfig  `mapstructure:"database"`
	Matching     *MatchingConfig  `mapstructure:"matching"`
	News         *NewsConfig      `mapstructure:"news"`
	Directory    *DirectoryConfig `mapstructure:"directory"`
	FeedbackLock string           `mapstructure:"feedback-lock"`
}

type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	DSNFile string `mapstructure:"dsn-file"`
}

type MatchingConfig struct {
	Limit        int           `mapstructure:"limit"`
	Semantic     string        `mapstructure:"semantic"`
	TaxonomyFile string        `mapstructure:"taxonomy-file"`
	Workers      int           `mapstructure:"workers"`
	FetchTimeout time.Duration `mapstructure:"fetch-timeout"`
	// Weights are manual field weight overrides, keyed by field name.
	Weights         map[string]float64 `mapstructure:"weights"`
	ExcludedOutlets []string           `mapstructure:"excluded-outlets"`
	MinOffTopicHits int                `mapstructure:"min-off-topic-hits"`
	DisabledFilters []string           `mapstructure:"disabled-filters"`
	Gemini          *GeminiConfig      `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

// DirectoryConfig holds the credentials of a remote outlet directory.
type DirectoryConfig struct {
	TokenFile string `mapstructure:"token-file"`
}

type NewsConfig struct {
	MaxItems  int           `mapstructure:"max-items"`
	MaxAge    time.Duration `mapstructure:"max-age"`
	Delay     time.Duration `mapstructure:"delay"`
	UserAgent string        `mapstructure:"user-agent"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "outlet-matcher ranks media outlets for a press pitch",
	}
)

// Execute executes the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	envBindings := map[string]string{
		"database.dsn":                 "OUTLET_MATCHER_DB_DSN",
		"database.dsn-file":            "OUTLET_MATCHER_DB_DSN_FILE",
		"matching.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"directory.token-file":         "OUTLET_MATCHER_DIRECTORY_TOKEN_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", app+".db")
	viper.SetDefault("matching.limit", 20)
	viper.SetDefault("matching.semantic", "tfidf")
	viper.SetDefault("matching.workers", 4)
	viper.SetDefault("matching.fetch-timeout", "10s")
	viper.SetDefault("matching.min-off-topic-hits", 2)
	viper.SetDefault("matching.gemini.max-retries", 3)
	viper.SetDefault("news.max-items", 20)
	viper.SetDefault("news.max-age", "720h")
	viper.SetDefault("news.delay", "1s")
	viper.SetDefault("feedback-lock", app+".lock")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is outlet-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// A missing .env is fine; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Database == nil {
		config.Database = &DatabaseConfig{}
	}
	if config.Matching == nil {
		config.Matching = &MatchingConfig{}
	}
	if config.Matching.Gemini == nil {
		config.Matching.Gemini = &GeminiConfig{}
	}
	if config.News == nil {
		config.News = &NewsConfig{}
	}
	if config.Directory == nil {
		config.Directory = &DirectoryConfig{}
	}
	config.Matching.Semantic = strings.ToLower(strings.TrimSpace(config.Matching.Semantic))

	return config, nil
}
