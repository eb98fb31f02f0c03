package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from a .env file and config.yaml, with
// environment variables overriding both. Missing files are not an error;
// every tunable has a default so the bot can start from credentials alone.
func LoadConfig() {
	// Environment variables first, from .env if present.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("No config.yaml found, using environment variables and defaults.")
		} else {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}
}

func setDefaults() {
	viper.SetDefault("bot.postInterval", "8h")
	viper.SetDefault("bot.maxPostsPerWeek", 21)
	viper.SetDefault("bot.maxRepliesPerWeek", 79)
	viper.SetDefault("bot.repliesPerRun", 3)
	viper.SetDefault("bot.generateAttempts", 3)
	viper.SetDefault("bot.metricsInterval", "6h")
	viper.SetDefault("bot.metricsWindow", "24h")
	viper.SetDefault("bot.metricsBatch", 10)
	viper.SetDefault("bot.runInterval", "@every 15m")
	viper.SetDefault("bot.runAtStartup", true)
	viper.SetDefault("bot.dbPath", "data/bot.db")
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
}

// Bot holds the orchestration tunables for one runner.
type Bot struct {
	PostInterval      time.Duration
	MaxPostsPerWeek   int
	MaxRepliesPerWeek int
	RepliesPerRun     int
	GenerateAttempts  int
	MetricsInterval   time.Duration
	MetricsWindow     time.Duration
	MetricsBatch      int
}

// BotConfig assembles the runner tunables from viper.
func BotConfig() Bot {
	return Bot{
		PostInterval:      viper.GetDuration("bot.postInterval"),
		MaxPostsPerWeek:   viper.GetInt("bot.maxPostsPerWeek"),
		MaxRepliesPerWeek: viper.GetInt("bot.maxRepliesPerWeek"),
		RepliesPerRun:     viper.GetInt("bot.repliesPerRun"),
		GenerateAttempts:  viper.GetInt("bot.generateAttempts"),
		MetricsInterval:   viper.GetDuration("bot.metricsInterval"),
		MetricsWindow:     viper.GetDuration("bot.metricsWindow"),
		MetricsBatch:      viper.GetInt("bot.metricsBatch"),
	}
}
