package cmd

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/roomeo/internal/filtering"
	"github.com/spigell/roomeo/internal/matching"
)

const (
	app       = "roomeo"
	envPrefix = "ROOMEO"
)

type Config struct {
	Supabase SupabaseConfig   `mapstructure:"supabase"`
	AI       AIConfig         `mapstructure:"ai"`
	Redis    RedisConfig      `mapstructure:"redis"`
	Store    StoreConfig      `mapstructure:"store"`
	Matching MatchingConfig   `mapstructure:"matching"`
	Filters  filtering.Config `mapstructure:"filters"`
	Serve    ServeConfig      `mapstructure:"serve"`
}

type SupabaseConfig struct {
	URL      string `mapstructure:"url"`
	Key      string `mapstructure:"key"`
	KeyFile  string `mapstructure:"key-file"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	UserID   string `mapstructure:"user-id"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
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

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type MatchingConfig struct {
	Weights     matching.Weights `mapstructure:"weights"`
	WeightsFile string           `mapstructure:"weights-file"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "roomeo finds student housing and ranks listings by how well they fit you",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is roomeo.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().BoolP("offline", "o", false, "read listings and profiles from the local store instead of the backend")
	rootCmd.PersistentFlags().StringP("user", "u", "", "id of the profile acting as the seeker")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("offline", rootCmd.PersistentFlags().Lookup("offline"))
	viper.BindPFlag("supabase.user-id", rootCmd.PersistentFlags().Lookup("user"))

	viper.SetDefault("store.path", app+".db")
	viper.SetDefault("serve.addr", ":8080")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("ai.provider", "gemini")
}

func initConfig() {
	// A missing .env is fine, everything in it can be set in the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	for _, key := range []string{"supabase.url", "supabase.key", "supabase.email", "supabase.password", "ai.gemini.api-key"} {
		if err := viper.BindEnv(key); err != nil {
			log.Fatalf("binding %s environment variable: %v", key, err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Without an explicit --config the file is optional.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	config := &Config{
		Matching: MatchingConfig{Weights: matching.DefaultWeights()},
	}

	if err := viper.Unmarshal(config); err != nil {
		return config, err
	}

	if config.Matching.WeightsFile != "" {
		weights, err := matching.LoadWeightsFromFile(config.Matching.WeightsFile)
		if err != nil {
			return config, err
		}
		config.Matching.Weights = weights
	}

	return config, nil
}
