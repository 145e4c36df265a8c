package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Discovery sources.
const (
	SourceGraphQL  = "graphql"
	SourcePostgres = "postgres"
	SourceStatic   = "static"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL         string
	Source         string
	GraphQLURL     string
	PGDSN          string
	PGTable        string
	Raffles        []string
	EventName      string
	RaffleABI      string
	Window         uint64
	MaxQueryRange  uint64
	MetaCacheSize  int
	TransfersOnly  bool
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Out            string
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RAFFLESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", SourceGraphQL)
	v.SetDefault("graphql-url", "https://api.thegraph.com/subgraphs/name/top-comengineer/raffle/")
	v.SetDefault("pg-table", "raffle_starts")
	v.SetDefault("event", "WinnerChosen")
	v.SetDefault("window", uint64(100000))
	v.SetDefault("max-query-range", uint64(0))
	v.SetDefault("meta-cache-size", 4096)
	v.SetDefault("transfers-only", false)
	v.SetDefault("request-timeout", 30*time.Second)
	v.SetDefault("max-retries", 2)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("out", "-")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:         v.GetString("rpc"),
		Source:         strings.ToLower(strings.TrimSpace(v.GetString("source"))),
		GraphQLURL:     v.GetString("graphql-url"),
		PGDSN:          v.GetString("pg-dsn"),
		PGTable:        v.GetString("pg-table"),
		Raffles:        getStringSlice(v, "raffle"),
		EventName:      v.GetString("event"),
		RaffleABI:      v.GetString("raffle-abi"),
		Window:         v.GetUint64("window"),
		MaxQueryRange:  v.GetUint64("max-query-range"),
		MetaCacheSize:  v.GetInt("meta-cache-size"),
		TransfersOnly:  v.GetBool("transfers-only"),
		RequestTimeout: v.GetDuration("request-timeout"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		Out:            v.GetString("out"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Window == 0 {
		return fmt.Errorf("window must be greater than zero")
	}
	return nil
}

// ValidateSource checks the discovery settings used by the run command.
func (c Config) ValidateSource() error {
	switch c.Source {
	case SourceGraphQL:
		if c.GraphQLURL == "" {
			return fmt.Errorf("graphql url is required")
		}
	case SourcePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for source %q", c.Source)
		}
	case SourceStatic:
		if len(c.Raffles) == 0 {
			return fmt.Errorf("at least one --raffle is required for source %q", c.Source)
		}
	default:
		return fmt.Errorf("unknown source %q (want graphql, postgres or static)", c.Source)
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
