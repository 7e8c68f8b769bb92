package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Tick sources.
const (
	TickSourceSubgraph = "subgraph"
	TickSourceChain    = "chain"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Pool         string
	SubgraphURL  string
	APIKey       string
	Date         string
	TickWindow   int
	TickChunk    int64
	TickSource   string
	RPCURL       string
	Stablecoins  []string
	Format       string
	Out          string
	PGDSN        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOLSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("subgraph-url", "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v3")
	v.SetDefault("tick-window", 0)
	v.SetDefault("tick-chunk", int64(0))
	v.SetDefault("tick-source", TickSourceSubgraph)
	v.SetDefault("format", "text")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("max-retries", 0)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
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
		Pool:         strings.TrimSpace(v.GetString("pool")),
		SubgraphURL:  strings.TrimSpace(v.GetString("subgraph-url")),
		APIKey:       v.GetString("api-key"),
		Date:         strings.TrimSpace(v.GetString("date")),
		TickWindow:   v.GetInt("tick-window"),
		TickChunk:    v.GetInt64("tick-chunk"),
		TickSource:   strings.ToLower(strings.TrimSpace(v.GetString("tick-source"))),
		RPCURL:       strings.TrimSpace(v.GetString("rpc")),
		Stablecoins:  getStringSlice(v, "stablecoins"),
		Format:       strings.ToLower(strings.TrimSpace(v.GetString("format"))),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		Timeout:      v.GetDuration("timeout"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	if c.Pool == "" {
		return fmt.Errorf("pool is required")
	}
	if c.TickWindow < 0 {
		return fmt.Errorf("tick-window must be >= 0")
	}
	if c.TickChunk < 0 {
		return fmt.Errorf("tick-chunk must be >= 0")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must be >= 0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	switch c.TickSource {
	case TickSourceSubgraph:
	case TickSourceChain:
		if c.RPCURL == "" {
			return fmt.Errorf("tick-source %s requires rpc", TickSourceChain)
		}
	default:
		return fmt.Errorf("unsupported tick-source %q", c.TickSource)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
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
