// Package config holds the typed configuration surface of the pipeline.
// Every recognized option is enumerated here and validated at load time;
// there is no free-form attribute access.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "ONEMUSIC_CONFIG"

// DefaultConfigPaths lists where the config file is searched, in order.
var DefaultConfigPaths = []string{
	"onemusic.yaml",
	"onemusic.yml",
	"config/onemusic.yaml",
}

// Config is the full configuration tree.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Registry RegistryConfig `koanf:"registry"`
	Spotify  SpotifyConfig  `koanf:"spotify"`
	Genius   GeniusConfig   `koanf:"genius"`
	Cohere   CohereConfig   `koanf:"cohere"`
	Pinecone PineconeConfig `koanf:"pinecone"`
	Weaviate WeaviateConfig `koanf:"weaviate"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

type RegistryConfig struct {
	ConnectionString string `koanf:"connection_string" validate:"required"`
}

type SpotifyConfig struct {
	ClientID       string `koanf:"client_id"`
	ClientSecret   string `koanf:"client_secret"`
	UserID         string `koanf:"user_id" validate:"required"`
	PlaylistFilter string `koanf:"playlist_filter"`
}

type GeniusConfig struct {
	ClientToken string        `koanf:"client_token"`
	SaveDir     string        `koanf:"save_dir" validate:"required"`
	MinDelay    time.Duration `koanf:"min_delay" validate:"gte=0"`
	MaxDelay    time.Duration `koanf:"max_delay" validate:"gtefield=MinDelay"`
}

type CohereConfig struct {
	APIKey     string        `koanf:"api_key"`
	EmbedModel string        `koanf:"embed_model" validate:"required"`
	RetryWait  time.Duration `koanf:"retry_wait" validate:"gt=0"`
}

type PineconeConfig struct {
	APIKey      string `koanf:"api_key"`
	Environment string `koanf:"environment"`
	IndexName   string `koanf:"index_name"`
	Dimension   int    `koanf:"dimension" validate:"gte=1"`
	BatchSize   int    `koanf:"batch_size" validate:"gte=1"`
	DataDir     string `koanf:"data_dir" validate:"required"`
}

type WeaviateConfig struct {
	ConnectionURL string  `koanf:"connection_url" validate:"required"`
	SchemaDir     string  `koanf:"schema_dir" validate:"required"`
	DataDir       string  `koanf:"data_dir" validate:"required"`
	BatchSize     int     `koanf:"batch_size" validate:"gte=1"`
	TargetRate    float64 `koanf:"target_rate" validate:"gt=0"`
	SnapshotDir   string  `koanf:"snapshot_dir" validate:"required"`
}

func defaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Registry: RegistryConfig{
			ConnectionString: "registry.db",
		},
		Spotify: SpotifyConfig{
			UserID:         "spotify",
			PlaylistFilter: "Top 50 -",
		},
		Genius: GeniusConfig{
			SaveDir: "data/lyrics",
			// Courtesy window for the lyrics site and the detector API.
			MinDelay: 15 * time.Second,
			MaxDelay: 45 * time.Second,
		},
		Cohere: CohereConfig{
			EmbedModel: "embed-multilingual-v2.0",
			RetryWait:  30 * time.Second,
		},
		Pinecone: PineconeConfig{
			IndexName: "one-music",
			Dimension: 768,
			BatchSize: 32,
			DataDir:   "data/lyrics",
		},
		Weaviate: WeaviateConfig{
			ConnectionURL: "http://localhost:8080",
			SchemaDir:     "config/schemas",
			DataDir:       "data/lyrics",
			BatchSize:     20,
			TargetRate:    1.6,
			SnapshotDir:   "data/snapshots",
		},
	}
}

// Load builds the configuration from layered sources: built-in defaults,
// then an optional YAML file, then ONEMUSIC_-prefixed environment
// variables (a double underscore separates nesting levels, e.g.
// ONEMUSIC_SPOTIFY__CLIENT_ID). Validation failures abort the load.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
		}
	}

	envProvider := env.Provider("ONEMUSIC_", ".", func(s string) string {
		trimmed := strings.ToLower(strings.TrimPrefix(s, "ONEMUSIC_"))
		return strings.ReplaceAll(trimmed, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fails fast on structurally invalid configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

// RequireFor checks that the credentials a given stage needs are present.
// Structural validation happens at load; credentials are only required by
// the stages that use them.
func (c *Config) RequireFor(stage string) error {
	missing := func(key string) error {
		return fmt.Errorf("config: stage %s requires %s", stage, key)
	}

	switch stage {
	case "poll-spotify", "poll-features":
		if c.Spotify.ClientID == "" {
			return missing("spotify.client_id")
		}
		if c.Spotify.ClientSecret == "" {
			return missing("spotify.client_secret")
		}
	case "poll-genius":
		if c.Genius.ClientToken == "" {
			return missing("genius.client_token")
		}
		if c.Cohere.APIKey == "" {
			return missing("cohere.api_key")
		}
	case "push-pinecone":
		if c.Pinecone.APIKey == "" {
			return missing("pinecone.api_key")
		}
		if c.Pinecone.Environment == "" {
			return missing("pinecone.environment")
		}
		if c.Cohere.APIKey == "" {
			return missing("cohere.api_key")
		}
	case "push-weaviate", "snapshot":
		// Local services and files only.
	default:
		return fmt.Errorf("config: unknown stage %q", stage)
	}

	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
