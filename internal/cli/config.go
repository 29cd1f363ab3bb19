package cli

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/agentlens/agentlens/pkg/pipeline"
)

// Config holds user preferences loaded from ~/.config/agentlens/config.toml.
// All fields are optional; zero values fall back to pipeline defaults.
//
// Example config:
//
//	strategy = "graphviz"
//	direction = "LR"
//	no_cache = false
//
//	[server]
//	addr = ":8080"
//	redis_url = "redis://localhost:6379/0"
//	mongo_url = "mongodb://localhost:27017"
//	mongo_db = "agentlens"
type Config struct {
	Strategy  string       `toml:"strategy"`
	Direction string       `toml:"direction"`
	NoCache   bool         `toml:"no_cache"`
	Server    ServerConfig `toml:"server"`
}

// ServerConfig holds settings for the serve command.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	RedisURL string `toml:"redis_url"`
	MongoURL string `toml:"mongo_url"`
	MongoDB  string `toml:"mongo_db"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:  pipeline.DefaultStrategy,
		Direction: pipeline.DefaultDirection,
		Server: ServerConfig{
			Addr:    ":8080",
			MongoDB: appName,
		},
	}
}

// LoadConfig reads a config file and merges it over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}
	cfg.fillDefaults()
	return cfg, nil
}

// LoadConfigOrDefault loads the user's config file, falling back to defaults
// when the file is missing or unreadable.
func LoadConfigOrDefault() Config {
	path, err := configPath()
	if err != nil {
		return DefaultConfig()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// fillDefaults restores defaults for fields the file left empty.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Strategy == "" {
		c.Strategy = def.Strategy
	}
	if c.Direction == "" {
		c.Direction = def.Direction
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.MongoDB == "" {
		c.Server.MongoDB = def.Server.MongoDB
	}
}
