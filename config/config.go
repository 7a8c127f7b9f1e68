package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/core/retrieval"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
)

// DefaultPath is read by Load when no path is given
const DefaultPath = "hiersearch.toml"

// Config holds every setting of an indexing or retrieval run
type Config struct {
	Database helper.DatabaseConfiguration `toml:"database"`
	Chunker  pipeline.ChunkerConfig       `toml:"chunker"`
	Retrieve model.RetrieveOptions        `toml:"retrieve"`
	Models   pipeline.ModelConfig         `toml:"models"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Database: helper.DatabaseConfiguration{
			Host:    "localhost",
			Port:    "5432",
			Schema:  "public",
			SSLMode: "disable",
		},
		Chunker:  pipeline.DefaultChunkerConfig(),
		Retrieve: model.DefaultRetrieveOptions(),
		Models:   pipeline.DefaultModelConfig(),
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
// A missing file is only an error when path is given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		err = toml.Unmarshal(data, &cfg)
		if err != nil {
			return cfg, helper.NewError("decode config", fmt.Errorf("%s: %w", path, err))
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, helper.NewError("read config", err)
	}

	// Env overrides, a .env file in the working directory is loaded first if present
	err = godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, helper.NewError("load env", err)
	}
	override(&cfg.Database.Host, helper.EnvDBHost)
	override(&cfg.Database.Port, helper.EnvDBPort)
	override(&cfg.Database.Database, helper.EnvDBDatabase)
	override(&cfg.Database.Username, helper.EnvDBUsername)
	override(&cfg.Database.Password, helper.EnvDBPassword)
	override(&cfg.Database.Schema, helper.EnvDBSchema)
	override(&cfg.Database.SSLMode, helper.EnvDBSSLMode)

	return cfg, nil
}

// Validate checks the settings needed to connect, to load the models and to retrieve
func (c Config) Validate() error {
	if c.Database.Database == "" || c.Database.Username == "" {
		return helper.NewError("validate config", errors.New("database name and username must be set"))
	}
	if c.Models.Dimension <= 0 {
		return helper.NewError("validate config", fmt.Errorf("embedding dimension must be positive, got %d", c.Models.Dimension))
	}
	if c.Models.DefaultLanguage == "" {
		return helper.NewError("validate config", errors.New("default language must be set"))
	}
	if c.Chunker.MaxChunkSize <= 0 {
		return helper.NewError("validate config", fmt.Errorf("max chunk size must be positive, got %d", c.Chunker.MaxChunkSize))
	}
	if c.Retrieve.RetrieveNb <= 0 {
		return helper.NewError("validate config", fmt.Errorf("retrieve_nb must be positive, got %d", c.Retrieve.RetrieveNb))
	}
	_, err := retrieval.ParseRetrieveMode(c.Retrieve.Mode)
	if err != nil {
		return helper.NewError("validate config", err)
	}
	return nil
}

func override(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}
