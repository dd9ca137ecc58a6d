package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/castaway-media/castaway/internal/api"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// CastawayConfig is the struct used to contain the
// various user config supplied by file, environment, or
// manually inside the code.
type CastawayConfig struct {
	MediaDirPath    string         `yaml:"media_dir" env:"MEDIA_DIR" validate:"required"`
	CatalogFilePath string         `yaml:"catalog_file" env:"CATALOG_FILE"`
	BlockStoreURL   string         `yaml:"blockstore_url" env:"BLOCKSTORE_URL" env-default:"http://127.0.0.1:5001" validate:"required,url"`
	SyncParallelism int            `yaml:"sync_parallelism" env:"SYNC_PARALLELISM" env-default:"2" validate:"gte=0"`
	RestConfig      api.RestConfig `yaml:"api"`
}

// Load populates the config from the YAML file at the path provided
// (when one exists) together with the process environment, then
// validates the result. A missing config file is not an error - the
// environment alone can fully configure Castaway.
func (config *CastawayConfig) Load(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, config); err != nil {
			return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(config); err != nil {
			return fmt.Errorf("failed to load configuration from environment: %w", err)
		}
	} else {
		return fmt.Errorf("configuration file %s could not be accessed: %w", configPath, err)
	}

	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	return nil
}

// getCatalogPath will return the location used for the durable catalog
// file. It will first look in the config for a value, but if none is
// found, a default beneath the user cache dir will be returned. If the
// default cannot be derived due to an error, a panic will occur.
func (config *CastawayConfig) getCatalogPath() string {
	if config.CatalogFilePath != "" {
		return config.CatalogFilePath
	}

	dir, err := os.UserCacheDir()
	if err != nil {
		panic(fmt.Sprintf("FAILURE to derive user cache dir %s", err))
	}

	return filepath.Join(dir, CASTAWAY_USER_DIR_SUFFIX, "catalog.json")
}

// DefaultConfigPath derives the default location of the YAML
// configuration file, falling back to the working directory when no
// user config dir can be derived.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "castaway.yaml"
	}

	return filepath.Join(dir, CASTAWAY_USER_DIR_SUFFIX, "config.yaml")
}
