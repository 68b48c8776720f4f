package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FLOWDESK_"

// Load builds the configuration in order: defaults, the file at path (skipped
// when path is empty), a .env file in the working directory when present, and
// FLOWDESK_* variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Real environment variables win over .env entries.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overlays FLOWDESK_* variables on cfg.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = splitList(v)
		}
	}
	var errs []string
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	boolean("LOG_JSON", &cfg.Log.JSON)
	str("HTTP_ADDR", &cfg.HTTP.Addr)
	list("HTTP_CORS_ORIGINS", &cfg.HTTP.CORSOrigins)
	boolean("HTTP_METRICS", &cfg.HTTP.Metrics)
	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("STORAGE_DIR", &cfg.Storage.Dir)
	str("STORAGE_FORMAT", &cfg.Storage.Format)
	str("STORAGE_ENCRYPTION_KEY", &cfg.Storage.EncryptionKey)
	list("STORAGE_MASK_PATTERNS", &cfg.Storage.MaskPatterns)
	str("REDIS_ADDR", &cfg.Storage.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Storage.Redis.Password)
	integer("REDIS_DB", &cfg.Storage.Redis.DB)
	str("REDIS_PREFIX", &cfg.Storage.Redis.Prefix)
	boolean("REDIS_COMPRESS", &cfg.Storage.Redis.Compress)
	str("SQLITE_PATH", &cfg.Storage.SQLite.Path)
	str("POSTGRES_URL", &cfg.Storage.Postgres.URL)
	str("END_NODE_POLICY", &cfg.Editor.EndNodePolicy)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
