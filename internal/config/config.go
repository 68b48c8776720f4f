// Package config loads the settings of the flowdesk binary: a YAML or JSON file,
// then FLOWDESK_* environment overrides, then validation.
package config

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config is the complete process configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" json:"log"`
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Editor  EditorConfig  `yaml:"editor" json:"editor"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json" json:"json"`
}

type HTTPConfig struct {
	Addr        string   `yaml:"addr" json:"addr" validate:"required,hostname_port"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins" validate:"dive,required"`
	Metrics     bool     `yaml:"metrics" json:"metrics"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" json:"driver" validate:"oneof=memory file redis sqlite postgres"`
	// Dir is the directory of the file driver.
	Dir    string `yaml:"dir" json:"dir"`
	Format string `yaml:"format" json:"format" validate:"oneof=json yaml"`

	Redis    RedisConfig    `yaml:"redis" json:"redis"`
	SQLite   SQLiteConfig   `yaml:"sqlite" json:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`

	// EncryptionKey enables at-rest encryption: base64 of 32 bytes.
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key" validate:"omitempty,base64"`
	// MaskPatterns are regular expressions of unknown-field keys masked before storage.
	MaskPatterns []string `yaml:"mask_patterns" json:"mask_patterns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr" validate:"omitempty,hostname_port"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix" json:"prefix"`
	Compress bool   `yaml:"compress" json:"compress"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" json:"path"`
}

type PostgresConfig struct {
	URL string `yaml:"url" json:"url" validate:"omitempty,url"`
}

type EditorConfig struct {
	EndNodePolicy string `yaml:"end_node_policy" json:"end_node_policy" validate:"oneof=positional first"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Log:  LogConfig{Level: "info"},
		HTTP: HTTPConfig{Addr: ":8080"},
		Storage: StorageConfig{
			Driver: "file",
			Dir:    ".flowdesk/flows",
			Format: "json",
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "flowdesk:"},
			SQLite: SQLiteConfig{Path: "flowdesk.db"},
		},
		Editor: EditorConfig{EndNodePolicy: "positional"},
	}
}

var validate = validator.New()

// Validate checks field constraints and the settings each storage driver needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var missing []string
	switch c.Storage.Driver {
	case "file":
		if c.Storage.Dir == "" {
			missing = append(missing, "storage.dir")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			missing = append(missing, "storage.redis.addr")
		}
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			missing = append(missing, "storage.sqlite.path")
		}
	case "postgres":
		if c.Storage.Postgres.URL == "" {
			missing = append(missing, "storage.postgres.url")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid config: storage driver %q requires %s", c.Storage.Driver, strings.Join(missing, ", "))
	}

	if _, err := c.Storage.Key(); err != nil {
		return err
	}
	return nil
}

// Key decodes the encryption key. It returns nil when encryption is disabled.
func (s StorageConfig) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid config: storage.encryption_key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid config: storage.encryption_key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
