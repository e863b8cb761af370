// Package config reads the server configuration from an ini file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/wansing/ojsbridge/util"
	"gopkg.in/ini.v1"
)

// EnvPrefix is prepended to the upper-cased ini key, like OJSBRIDGE_ADMIN_KEY.
const EnvPrefix = "OJSBRIDGE_"

// Keys lists all known keys.
var Keys = []string{
	"listen",
	"base",
	"db",
	"secret",
	"admin_key",
	"token_ttl",
	"document_url",
	"placeholder_image",
	"default_templates",
	"submit_timeout",
	"ojs_timeout",
	"ojs_retries",
	"ojs_retry_delay",
	"ojs_rate",
	"sweep_schedule",
	"log_level",
	"log_format",
}

type Config struct {
	Listen   string
	Base     string // url prefix
	DB       string // see github.com/xo/dburl
	Secret   string
	AdminKey string // empty disables the admin endpoints

	TokenTTL         time.Duration
	DocumentURL      string
	PlaceholderImage string
	DefaultTemplates []int
	SubmitTimeout    time.Duration

	OJSTimeout    time.Duration
	OJSRetries    int
	OJSRetryDelay time.Duration
	OJSRate       float64 // requests per second, zero means unlimited

	SweepSchedule string // cron spec, empty disables the sweep

	LogLevel  string
	LogFormat string // "json" or "console"
}

// Default returns the configuration which is used for keys that are not set.
func Default() *Config {
	return &Config{
		Listen:           "127.0.0.1:8080",
		DB:               "sqlite3:ojsbridge.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&cache=shared",
		TokenTTL:         10 * time.Minute,
		DocumentURL:      "/document/%d/",
		PlaceholderImage: "img/error.png",
		DefaultTemplates: []int{},
		SubmitTimeout:    2 * time.Minute,
		OJSTimeout:       40 * time.Second,
		OJSRetries:       10,
		OJSRetryDelay:    3 * time.Second,
		SweepSchedule:    "@every 10m",
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// Load reads the ini file at path and the given env files (".env" if none is given). Missing files are ignored.
// Environment variables override values from the ini file.
func Load(path string, envFiles ...string) (*Config, error) {

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, envFile := range envFiles {
		// godotenv does not override variables which are set already
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	var section = file.Section("")
	for _, key := range Keys {
		if value, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(key)); ok && value != "" {
			section.Key(key).SetValue(value)
		}
	}

	var cfg = Default()
	if err := cfg.apply(section); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// apply overwrites the fields whose keys exist in section.
func (cfg *Config) apply(section *ini.Section) error {

	var strs = map[string]*string{
		"listen":            &cfg.Listen,
		"base":              &cfg.Base,
		"db":                &cfg.DB,
		"secret":            &cfg.Secret,
		"admin_key":         &cfg.AdminKey,
		"document_url":      &cfg.DocumentURL,
		"placeholder_image": &cfg.PlaceholderImage,
		"sweep_schedule":    &cfg.SweepSchedule,
		"log_level":         &cfg.LogLevel,
		"log_format":        &cfg.LogFormat,
	}
	for key, ptr := range strs {
		if section.HasKey(key) {
			*ptr = strings.TrimSpace(section.Key(key).String())
		}
	}

	var durations = map[string]*time.Duration{
		"token_ttl":       &cfg.TokenTTL,
		"submit_timeout":  &cfg.SubmitTimeout,
		"ojs_timeout":     &cfg.OJSTimeout,
		"ojs_retry_delay": &cfg.OJSRetryDelay,
	}
	for key, ptr := range durations {
		if !section.HasKey(key) {
			continue
		}
		d, err := section.Key(key).Duration()
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if d < 0 {
			return fmt.Errorf("%s: must not be negative", key)
		}
		*ptr = d
	}

	if section.HasKey("ojs_retries") {
		retries, err := section.Key("ojs_retries").Int()
		if err != nil {
			return fmt.Errorf("ojs_retries: %w", err)
		}
		if retries < 0 {
			return errors.New("ojs_retries: must not be negative")
		}
		cfg.OJSRetries = retries
	}

	if section.HasKey("ojs_rate") {
		r, err := section.Key("ojs_rate").Float64()
		if err != nil {
			return fmt.Errorf("ojs_rate: %w", err)
		}
		cfg.OJSRate = r
	}

	if section.HasKey("default_templates") {
		templates, err := util.ParseInts(section.Key("default_templates").String())
		if err != nil {
			return fmt.Errorf("default_templates: %w", err)
		}
		cfg.DefaultTemplates = templates
	}

	switch cfg.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format: unknown format %q", cfg.LogFormat)
	}

	return nil
}
