// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/diffeo/go-coffee/backend"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v2"
)

// config is the complete daemon configuration.  It is assembled from
// defaults, then the YAML file, then $DATABASE_URL, then the command
// line, each overriding the last.
type config struct {
	HTTP        string `mapstructure:"http"`
	Backend     string `mapstructure:"backend"`
	LogLevel    string `mapstructure:"log_level"`
	LogRequests bool   `mapstructure:"log_requests"`
	CacheSize   int    `mapstructure:"cache_size"`
}

func defaultConfig() config {
	return config{
		HTTP:     ":5000",
		Backend:  "memory",
		LogLevel: "info",
	}
}

func loadConfigYaml(filename string) (map[string]interface{}, error) {
	var result map[string]interface{}
	var err error
	var bytes []byte
	bytes, err = ioutil.ReadFile(filename)
	if err == nil {
		err = yaml.Unmarshal(bytes, &result)
	}
	return result, err
}

// applyYaml overlays the settings in a parsed YAML file.  It returns
// the keys that were present.  Unknown keys are an error.
func (cfg *config) applyYaml(settings map[string]interface{}) ([]string, error) {
	var metadata mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		Metadata:         &metadata,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err == nil {
		err = decoder.Decode(settings)
	}
	return metadata.Keys, err
}

// applyFlags overlays every flag the user set, either on the command
// line or through its environment variable.
func (cfg *config) applyFlags(c *cli.Context) {
	if c.IsSet("http") {
		cfg.HTTP = c.String("http")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.Generic("backend").(*backend.Backend).String()
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-requests") {
		cfg.LogRequests = c.Bool("log-requests")
	}
	if c.IsSet("cache-size") {
		cfg.CacheSize = c.Int("cache-size")
	}
}

// configure builds the configuration for a command-line invocation.
func configure(c *cli.Context) (config, error) {
	cfg := defaultConfig()
	var fromFile []string
	if filename := c.String("config"); filename != "" {
		settings, err := loadConfigYaml(filename)
		if err != nil {
			return cfg, fmt.Errorf("%s: %v", filename, err)
		}
		fromFile, err = cfg.applyYaml(settings)
		if err != nil {
			return cfg, fmt.Errorf("%s: %v", filename, err)
		}
	}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" && !contains(fromFile, "backend") {
		cfg.Backend = "postgres:" + databaseURL
	}

	cfg.applyFlags(c)
	return cfg, cfg.validate()
}

// validate checks the settings that can be checked without doing
// anything.
func (cfg *config) validate() error {
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	var b backend.Backend
	if err := b.Set(cfg.Backend); err != nil {
		return err
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", cfg.CacheSize)
	}
	return nil
}

// backend returns the parsed storage backend.
func (cfg *config) backend() backend.Backend {
	var b backend.Backend
	_ = b.Set(cfg.Backend)
	return b
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
