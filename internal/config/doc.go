// Package config provides environment-based configuration.
//
// Loads from .env (godotenv) and an optional YAML file (CONFIG_FILE),
// then maps to the Config struct via go-simpler/env struct tags.
// Explicit environment variables always win over file values.
package config
