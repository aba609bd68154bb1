// Package config loads application configuration: TOML settings
// layered under NOTEDOWN_* environment overrides, a YAML keymap, and a
// file watcher for live reload. API keys are read only from the
// environment.
package config
