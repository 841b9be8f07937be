// Package config loads run settings: compiled-in defaults, then an optional
// YAML file, then TEAM_LOGIN_* environment variables.
package config
