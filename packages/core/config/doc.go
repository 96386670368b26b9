// Package config handles configuration loading and management for apythia.
//
// It provides functionality for:
//   - Loading configuration from .apythia.json or .apythia.yaml files
//   - Default configuration values
//   - APYTHIA_* environment overrides
package config
