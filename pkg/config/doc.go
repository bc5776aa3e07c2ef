// Package config defines the service configuration, loaded from YAML
// with environment variable overrides. Loading always applies defaults
// first and validates the final result.
package config
