// Package config loads and validates the memoria daemon configuration.
//
// Settings come from three layers, later layers winning: built-in
// defaults, an optional YAML file, and MEMORIA_* environment variables.
package config
