// Package config loads a CoordinatorConfig from environment variables
// with an optional YAML overlay, following the precedence: defaults,
// then the overlay file, then the environment. See LoadConfig.
package config
