// Package config implements the option table: a registered set of keys
// resolved with precedence command-line > environment (SPANNERS_ prefix) >
// config file > default, loaded from a YAML file auto-created on first run.
// Load resolves the table once into a Config value, which is not changed
// afterwards; the scheduler limits are changed at runtime through the
// Scheduler's own setters, not through this package.
package config
