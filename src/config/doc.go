// Package config defines the configuration of a Zialiel node, with default
// values and a shared logger.
package config
