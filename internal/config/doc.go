// Package config handles configuration for the gazette-sync CLI.
//
// Configuration is layered with the following precedence (highest
// wins):
//  1. Command-line flags
//  2. Environment variables (GAZETTE_ prefix)
//  3. Config file (YAML)
//  4. Built-in defaults
//
// The resulting Config is built once at startup and passed by value
// into each component; there is no process-wide mutable state.
//
// # Example config file
//
//	repo: chaiyosart/thai-royal-gazette
//	output: /srv/mirror/gazette
//	concurrency: 5
//	retry:
//	  attempts: 3
//	  backoff: 1s
package config
