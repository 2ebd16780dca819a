// Package file provides file-based application configuration.
// Configuration is stored as TOML in the quarry config directory.
package file
