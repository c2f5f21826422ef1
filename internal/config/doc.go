// Package config loads, normalizes, and validates clipforge configuration.
//
// Configuration is read from a TOML file. The default location is
// ~/.config/clipforge/config.toml, with clipforge.toml in the working
// directory as a fallback. Missing files are not an error; built-in
// defaults cover every key.
package config
