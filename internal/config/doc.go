// Package config loads, validates, and normalizes the TOML configuration for
// the slate daemon and CLI.
//
// Load resolves the config path (explicit flag, then ~/.config/slate/config.toml,
// then ./slate.toml), decodes over Default(), expands ~ in every path field,
// and validates ranges before returning. EnsureDirectories creates the working
// directories the daemon needs at startup.
package config
