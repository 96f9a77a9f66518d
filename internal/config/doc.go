// Package config loads and validates streampay's TOML configuration.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/streampay/config.toml, then ./streampay.toml, falling back to
// built-in defaults when no file exists. The network environment is an
// explicit configuration value injected where the ledger is constructed,
// never read as global state from core logic.
package config
