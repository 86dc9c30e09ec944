// Package config holds per-class bridging options and reads them from TOML.
package config
