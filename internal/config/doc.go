// Package config loads, validates, and normalizes mibisweep configuration
// from TOML. One immutable Config is constructed at startup and passed into
// the sweep; nothing mutates run parameters afterwards.
package config
