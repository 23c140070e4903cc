package main

import (
	"github.com/ZebulonRouseFrantzich/egetbox/internal/logging"
)

// Config is the CLI configuration, read from flags, EGETBOX_* environment
// variables and an optional config file, in that order of precedence.
type Config struct {
	Cwd          string         `mapstructure:"cwd"`
	TmpDir       string         `mapstructure:"tmp_dir"`
	Wasm         string         `mapstructure:"wasm"`
	Script       string         `mapstructure:"script"`
	Keyring      string         `mapstructure:"keyring"`
	VerifySHA256 bool           `mapstructure:"verify_sha256"`
	Verbose      bool           `mapstructure:"verbose"`
	Parallel     int            `mapstructure:"parallel"`
	Log          logging.Config `mapstructure:"log"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Parallel: 4, //nolint:mnd
		Log:      logging.DefaultConfig(),
	}
}
