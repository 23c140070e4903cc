package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the loaded configuration to subcommands.
type app struct {
	v    *viper.Viper
	conf *Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "egetbox",
		Short:         "Install GitHub release assets through a network-isolated resolver",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cfgFile)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file path")
	flags.String("cwd", "", "output directory (default: current directory)")
	flags.String("tmp-dir", "", "temp directory (default: <cwd>/.eget)")
	flags.String("wasm", "", "resolver WASI module")
	flags.String("script", "", "resolver Lua script (instead of --wasm)")
	flags.String("keyring", "", "verify fetched assets against this PGP keyring")
	flags.Bool("verify-sha256", false, "verify fetched assets against <url>.sha256")
	flags.BoolP("verbose", "v", false, "debug logging")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log encoding (console, json)")
	flags.Int("parallel", 0, "max repositories downloaded at once")

	for key, name := range map[string]string{
		"cwd":           "cwd",
		"tmp_dir":       "tmp-dir",
		"wasm":          "wasm",
		"script":        "script",
		"keyring":       "keyring",
		"verify_sha256": "verify-sha256",
		"verbose":       "verbose",
		"log.level":     "log-level",
		"log.encoding":  "log-format",
		"parallel":      "parallel",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	a.v.SetEnvPrefix("EGETBOX")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	cmd.AddCommand(
		newDownloadCmd(a),
		newSystemCmd(),
		newPruneCmd(a),
	)
	return cmd
}

func (a *app) initConfig(cfgFile string) error {
	conf := DefaultConfig()

	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// Defaults rank below flags, env and file, and above unset flags.
	a.v.SetDefault("log.level", conf.Log.Level)
	a.v.SetDefault("log.encoding", conf.Log.Encoding)
	a.v.SetDefault("parallel", conf.Parallel)

	if err := a.v.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if conf.Parallel <= 0 {
		conf.Parallel = 1
	}
	if conf.Verbose {
		conf.Log.Level = "debug"
	}

	a.conf = conf
	return nil
}
