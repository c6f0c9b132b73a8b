// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the egraph-extract CLI. It loads
// serialized e-graphs, runs cost-set extraction, and keeps a local record
// of past runs.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/egraph-extract/internal/logging"
	"github.com/pdiddy/egraph-extract/internal/secrets"
	"github.com/pdiddy/egraph-extract/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets map[string]string

const defaultUserAgent = "egraph-extract/0.1"

// rootCmd is the base command for the egraph-extract CLI.
var rootCmd = &cobra.Command{
	Use:   "egraph-extract",
	Short: "Greedy DAG-cost extraction for e-graphs",
	Long: `egraph-extract picks one node per equivalence class of a serialized
e-graph so that the shared DAG of chosen nodes is cheap. Graphs are read
from egraph-serialize JSON or YAML, from an HCL layout, or fetched over HTTP.

Runs can be saved to a local SQLite store, listed, and exported.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(logging.ParseLevel(viper.GetString("log.level")), viper.GetString("log.format"), cmd.ErrOrStderr())

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			slog.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./egraph-extract.yaml or ~/.config/egraph-extract/egraph-extract.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the run database (default: ~/.local/share/egraph-extract)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of credential files (graph-token)")

	_ = viper.BindPFlag("store.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("extract.cost_model", string(types.CostIntrinsic))
	viper.SetDefault("extract.op_costs", map[string]float64{})
	viper.SetDefault("extract.default_op_cost", 1.0)
	viper.SetDefault("extract.order", string(types.OrderSorted))
	viper.SetDefault("extract.max_rounds", 0)
	viper.SetDefault("extract.unextractable_ops", []string{})
	viper.SetDefault("extract.unextractable_classes", []string{})
	viper.SetDefault("store.data_dir", defaultDataDir())
	viper.SetDefault("fetch.timeout", 60*time.Second)
	viper.SetDefault("fetch.user_agent", defaultUserAgent)
	viper.SetDefault("fetch.max_retries", 5)
	viper.SetDefault("fetch.token", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("batch.parallel", 1)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".egraph-extract"
	}
	return filepath.Join(home, ".local", "share", "egraph-extract")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("egraph-extract")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "egraph-extract"))
		}
	}

	viper.SetEnvPrefix("EGRAPH_EXTRACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged flag, env, file and default settings.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.Batch.Parallel < 1 {
		cfg.Batch.Parallel = 1
	}
	if cfg.Fetch.Token == "" {
		cfg.Fetch.Token = loadedSecrets[secrets.GraphToken]
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
