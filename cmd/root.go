/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/valpere/lexitran/internal/config"
	"github.com/valpere/lexitran/internal/logging"
)

var version = "0.1.0"

var (
	cfgFile string

	v      = viper.New()
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "lexitran",
	Short: "English to Telugu legal document translator",
	Long: `Translates English legal documents into formal Telugu sentence by sentence.

Each sentence goes to a tool-calling language model that can look up similar
translated examples in a vector store, check its draft against a legal
glossary and ask for a critique before answering.

Configuration is read from lexitran.yaml (or --config), LEXITRAN_* environment
variables and flags.

Use "lexitran translate --help" for translation options.`,
	Version:       version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync(logger)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./lexitran.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	rootCmd.PersistentFlags().String("provider", "gemini", "Model provider (gemini, openai, openrouter, anthropic, ollama)")
	rootCmd.PersistentFlags().String("model", "gemini-2.5-flash", "Model name")
	rootCmd.PersistentFlags().String("db", "./data/lexitran.db", "SQLite database path")

	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("model.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = v.BindPFlag("model.name", rootCmd.PersistentFlags().Lookup("model"))
	_ = v.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
}
