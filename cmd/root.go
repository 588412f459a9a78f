// Package cmd provides the command-line interface for the patternlab
// playground engine.
//
// Configuration is layered with the usual precedence: command-line
// flags override PATTERNLAB_-prefixed environment variables, which
// override the .patternlab.yml config file, which overrides built-in
// defaults. PATTERNLAB_CONFIG_FILE points at an alternate config file.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/patternlab/patternlab/internal/config"
)

var cfgFile string

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "patternlab",
	Short: "An interactive playground engine for backend patterns",
	Long: `Patternlab serves an interactive playground for common backend
patterns: an LRU cache, a rate limiter, feature flags, login-session
management, request validation, error handling, and structured logging.

Each visitor gets isolated simulator state; the engine explains every
action with step-by-step traces the UI can animate.

Quick start:
  patternlab serve                 Start the playground server
  patternlab patterns              List the registered patterns
  patternlab version               Show build information`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .patternlab.yml, can also use PATTERNLAB_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("PATTERNLAB_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".patternlab")
	}

	viper.SetEnvPrefix("PATTERNLAB")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults and env vars carry it.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
