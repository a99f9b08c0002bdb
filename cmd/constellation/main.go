// Package main provides the constellation CLI: a local vocabulary backend,
// a vocabulary importer and a headless constellation renderer.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kittclouds/constellation/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

// Exit codes
const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitConfigError = 2
	ExitAPIError    = 3
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "constellation",
	Short: "Vocabulary constellation tools",
	Long: `constellation renders a learner's vocabulary as a star map.

  constellation serve                  # local /graph/ and /constellation backend
  constellation import words.yml       # load words, sentences and links
  constellation render -o map.svg      # settle the layout headlessly, export SVG
  constellation stats                  # graph shape and top hubs`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/constellation/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	rootCmd.Version = Version

	rootCmd.AddCommand(serveCmd(), importCmd(), renderCmd(), statsCmd())
}

// configError marks failures that should exit with ExitConfigError.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, configError{err}
	}
	return cfg, nil
}

func newLogger() *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "[constellation] ", log.LstdFlags)
}
