// =============================================================================
// EFD Reconcile - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'process', 'watch') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (efd-reconcile)
//   ├── processCmd (efd-reconcile process)
//   ├── watchCmd   (efd-reconcile watch)
//   ├── extractCmd (efd-reconcile extract)
//   └── versionCmd (efd-reconcile version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration file for the subcommands
//   3. Building the leveled console logger
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sped-tools/efd-reconcile/internal/config"
	"github.com/sped-tools/efd-reconcile/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
// This is the entry point for the CLI application.
var rootCmd = &cobra.Command{
	// Use is the one-line usage message.
	Use: "efd-reconcile",

	// Short is a short description shown in the 'help' output.
	Short: "EFD Reconcile - Match EFD Contribuições ledger keys against fiscal-document exports",

	// Long is a longer description shown in the 'help <command>' output.
	Long: `EFD Reconcile cross-checks the 44-digit NF-e/CT-e keys declared in an
EFD Contribuições ledger export against the fiscal-document CSV files
downloaded from the tax authority, and reports the keys still missing.

Key Features:
  - Transitive key expansion via cargo-note and complementary CT-e relations
  - Concurrent matching across all fiscal-document files
  - Deduplicated merged output of every matched record
  - Missing keys exported in ReceitaNet-BX sized chunks
  - Optional XLSX report and plain-text run summary

Example Usage:
  efd-reconcile process -e efd.csv     # Reconcile one ledger against the current directory
  efd-reconcile process --config my.yaml
  efd-reconcile watch -e efd.csv       # Re-run automatically when the files change
  efd-reconcile extract ./xml          # Harvest reference relations from CT-e XML files`,

	// Run is the function executed when the root command is called without
	// any subcommands. In this case, we just print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Execute the root command. If there's an error, print it and exit.
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags shared by every subcommand.
func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.

	// --config flag: Allows the user to specify a custom configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the configuration the subcommands run with. A missing
// file is only an error when the user asked for it explicitly; the default
// config.yaml is optional and falls back to the built-in defaults.
func loadConfig() (*config.Config, error) {
	if utils.FileExists(cfgFile) {
		return config.Load(cfgFile)
	}
	if rootCmd.PersistentFlags().Changed("config") {
		return nil, fmt.Errorf("config file %q not found", cfgFile)
	}
	return config.Default(), nil
}

// =============================================================================
// CONSOLE LOGGER
// =============================================================================

// Log levels, in increasing order of severity.
const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

// consoleLogger prints leveled log lines, info and below to stdout and
// warnings upward to stderr.
type consoleLogger struct {
	level int
}

// newConsoleLogger builds the logger for a subcommand run. The configured
// log_level sets the threshold; --verbose forces it down to debug.
func newConsoleLogger(cfg *config.Config) *consoleLogger {
	level := levelInfo
	switch cfg.LogLevel {
	case "debug":
		level = levelDebug
	case "warn":
		level = levelWarn
	case "error":
		level = levelError
	}
	if verbose {
		level = levelDebug
	}
	return &consoleLogger{level: level}
}

func (l *consoleLogger) Debug(msg string, args ...interface{}) {
	if l.level <= levelDebug {
		fmt.Printf("[DEBUG] "+msg+"\n", args...)
	}
}

func (l *consoleLogger) Info(msg string, args ...interface{}) {
	if l.level <= levelInfo {
		fmt.Printf("[INFO] "+msg+"\n", args...)
	}
}

func (l *consoleLogger) Warn(msg string, args ...interface{}) {
	if l.level <= levelWarn {
		fmt.Fprintf(os.Stderr, "[WARN] "+msg+"\n", args...)
	}
}

func (l *consoleLogger) Error(msg string, args ...interface{}) {
	if l.level <= levelError {
		fmt.Fprintf(os.Stderr, "[ERROR] "+msg+"\n", args...)
	}
}
