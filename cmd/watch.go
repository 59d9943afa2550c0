// =============================================================================
// EFD Reconcile - Watch Command
// =============================================================================
//
// This file defines the 'watch' command, which runs one reconciliation and
// then re-runs it whenever the ledger, the reference lists or any
// fiscal-document file changes.
//
// COMMAND USAGE:
//   efd-reconcile watch [flags]
//
// EVENT HANDLING:
//   The watcher observes the input directory plus the directories holding
//   the ledger and reference files, which keeps working when editors
//   replace a file on save instead of writing to it. Only create, write
//   and rename events on the watched files count, and a quiet period
//   (--debounce) has to pass before a batch of changes triggers a re-run.
//   Artifacts of the previous run never trigger one.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sped-tools/efd-reconcile/internal/reconciler"
	"github.com/sped-tools/efd-reconcile/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// debounce is the quiet period before a batch of changes triggers a re-run.
var debounce time.Duration

// =============================================================================
// WATCH COMMAND DEFINITION
// =============================================================================

// watchCmd represents the 'watch' command.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reconcile continuously, re-running when the input files change",
	Long: `The watch command runs one reconciliation immediately and then keeps
watching the input directory, the ledger and the reference lists. Whenever
one of them is created, written or renamed, and the debounce period passes
without further changes, the reconciliation runs again.

A failing run is logged and watching continues. Press Ctrl-C to stop.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the watch command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(watchCmd)

	// --efd-path flag: Same ledger override the process command takes.
	watchCmd.Flags().StringVarP(
		&efdPath,
		"efd-path",
		"e",
		"",
		"Path to the EFD Contribuições ledger export",
	)

	// --debounce flag: Quiet period before a re-run.
	watchCmd.Flags().DurationVar(
		&debounce,
		"debounce",
		2*time.Second,
		"Quiet period before a batch of changes triggers a re-run",
	)
}

// =============================================================================
// MAIN WATCH FUNCTION
// =============================================================================

// runWatch runs the reconciliation once and then re-runs it on changes
// until interrupted.
func runWatch() error {
	fmt.Println("=== EFD Reconcile (watch mode) ===")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if efdPath != "" {
		cfg.LedgerFile = efdPath
	}
	if cfg.LedgerFile == "" {
		return fmt.Errorf("no ledger file: pass --efd-path or set ledger_file in the config")
	}
	logger := newConsoleLogger(cfg)

	pattern, err := regexp.Compile(cfg.InputPattern)
	if err != nil {
		return fmt.Errorf("input pattern does not compile: %w", err)
	}

	inputDir := filepath.Clean(cfg.InputDir)
	ledgerPath := filepath.Clean(cfg.LedgerFile)
	cargoPath := filepath.Clean(cfg.CargoNotesFile)
	compPath := filepath.Clean(cfg.ComplementaryFile)

	rec := reconciler.New(cfg)
	rec.SetLogger(logger)

	// lastBase is the previous run's output path without its extension;
	// everything that run fathered (output, exports, workbook) shares the
	// prefix and must not trigger the next run.
	var lastBase string

	runOnce := func() {
		if removed, err := utils.RemovePreviousOutputs(cfg.InputDir, cfg.OutputName); err != nil {
			logger.Warn("Failed to remove previous outputs: %v", err)
		} else if removed > 0 {
			logger.Info("Removed %d previous output files", removed)
		}

		result, err := rec.Run()
		if err != nil {
			logger.Error("Reconciliation failed: %v", err)
			return
		}
		lastBase = strings.TrimSuffix(result.OutputFile, filepath.Ext(result.OutputFile))
	}

	// =========================================================================
	// STEP 1: FIRST RUN
	// =========================================================================

	runOnce()

	// =========================================================================
	// STEP 2: SET UP THE WATCHER
	// =========================================================================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	dirs := map[string]struct{}{inputDir: {}}
	for _, path := range []string{ledgerPath, cargoPath, compPath} {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}

	relevant := func(event fsnotify.Event) bool {
		if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
			return false
		}
		name := filepath.Clean(event.Name)
		if strings.Contains(name, ".tmp.") {
			return false
		}
		if lastBase != "" && strings.HasPrefix(name, lastBase) {
			return false
		}
		if name == ledgerPath || name == cargoPath || name == compPath {
			return true
		}
		return filepath.Dir(name) == inputDir && pattern.MatchString(filepath.Base(name))
	}

	// =========================================================================
	// STEP 3: EVENT LOOP
	// =========================================================================

	logger.Info("Watching for changes (debounce %s). Press Ctrl-C to stop.", debounce)

	// The timer starts stopped and drained; a relevant event arms it.
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopping watcher.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if relevant(event) {
				logger.Debug("Change detected: %s", event)
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			runOnce()
		}
	}
}
