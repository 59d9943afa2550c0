// =============================================================================
// EFD Reconcile - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs one full
// reconciliation of a ledger against the fiscal-document files.
//
// COMMAND USAGE:
//   efd-reconcile process [flags]
//
// FLAGS:
//   --efd-path, -e : Path to the EFD Contribuições ledger export
//   --efd-keys     : List the expanded ledger keys after their report
//   --docs-keys    : List the matched document keys after their report
//   --strict       : Exit non-zero when any document file fails
//   --clear        : Clear the terminal before the run
//
// PROCESSING PIPELINE:
//   1. Load the configuration and resolve the ledger path
//   2. Run the reconciliation pipeline (internal/reconciler)
//   3. Print the per-file outcomes
//   4. Print the processing summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sped-tools/efd-reconcile/internal/reconciler"
	"github.com/sped-tools/efd-reconcile/internal/report"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// efdPath overrides the configured ledger file.
var efdPath string

// showEFDKeys lists the expanded ledger keys after their report.
var showEFDKeys bool

// showDocKeys lists the matched document keys after their report.
var showDocKeys bool

// strict makes per-file failures fail the command.
var strict bool

// clearFirst clears the terminal before the run starts.
var clearFirst bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Reconcile a ledger against the fiscal-document files",
	Long: `The process command expands the ledger keys across the cargo-note and
complementary CT-e relations, scans every fiscal-document file in the input
directory for them, merges the matched records into one deduplicated output
and exports the keys still missing, chunked for ReceitaNet-BX.

Matching is done concurrently for maximum performance. Each file is matched
independently, and errors in one file do not affect the processing of others.

On success:
  - The merged output is placed in the input directory, sorted last by name
  - One text file per document model lists the missing keys
  - The optional XLSX report and run summary are written next to them

On error:
  - A failing document file is reported and skipped
  - Fatal stages (ledger, references, merge, export) abort the run`,

	// RunE is like Run but returns an error. This is preferred for commands
	// that can fail, as it allows Cobra to handle the error gracefully.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the process command with the root command and sets up flags.
func init() {
	// Add the process command to the root command.
	rootCmd.AddCommand(processCmd)

	// ==========================================================================
	// LOCAL FLAGS
	// ==========================================================================
	// Local flags are only available to this command.

	// --efd-path flag: Path to the ledger export.
	processCmd.Flags().StringVarP(
		&efdPath,
		"efd-path",
		"e",
		"",
		"Path to the EFD Contribuições ledger export",
	)

	// --efd-keys flag: List the expanded ledger keys.
	processCmd.Flags().BoolVar(
		&showEFDKeys,
		"efd-keys",
		false,
		"List the expanded ledger keys after their report",
	)

	// --docs-keys flag: List the matched document keys.
	processCmd.Flags().BoolVar(
		&showDocKeys,
		"docs-keys",
		false,
		"List the matched document keys after their report",
	)

	// --strict flag: Fail the command on any per-file failure.
	processCmd.Flags().BoolVar(
		&strict,
		"strict",
		false,
		"Exit non-zero when any document file fails",
	)

	// --clear flag: Clear the terminal first.
	processCmd.Flags().BoolVar(
		&clearFirst,
		"clear",
		false,
		"Clear the terminal before the run",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess runs one reconciliation and prints its outcome.
func runProcess() error {
	startTime := time.Now()

	if clearFirst {
		// ANSI clear screen plus cursor home.
		fmt.Print("\033[2J\033[H")
	}

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	fmt.Println("=== EFD Reconcile ===")
	fmt.Println("Loading configuration...")

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

	// =========================================================================
	// STEP 2: RUN THE RECONCILIATION
	// =========================================================================

	rec := reconciler.New(cfg)
	rec.SetLogger(newConsoleLogger(cfg))
	rec.ShowKeys(showEFDKeys, showDocKeys)

	result, err := rec.Run()
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 3: PER-FILE OUTCOMES
	// =========================================================================

	for _, file := range result.Files {
		if file.Err != nil {
			fmt.Printf("  ✗ %s: %v\n", filepath.Base(file.Path), file.Err)
			continue
		}
		fmt.Printf("  ✓ %s (%s rows, %d matched)\n",
			filepath.Base(file.Path),
			report.FormatCount(int64(file.Rows)),
			file.MatchedRows)
	}

	// =========================================================================
	// STEP 4: PRINT SUMMARY
	// =========================================================================

	elapsed := time.Since(startTime)
	fmt.Println("\n=== PROCESSING SUMMARY ===")
	fmt.Printf("Ledger keys (expanded): %s\n", report.FormatCount(int64(result.Stats.LedgerKeys)))
	fmt.Printf("Files processed:        %d\n", result.Stats.FilesDiscovered-result.Stats.FilesFailed)
	fmt.Printf("Files failed:           %d\n", result.Stats.FilesFailed)
	fmt.Printf("Records scanned:        %s\n", report.FormatCount(result.Stats.RowsScanned))
	fmt.Printf("Matched keys:           %s\n", report.FormatCount(int64(result.Stats.MatchedKeys)))
	fmt.Printf("Missing keys:           %s\n", report.FormatCount(int64(result.Stats.MissingKeys)))
	fmt.Printf("Output file:            %s\n", result.OutputFile)
	fmt.Printf("Time elapsed:           %s\n", elapsed.Round(time.Millisecond))

	if strict && result.Stats.FilesFailed > 0 {
		return fmt.Errorf("%d of %d document files failed",
			result.Stats.FilesFailed, result.Stats.FilesDiscovered)
	}

	return nil
}
