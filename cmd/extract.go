// =============================================================================
// EFD Reconcile - Extract Command
// =============================================================================
//
// This file defines the 'extract' command, which harvests key relations
// from a directory of CT-e XML files and appends them to the reference
// lists the reconciliation expands keys with.
//
// COMMAND USAGE:
//   efd-reconcile extract [dir]
//
// OUTPUT:
//   Cargo-note lines are appended to the configured cargo_notes_file and
//   complementary relations to the complementary_file, so the very next
//   'process' run picks them up.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sped-tools/efd-reconcile/internal/xmlkeys"
)

// =============================================================================
// EXTRACT COMMAND DEFINITION
// =============================================================================

// extractCmd represents the 'extract' command.
var extractCmd = &cobra.Command{
	Use:   "extract [dir]",
	Short: "Harvest key relations from CT-e XML files into the reference lists",
	Long: `The extract command scans a directory for CT-e XML files and collects,
per transport bill, the NF-e keys it carries and the CT-e keys it
complements. The relations are appended to the configured reference lists,
where the process command expands ledger keys with them.

Files that are not valid CT-e XML are reported and skipped; the command
only fails when the directory itself cannot be read.`,

	Args: cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		return runExtract(dir)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the extract command with the root command.
func init() {
	rootCmd.AddCommand(extractCmd)
}

// =============================================================================
// MAIN EXTRACTION FUNCTION
// =============================================================================

// runExtract scans dir and appends the harvested relations to the
// configured reference lists.
func runExtract(dir string) error {
	fmt.Println("=== EFD Reconcile ===")
	fmt.Printf("Extracting key relations from %q...\n", dir)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newConsoleLogger(cfg)

	result, err := xmlkeys.ExtractDir(dir)
	if err != nil {
		return err
	}

	for _, skipped := range result.Skipped {
		fmt.Printf("  ✗ %s: %v\n", filepath.Base(skipped.Path), skipped.Err)
	}
	for _, doc := range result.Documents {
		logger.Debug("File %q: CT-e %s, %d cargo notes, %d complementary",
			doc.Path, doc.Key, len(doc.CargoNotes), len(doc.Complementary))
	}

	stats, err := xmlkeys.AppendReferences(result.Documents, cfg.CargoNotesFile, cfg.ComplementaryFile)
	if err != nil {
		return err
	}

	fmt.Println("\n=== EXTRACTION SUMMARY ===")
	fmt.Printf("XML files scanned:     %d\n", result.Scanned)
	fmt.Printf("CT-e documents read:   %d\n", len(result.Documents))
	fmt.Printf("Files skipped:         %d\n", len(result.Skipped))
	fmt.Printf("Cargo-note lines:      %d -> %s\n", stats.CargoLines, cfg.CargoNotesFile)
	fmt.Printf("Complementary lines:   %d -> %s\n", stats.ComplementaryLines, cfg.ComplementaryFile)

	return nil
}
