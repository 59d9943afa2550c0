// =============================================================================
// EFD Reconcile - Main Entry Point
// =============================================================================
//
// This is the main entry point for the EFD Reconcile CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   efd-reconcile process   - Reconcile a ledger against the fiscal documents
//   efd-reconcile watch     - Reconcile continuously as files change
//   efd-reconcile extract   - Harvest key relations from CT-e XML files
//   efd-reconcile version   - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//
// =============================================================================

package main

import (
	"github.com/sped-tools/efd-reconcile/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
