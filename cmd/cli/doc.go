// Package cli constructs the what-git-branch command-line interface, wiring the
// Cobra command hierarchy, the layered configuration loader, structured logging,
// and the repository runtime shared by the list, directories, primary, and serve
// commands.
package cli
