// Package cmd implements the apythia CLI commands using Cobra.
//
// Available commands:
//   - serve: Run a mock server answering with responses from a file
//   - validate: Check response files without serving them
//   - version: Show apythia version information
//   - completion: Generate shell completion scripts
package cmd
