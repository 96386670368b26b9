package cmd

// Exit codes for the apythia CLI
const (
	// ExitSuccess indicates the command completed
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure, e.g. the server could not start
	ExitFailure = 1

	// ExitParseError indicates a response file could not be parsed or arranged
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
