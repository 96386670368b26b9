package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/apythia/packages/builtin"
	"github.com/abdul-hamid-achik/apythia/packages/core/env"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag  string
	envFileFlag []string
)

var rootCmd = &cobra.Command{
	Use:   "apythia",
	Short: "Scripted HTTP responses, asserted requests.",
	Long: `apythia arranges mocked HTTP responses and asserts the requests your code
sends. The CLI serves a scripted sequence of responses from a YAML file and
prints every request it receives.`,
	SilenceUsage: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// newFuncs returns the template functions, reading --env-file for $env().
func newFuncs() (*builtin.Registry, error) {
	funcs := builtin.NewRegistry()
	if len(envFileFlag) > 0 {
		vars, err := env.Load(envFileFlag...)
		if err != nil {
			return nil, withExitCode(ExitConfigError, err)
		}
		funcs.SetLookup(vars.Lookup)
	}
	return funcs, nil
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitFailure
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (default: search .apythia.json/.apythia.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFileFlag, "env-file", nil, "Load variables for $env() from .env files")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withExitCode(ExitUsageError, fmt.Errorf("%w\n\n%s", err, cmd.UsageString()))
	})
}
