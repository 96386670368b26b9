package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/apythia/packages/adapter/transport"
	"github.com/abdul-hamid-achik/apythia/packages/apythia"
	"github.com/abdul-hamid-achik/apythia/packages/builtin"
	"github.com/abdul-hamid-achik/apythia/packages/jsonext"
	"github.com/abdul-hamid-achik/apythia/packages/output"
	"github.com/abdul-hamid-achik/apythia/packages/responsefile"
	"github.com/spf13/cobra"
)

var validateNoColorFlag bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate response files without serving them",
	Long: `Parse response files and arrange every response against an in-memory
transport, so template calls and body encodings are checked too.

Examples:
  apythia validate responses.yaml
  apythia validate users.yaml orders.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().BoolVar(&validateNoColorFlag, "no-color", false, "Disable colored output")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	formatter := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithNoColor(validateNoColorFlag),
	)

	funcs, err := newFuncs()
	if err != nil {
		return err
	}

	hasErrors := false
	for _, path := range args {
		count, err := dryRun(cmd.Context(), path, funcs)
		if err != nil {
			formatter.FormatError(fmt.Errorf("%s: %w", path, err))
			hasErrors = true
			continue
		}
		formatter.FormatValid(path, count)
	}

	if hasErrors {
		return withExitCode(ExitParseError, errors.New("validation failed"))
	}
	return nil
}

// dryRun loads path and arranges its responses on a throwaway transport.
func dryRun(ctx context.Context, path string, funcs *builtin.Registry) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := responsefile.Load(path)
	if err != nil {
		return 0, err
	}
	a, err := apythia.New(transport.New(), apythia.WithExtensionConfig(jsonext.DefaultConfig()))
	if err != nil {
		return 0, err
	}
	if err := f.Arrange(ctx, a, funcs); err != nil {
		return 0, err
	}
	return len(f.Responses), nil
}
