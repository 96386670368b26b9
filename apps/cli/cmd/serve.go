package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/apythia/packages/apythia"
	"github.com/abdul-hamid-achik/apythia/packages/builtin"
	"github.com/abdul-hamid-achik/apythia/packages/core/config"
	"github.com/abdul-hamid-achik/apythia/packages/http"
	"github.com/abdul-hamid-achik/apythia/packages/jsonext"
	"github.com/abdul-hamid-achik/apythia/packages/mock"
	"github.com/abdul-hamid-achik/apythia/packages/output"
	"github.com/abdul-hamid-achik/apythia/packages/responsefile"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	servePortFlag    int
	serveHostFlag    string
	serveDelayFlag   string
	serveWatchFlag   bool
	serveVerboseFlag bool
	serveNoColorFlag bool
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Start a mock server answering with scripted responses",
	Long: `Start an HTTP mock server that answers requests, in order, with the
responses listed in a YAML response file. Every received request is printed.
Once the script is exhausted the server answers 500.

Examples:
  apythia serve responses.yaml
  apythia serve responses.yaml --port 3000 --delay 100ms
  apythia serve responses.yaml --watch --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().IntVarP(&servePortFlag, "port", "p", 3000, "Port to run the mock server on")
	serveCmd.Flags().StringVar(&serveHostFlag, "host", "127.0.0.1", "Interface to listen on")
	serveCmd.Flags().StringVarP(&serveDelayFlag, "delay", "d", "0", "Delay to add to all responses (e.g., 100ms, 1s)")
	serveCmd.Flags().BoolVarP(&serveWatchFlag, "watch", "w", false, "Re-arrange responses when the file changes")
	serveCmd.Flags().BoolVarP(&serveVerboseFlag, "verbose", "v", false, "Print request headers and bodies")
	serveCmd.Flags().BoolVar(&serveNoColorFlag, "no-color", false, "Disable colored output")
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("failed to load config: %w", err))
	}
	return cfg.ApplyEnv(), nil
}

func serveCommand(cmd *cobra.Command, args []string) error {
	var delay time.Duration
	if serveDelayFlag != "0" {
		var err error
		delay, err = time.ParseDuration(serveDelayFlag)
		if err != nil {
			return withExitCode(ExitUsageError, fmt.Errorf("invalid delay value %q: %w", serveDelayFlag, err))
		}
	}

	cfg, err := loadConfig(configFlag)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = config.BoolPtr(serveVerboseFlag)
	}
	if cmd.Flags().Changed("no-color") {
		cfg.NoColor = config.BoolPtr(serveNoColorFlag)
	}
	logger := cfg.Logger()

	path := args[0]
	file, err := responsefile.Load(path)
	if err != nil {
		return withExitCode(ExitParseError, err)
	}

	formatter := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithVerbose(cfg.GetVerbose()),
		output.WithNoColor(cfg.GetNoColor()),
	)

	var srv *mock.Server
	srv = mock.NewServer(
		mock.WithAddr(fmt.Sprintf("%s:%d", serveHostFlag, servePortFlag)),
		mock.WithDelay(delay),
		mock.WithLogger(logger),
		mock.WithOnRequest(func(req *http.ActualRequest, resp *http.Response) {
			formatter.FormatRequest(req, resp)
			// Nothing asserts served requests; drop them once printed.
			srv.Requests.Pop()
		}),
	)

	a, err := apythia.New(srv,
		apythia.WithLogger(logger),
		apythia.WithExtensionConfig(jsonext.DefaultConfig()),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.BeforeEachTest(ctx); err != nil {
		return err
	}
	defer srv.Close()

	funcs, err := newFuncs()
	if err != nil {
		return err
	}
	if err := file.Arrange(ctx, a, funcs); err != nil {
		return withExitCode(ExitParseError, err)
	}
	formatter.FormatListening(srv.URL(), len(file.Responses))

	if serveWatchFlag {
		go func() {
			err := watchFile(ctx, path, logger, func() {
				reloadResponses(ctx, cmd.OutOrStdout(), formatter, path, a, funcs)
			})
			if err != nil {
				formatter.FormatError(err)
			}
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes... (press Ctrl+C to stop)\n\n", path)
	}

	<-ctx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down mock server...")
	return a.AfterEachTest(context.Background())
}

// reloadResponses replaces the queued responses with the ones in path. Errors
// are printed and leave the server running.
func reloadResponses(ctx context.Context, w io.Writer, formatter *output.ConsoleFormatter, path string, a *apythia.Apythia, funcs *builtin.Registry) {
	reloaded, err := responsefile.Load(path)
	if err != nil {
		formatter.FormatError(err)
		return
	}
	// Drops whatever is still queued before arranging the new script.
	if err := a.AfterEachTest(ctx); err != nil {
		formatter.FormatError(err)
		return
	}
	if err := reloaded.Arrange(ctx, a, funcs); err != nil {
		formatter.FormatError(err)
		return
	}
	fmt.Fprintf(w, "\nReloaded %s: %d responses arranged\n\n", path, len(reloaded.Responses))
}

// serialized returns fn wrapped so that calls never overlap.
func serialized(fn func()) func() {
	var mu sync.Mutex
	return func() {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}
}

// watchFile calls onChange, debounced, whenever path is written or replaced.
// The directory is watched so editors that save by renaming are seen too.
func watchFile(ctx context.Context, path string, logger *slog.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	run := serialized(onChange)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			logger.Debug("response file changed", "path", event.Name, "op", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, run)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
