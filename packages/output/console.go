package output

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
	"github.com/abdul-hamid-achik/apythia/packages/http"
	"github.com/fatih/color"
)

const maxBodyLen = 200

// formatBody renders a body for display, truncating long text and
// summarizing binary content
func formatBody(body []byte, maxLen int) string {
	if len(body) == 0 {
		return "<empty>"
	}
	if !utf8.Valid(body) {
		return fmt.Sprintf("<%d bytes of binary data>", len(body))
	}
	str := string(body)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatRequest prints a captured request and the status it was answered
// with. A nil resp means nothing was arranged.
func (f *ConsoleFormatter) FormatRequest(req *http.ActualRequest, resp *http.Response) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	status := red("500 (no response arranged)")
	if resp != nil {
		code := fmt.Sprintf("%d", resp.StatusCode)
		switch {
		case resp.IsSuccess():
			status = green(code)
		case resp.StatusCode >= 400:
			status = red(code)
		default:
			status = yellow(code)
		}
	}

	fmt.Fprintf(f.writer, "  %s %s %s %s\n",
		cyan(req.CapturedAt.Format(time.TimeOnly)), bold(req.Method), req.URL.RequestURI(), status)

	if !f.verbose {
		return
	}
	for _, name := range slices.Sorted(maps.Keys(req.Headers)) {
		for _, v := range req.Headers[name] {
			fmt.Fprintf(f.writer, "    %s: %s\n", name, v)
		}
	}
	if len(req.Body) > 0 {
		fmt.Fprintf(f.writer, "    Body: %s\n", formatBody(req.Body, maxBodyLen))
	}
}

// FormatError prints err. Assertion errors are listed one failure per line.
func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()

	var assertionErr *failure.AssertionError
	if !errors.As(err, &assertionErr) {
		fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
		return
	}

	fmt.Fprintf(f.writer, "%s\n", red("Assertion failed:"))
	for _, fl := range assertionErr.Failures() {
		subject := fl.Clue
		if subject == "" {
			subject = "request"
		}
		fmt.Fprintf(f.writer, "    %s %s: %s\n", red("→"), subject, fl.Message)
	}
}

// FormatListening prints the server banner.
func (f *ConsoleFormatter) FormatListening(url string, responses int) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("Mock server listening on"), cyan(url))
	fmt.Fprintf(f.writer, "Responses arranged: %d\n\n", responses)
}

// FormatValid prints the result of a successful validation.
func (f *ConsoleFormatter) FormatValid(path string, responses int) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s (%d responses)\n", green("✓"), path, responses)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("apythia"), version)
}
