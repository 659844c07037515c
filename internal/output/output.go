// Package output provides formatted terminal output utilities.
// It includes colors, tables and the renderers behind the --output flag.
package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloudemu/zero/internal/constants"

	"github.com/fatih/color"
)

var (
	// Colors and styles
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	gray   = color.New(color.FgHiBlack)
	bold   = color.New(color.Bold)

	// Matches ANSI escape sequences used for colors/styles
	ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

// visibleWidth returns the number of visible characters, ignoring ANSI escape codes
func visibleWidth(s string) int {
	clean := ansiRegexp.ReplaceAllString(s, "")
	return utf8.RuneCountInString(clean)
}

// Printer writes human output to Out and diagnostics to Err.
// Commands receive a Printer instead of writing to the process streams so
// that tests can capture both.
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Format constants.OutputFormat
}

// New returns a Printer writing to the given streams in the given format.
func New(out, errOut io.Writer, format constants.OutputFormat) *Printer {
	if format == "" {
		format = constants.OutputText
	}
	return &Printer{Out: out, Err: errOut, Format: format}
}

// Successf prints a success message with a checkmark (to stderr)
// Example: ✓ Workload web started
func (p *Printer) Successf(format string, a ...any) {
	_, _ = fmt.Fprintf(p.Err, green.Sprint("✓")+" "+format+"\n", a...)
}

// Infof prints an informational message with an arrow (to stderr)
// Example: → Starting workload web with image nginx...
func (p *Printer) Infof(format string, a ...any) {
	_, _ = fmt.Fprintf(p.Err, cyan.Sprint("→")+" "+format+"\n", a...)
}

// Warningf prints a warning message with a warning symbol (to stderr)
func (p *Printer) Warningf(format string, a ...any) {
	_, _ = fmt.Fprintf(p.Err, yellow.Sprint("⚠")+" "+format+"\n", a...)
}

// Errorf prints an error message with an X symbol (to stderr)
func (p *Printer) Errorf(format string, a ...any) {
	_, _ = fmt.Fprintf(p.Err, red.Sprint("✗")+" "+format+"\n", a...)
}

// Header prints a section header with a separator line (to stdout)
func (p *Printer) Header(text string) {
	_, _ = fmt.Fprintln(p.Out, bold.Sprint(text))
	_, _ = fmt.Fprintln(p.Out, gray.Sprint(strings.Repeat("━", constants.HeaderSeparatorLength)))
}

// KeyValue prints a key-value pair with indentation
// Example:   status: Running
func (p *Printer) KeyValue(key, value string) {
	_, _ = fmt.Fprintf(p.Out, "  %s: %s\n", gray.Sprint(key), value)
}

// Println prints a plain line without any formatting
func (p *Printer) Println(a ...any) {
	_, _ = fmt.Fprintln(p.Out, a...)
}

// List prints a bulleted list
func (p *Printer) List(items []string) {
	for _, item := range items {
		_, _ = fmt.Fprintf(p.Out, "  %s %s\n", cyan.Sprint("•"), item)
	}
}

// Table prints a simple table with headers
// Example:
// id    image   status
// ──    ─────   ──────
// web   nginx   Running
func (p *Printer) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = visibleWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], visibleWidth(cell))
			}
		}
	}

	for i, h := range headers {
		pad := max(widths[i]-visibleWidth(h), 0)
		_, _ = fmt.Fprint(p.Out, bold.Sprint(h), strings.Repeat(" ", pad), "  ")
	}
	_, _ = fmt.Fprintln(p.Out)

	for i := range headers {
		_, _ = fmt.Fprintf(p.Out, "%s  ", gray.Sprint(strings.Repeat("─", widths[i])))
	}
	_, _ = fmt.Fprintln(p.Out)

	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				continue
			}
			pad := max(widths[i]-visibleWidth(cell), 0)
			_, _ = fmt.Fprint(p.Out, cell, strings.Repeat(" ", pad), "  ")
		}
		_, _ = fmt.Fprintln(p.Out)
	}
}

// Bold returns text in bold
func Bold(text string) string {
	return bold.Sprint(text)
}

// Green returns text in green
func Green(text string) string {
	return green.Sprint(text)
}

// Red returns text in red
func Red(text string) string {
	return red.Sprint(text)
}

// StatusColor colors a resource state: running and active states green,
// stopped and failed states red, anything else unchanged.
func StatusColor(state string) string {
	switch strings.ToLower(state) {
	case "running", "active", "available", "ready", "created", "executed":
		return Green(state)
	case "stopped", "failed", "deleted":
		return Red(state)
	default:
		return state
	}
}
