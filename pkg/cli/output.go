package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatTable outputs as formatted table (default for terminal)
	FormatTable OutputFormat = "table"
)

// ParseFormat validates a --output flag value. Empty means table.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return FormatTable, nil
	case FormatYAML, FormatJSON, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Tabler is implemented by results that can render as a table.
type Tabler interface {
	Table() (headers []string, rows [][]string)
}

// OutputOptions configures output behavior
type OutputOptions struct {
	// Format is the output format (yaml, json, table)
	Format OutputFormat

	// File is the output file path (empty for stdout)
	File string

	// Indent is the indentation for JSON output
	Indent string

	// Writer is an optional custom writer (overrides File)
	Writer io.Writer

	// Styles styles table output. Zero means DefaultStyles.
	Styles *Styles
}

// Output writes the result to the configured destination. Results that do
// not implement Tabler fall back to YAML in table format.
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout

	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch opts.Format {
	case FormatJSON:
		return outputJSON(w, result, opts.Indent)
	case FormatYAML:
		return outputYAML(w, result)
	case FormatTable, "":
		t, ok := result.(Tabler)
		if !ok {
			return outputYAML(w, result)
		}
		styles := DefaultStyles
		if opts.Styles != nil {
			styles = *opts.Styles
		}
		headers, rows := t.Table()
		_, err := io.WriteString(w, RenderTable(styles, headers, rows)+"\n")
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

func outputJSON(w io.Writer, result any, indent string) error {
	enc := json.NewEncoder(w)
	if indent == "" {
		indent = "  "
	}
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// PrintSuccess prints a success message with checkmark
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintError prints an error message to stderr
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "⚠ "+format+"\n", args...)
}
