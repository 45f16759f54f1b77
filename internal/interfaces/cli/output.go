package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// tabular is implemented by results that can render as a table.
type tabular interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult writes data in the format selected by --output.  Results that
// do not implement tabular fall back to text in table mode.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := "json"
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = strings.ToLower(cliCtx.OutputFormat)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "table":
		if t, ok := data.(tabular); ok {
			_, err := fmt.Fprint(out, FormatTable(t.TableHeaders(), t.TableRows()))
			return err
		}
	}

	switch v := data.(type) {
	case fmt.Stringer:
		_, err := fmt.Fprintln(out, v.String())
		return err
	case string:
		_, err := fmt.Fprintln(out, v)
		return err
	default:
		_, err := fmt.Fprintf(out, "%+v\n", v)
		return err
	}
}

// PrintError writes err to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as space-aligned columns with a dashed
// rule under the header.  Widths are measured in runes so accented protocol
// names line up.  Cells beyond len(headers) are dropped.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	measure := func(row []string) {
		for i := range widths {
			if i < len(row) {
				if n := utf8.RuneCountInString(row[i]); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}
	measure(headers)
	for _, r := range rows {
		measure(r)
	}

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		cells := make([]string, len(widths))
		for i := range widths {
			var v string
			if i < len(row) {
				v = row[i]
			}
			cells[i] = padRight(v, widths[i])
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		sb.WriteByte('\n')
	}
	writeRow(headers)
	writeRow(rule)
	for _, r := range rows {
		writeRow(r)
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
