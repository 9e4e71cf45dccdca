package app

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// TableFunc writes tab-separated rows for the table format.
type TableFunc func(tw *tabwriter.Writer)

func ValidateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q: use table, json or yaml", format)
	}
}

// Render writes v as JSON, YAML or a table. YAML goes through JSON first so
// both formats share field names.
func Render(w io.Writer, format string, v any, table TableFunc) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		if table == nil {
			return Render(w, FormatJSON, v, nil)
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return ValidateFormat(format)
	}
}

// Or returns s, or dash when s is empty.
func Or(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
