package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// format resolves --output and --json into one output format.
func format() (string, error) {
	if jsonOutput {
		return outputJSON, nil
	}
	switch outputFormat {
	case "", outputText:
		return outputText, nil
	case outputJSON, outputYAML:
		return outputFormat, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", outputFormat)
	}
}

// render writes v as JSON or YAML when requested, and calls text otherwise.
func render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	f, err := format()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch f {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
	default:
		text(w)
	}
	return nil
}
