package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"golang.org/x/term"

	"github.com/wippyai/jsbridge/errors"
	"github.com/wippyai/jsbridge/runtime"
)

var (
	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// result is the serialized form of a script output.
type result struct {
	Kind  string `json:"kind" yaml:"kind"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Hex   string `json:"hex,omitempty" yaml:"hex,omitempty"`
}

func toResult(out runtime.Output) result {
	r := result{Kind: out.Kind.String()}
	switch out.Kind {
	case runtime.OutputBytes:
		r.Hex = hex.EncodeToString(out.Bytes)
	case runtime.OutputString, runtime.OutputOther:
		r.Value = out.Text
	}
	return r
}

func checkFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	default:
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unsupported output format: %s", format))
	}
}

func printOutput(w io.Writer, out runtime.Output, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toResult(out))
	case "yaml":
		data, err := yaml.Marshal(toResult(out))
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		if isTerminal(w) {
			_, err := fmt.Fprintf(w, "%s %s\n", kindStyle.Render("["+out.Kind.String()+"]"), resultStyle.Render(out.String()))
			return err
		}
		_, err := fmt.Fprintln(w, out.String())
		return err
	}
}

func printError(w io.Writer, err error) {
	msg := "Error: " + err.Error()
	if isTerminal(w) {
		msg = errorStyle.Render(msg)
	}
	fmt.Fprintln(w, msg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
