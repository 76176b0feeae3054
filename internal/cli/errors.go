// Package cli provides CLI output formatting and display functions.
package cli

import (
	"fmt"
	"io"

	"github.com/actorwatch/runtime/internal/config"
)

// maxCompactMessage is the longest validation message shown without --verbose.
const maxCompactMessage = 80

// PrintParseErrors prints parse errors to w.
func PrintParseErrors(w io.Writer, errs []config.ParseError, verbose bool) {
	fmt.Fprintln(w, "✗ Parse errors:")
	for _, err := range errs {
		fmt.Fprintf(w, "  %s\n", err.Error())
		if verbose && err.Kind != "" {
			fmt.Fprintf(w, "    Kind: %s\n", err.Kind)
		}
	}
}

// PrintValidationErrors prints one line per offending job setting.
func PrintValidationErrors(w io.Writer, errs []config.ValidationError, verbose, quiet bool) {
	fmt.Fprintln(w, "✗ Validation errors:")
	for _, err := range errs {
		if verbose {
			fmt.Fprintf(w, "  %s:\n", err.Field)
			fmt.Fprintf(w, "    Message: %s\n", err.Message)
			fmt.Fprintf(w, "    Rule: %s\n", err.Rule)
			continue
		}
		msg := err.Message
		if len(msg) > maxCompactMessage {
			msg = msg[:maxCompactMessage-3] + "..."
		}
		fmt.Fprintf(w, "  %s: %s\n", err.Field, msg)
	}
	if !quiet && !verbose {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Hint: Use --verbose for detailed error information")
	}
}
