package main

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return withCode(exitIO, errors.Wrap(err, "json encode"))
	}
	return nil
}

// progressPrinter reports every step-th item and the last one.
func progressPrinter(w io.Writer, step int) func(current, total int, description string) {
	return func(current, total int, description string) {
		if current%step == 0 || current == total {
			printer.Fprintf(w, "[%d/%d] %s\n", current, total, description)
		}
	}
}
