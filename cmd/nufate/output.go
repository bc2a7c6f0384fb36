// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// envelope wraps every JSON result.
type envelope struct {
	RunID   string `json:"run_id"`
	Command string `json:"command"`
	Result  any    `json:"result"`
}

// emit writes result as an indented JSON envelope, or calls table with an
// aligned tab writer when --format text was requested.
func (a *app) emit(command string, result any, table func(w io.Writer) error) error {
	if a.format == "text" {
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		if err := table(tw); err != nil {
			return err
		}

		return tw.Flush()
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(envelope{RunID: a.runID.String(), Command: command, Result: result})
}

// writeRow writes one tab-separated line of %g-formatted values after label.
func writeRow(w io.Writer, label string, values []float64) error {
	var b strings.Builder
	b.WriteString(label)
	for _, v := range values {
		fmt.Fprintf(&b, "\t%.6g", v)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())

	return err
}
