// Copyright 2024 go-dataspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ui contains UI functions, mostly output functions at this time.
package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/fatih/color"
)

// Out is where Print, JSON and Table write to.
var Out io.Writer = os.Stdout

// Error prints a red error message to stderr.
func Error(message string) {
	color.New(color.BgRed, color.FgWhite, color.Bold).Fprint(os.Stderr, " ERROR ")
	color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, " "+message)
}

// Warn prints a yellow warning message to stderr.
func Warn(message string) {
	color.New(color.BgYellow, color.FgWhite, color.Bold).Fprint(os.Stderr, " WARN ")
	color.New(color.FgYellow, color.Bold).Fprintln(os.Stderr, " "+message)
}

// Info prints a green informational message to stderr.
func Info(message string) {
	color.New(color.BgGreen, color.FgWhite, color.Bold).Fprint(os.Stderr, " INFO ")
	color.New(color.FgGreen, color.Bold).Fprintln(os.Stderr, " "+message)
}

// Print is a normal message, to stdout.
func Print(message string) {
	color.New().Fprint(Out, message)
}

// JSON pretty prints o, highlighted unless colour is disabled.
func JSON(o any) error {
	b, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("could not marshal output: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return fmt.Errorf("could not indent JSON: %w", err)
	}
	buf.WriteByte('\n')
	if color.NoColor {
		_, err := Out.Write(buf.Bytes())
		return err
	}
	return quick.Highlight(Out, buf.String(), "json", "terminal256", "catppuccin-mocha")
}

// Table prints rows in aligned columns under a bold header.
func Table(header []string, rows [][]string) {
	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)
	for i, h := range header {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, bold.Sprint(h))
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		for i, c := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, c)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

// Fields prints name/value pairs, one per line.
func Fields(pairs ...string) {
	w := tabwriter.NewWriter(Out, 0, 0, 1, ' ', 0)
	bold := color.New(color.Bold)
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(w, "%s\t%s\n", bold.Sprint(pairs[i]), pairs[i+1])
	}
	w.Flush()
}

// Progress markers for a list of steps.
var (
	markPending   = color.New(color.FgHiBlack).Sprint("·")
	markRunning   = color.New(color.FgCyan, color.Bold).Sprint("›")
	markSucceeded = color.New(color.FgGreen, color.Bold).Sprint("✓")
	markFailed    = color.New(color.FgRed, color.Bold).Sprint("✗")
	markSuspended = color.New(color.FgYellow, color.Bold).Sprint("‖")
)

// Step prints one line of a progress list. status is one of pending, running, succeeded,
// failed and suspended.
func Step(status, name, detail string) {
	mark := markPending
	switch status {
	case "running":
		mark = markRunning
	case "succeeded":
		mark = markSucceeded
	case "failed":
		mark = markFailed
	case "suspended":
		mark = markSuspended
	}
	if detail != "" {
		fmt.Fprintf(os.Stderr, " %s %-28s %s\n", mark, name, color.New(color.Faint).Sprint(detail))
		return
	}
	fmt.Fprintf(os.Stderr, " %s %s\n", mark, name)
}
