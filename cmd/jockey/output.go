// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juju/ansiterm"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
)

// queryResult is the value handed to the output formatters: projected
// rows with their column names, both in schema order.
type queryResult struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// formatTabular renders the result the way juju status does: an
// aligned table with uppercased headers, bold when writing to a
// terminal.
func (c *queryCommand) formatTabular(writer io.Writer, value interface{}) error {
	result, ok := value.(queryResult)
	if !ok {
		return errors.Errorf("expected value of type %T, got %T", queryResult{}, value)
	}
	tw := ansiterm.NewTabWriter(writer, 0, 1, 2, ' ', 0)
	tw.SetColorCapable(isTerminal(writer))
	if !c.noHeaders {
		header := ansiterm.Context{Styles: []ansiterm.Style{ansiterm.Bold}}
		for i, column := range result.Columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			header.Fprintf(tw, "%s", strings.ToUpper(column))
		}
		fmt.Fprintln(tw)
	}
	for _, row := range result.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// isTerminal checks if the file descriptor is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
