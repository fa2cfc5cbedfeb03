// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// jockey answers questions about a Juju model from one status
// snapshot: given an entity kind and a list of filter expressions, it
// prints the matching applications, units or machines.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/juju/jockey/core/filter"
	"github.com/juju/jockey/core/model"
	"github.com/juju/jockey/core/query"
	"github.com/juju/jockey/core/snapshot"
	"github.com/juju/jockey/internal/cache"
)

func main() {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	os.Exit(cmd.Main(newQueryCommand(), ctx, os.Args[1:]))
}

func newQueryCommand() cmd.Command {
	return &queryCommand{}
}

// queryCommand implements the jockey CLI.
type queryCommand struct {
	cmd.CommandBase
	log cmd.Log
	out cmd.Output

	kind    filter.Kind
	filters []filter.Filter

	refresh   bool
	file      string
	columns   string
	noHeaders bool

	// provider overrides snapshot acquisition in tests.
	provider snapshot.Provider
}

const queryDoc = `
jockey queries one immutable snapshot of "juju status" and prints the
entities matching every given filter.

The entity kind is one of application, unit or machine (abbreviations
and plural forms are accepted). Each filter is <kind><op><value>, where
kind may also be charm, hostname or ip, and op is one of:

    =    equals
    !=   not equals (also ^=)
    ~    matches regular expression
    !~   does not match regular expression (also ^~)

Filters targeting other entity kinds are resolved through the model's
relationships, so units can be filtered by hostname and machines by
charm.

Examples:

    jockey units app=nova-compute
    jockey u hostname~ubun
    jockey machines ip~10\.0\.0
    jockey apps charm=ntp -c application,charm-rev
`

// Info implements cmd.Command.
func (c *queryCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "jockey",
		Args:    "<kind> [filter ...]",
		Purpose: "Query Juju entities matching a set of filters.",
		Doc:     strings.TrimSpace(queryDoc),
	}
}

// SetFlags implements cmd.Command.
func (c *queryCommand) SetFlags(f *gnuflag.FlagSet) {
	c.log.AddFlags(f)
	c.out.AddFlags(f, "tabular", map[string]cmd.Formatter{
		"tabular": c.formatTabular,
		"json":    cmd.FormatJson,
		"yaml":    cmd.FormatYaml,
	})
	f.BoolVar(&c.refresh, "refresh", false, "Force a refresh of the status cache")
	f.StringVar(&c.file, "f", "", "")
	f.StringVar(&c.file, "file", "", "Read the status snapshot from a local JSON file")
	f.StringVar(&c.columns, "c", "", "")
	f.StringVar(&c.columns, "columns", "", "Comma-separated list of columns to display")
	f.BoolVar(&c.noHeaders, "no-headers", false, "Omit the header row from tabular output")
}

// Init implements cmd.Command.
func (c *queryCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no entity kind specified")
	}
	kind, err := filter.ParseKind(args[0])
	if err != nil {
		return errors.Trace(err)
	}
	switch kind {
	case filter.Application, filter.Unit, filter.Machine:
	default:
		return errors.NotSupportedf("querying %q entities", kind)
	}
	c.kind = kind
	c.filters, err = filter.ParseAll(args[1:])
	return errors.Trace(err)
}

// Run implements cmd.Command.
func (c *queryCommand) Run(ctx *cmd.Context) error {
	// Log.Start registers a "warning" writer it never removes; clear
	// any leftover registration so Run works more than once per
	// process.
	_, _ = loggo.RemoveWriter("warning")
	if err := c.log.Start(ctx); err != nil {
		return errors.Trace(err)
	}
	fields, err := query.Columns(c.kind, c.columnNames())
	if err != nil {
		return errors.Trace(err)
	}

	provider, err := c.snapshotProvider()
	if err != nil {
		return errors.Trace(err)
	}
	status, err := provider.Snapshot(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	m, err := model.Build(status)
	if err != nil {
		return errors.Trace(err)
	}

	entities, err := query.Run(m, c.kind, c.filters)
	if err != nil {
		return errors.Trace(err)
	}
	rows, err := query.Project(m, fields, entities)
	if err != nil {
		return errors.Trace(err)
	}

	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	return c.out.Write(ctx, queryResult{Columns: columns, Rows: rows})
}

func (c *queryCommand) columnNames() []string {
	if c.columns == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(c.columns, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (c *queryCommand) snapshotProvider() (snapshot.Provider, error) {
	if c.provider != nil {
		return c.provider, nil
	}
	if c.file != "" {
		return cache.FileProvider{Path: c.file}, nil
	}
	provider, err := cache.NewProvider(c.refresh)
	return provider, errors.Trace(err)
}
