// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package query

import (
	"strings"

	"github.com/juju/errors"

	"github.com/juju/jockey/core/filter"
	"github.com/juju/jockey/core/model"
)

// Columns resolves the user's column selection against the field
// registry for an entity kind. An empty selection yields the kind's
// full default field set in registry order; an unknown column name is
// a usage error, reported before any query work happens.
func Columns(kind filter.Kind, names []string) ([]model.Field, error) {
	fields, err := model.FieldsFor(kind.String())
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(names) == 0 {
		return fields, nil
	}
	byName := make(map[string]model.Field, len(fields))
	known := make([]string, 0, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
		known = append(known, f.Name)
	}
	chosen := make([]model.Field, 0, len(names))
	for _, name := range names {
		f, ok := byName[name]
		if !ok {
			return nil, errors.NotValidf("column %q for %s queries (known columns: %s)",
				name, kind, strings.Join(known, ", "))
		}
		chosen = append(chosen, f)
	}
	return chosen, nil
}

// Project renders the selected fields of each named entity, one row
// per entity, cells in field order.
func Project(m *model.Model, fields []model.Field, entities []string) ([][]string, error) {
	rows := make([][]string, 0, len(entities))
	for _, name := range entities {
		row := make([]string, len(fields))
		for i, f := range fields {
			value, err := f.Value(m, name)
			if err != nil {
				return nil, errors.Annotatef(err, "rendering %q of %q", f.Name, name)
			}
			row[i] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}
