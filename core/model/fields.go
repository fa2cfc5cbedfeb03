// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package model

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/naturalsort"
)

// Field is one projectable column of an entity kind: a name and a
// typed accessor rendering the value for a named entity. The ordered
// field lists below replace the runtime attribute reflection the
// filtering and projection logic would otherwise need.
type Field struct {
	Name  string
	Value func(m *Model, name string) (string, error)
}

var applicationFields = []Field{
	{"application", func(m *Model, name string) (string, error) {
		return name, nil
	}},
	{"charm", func(m *Model, name string) (string, error) {
		app, ok := m.applications[name]
		if !ok {
			return "", errors.NotFoundf("application %q", name)
		}
		return app.Charm, nil
	}},
	{"charm-rev", func(m *Model, name string) (string, error) {
		app, ok := m.applications[name]
		if !ok {
			return "", errors.NotFoundf("application %q", name)
		}
		return strconv.Itoa(app.CharmRev), nil
	}},
	{"principal", func(m *Model, name string) (string, error) {
		app, ok := m.applications[name]
		if !ok {
			return "", errors.NotFoundf("application %q", name)
		}
		return strconv.FormatBool(app.Principal()), nil
	}},
}

var unitFields = []Field{
	{"unit", func(m *Model, name string) (string, error) {
		return name, nil
	}},
	{"application", unitField(func(u *Unit) string { return u.Application })},
	{"charm", unitField(func(u *Unit) string { return u.Charm })},
	{"machine", func(m *Model, name string) (string, error) {
		machine, err := m.UnitMachine(name)
		if errors.IsNotFound(err) {
			return "", nil
		} else if err != nil {
			return "", errors.Trace(err)
		}
		return machine.ID, nil
	}},
	{"hostname", func(m *Model, name string) (string, error) {
		machine, err := m.UnitMachine(name)
		if errors.IsNotFound(err) {
			return "", nil
		} else if err != nil {
			return "", errors.Trace(err)
		}
		return machine.Hostname, nil
	}},
	{"workload", unitField(func(u *Unit) string { return u.Workload })},
	{"agent", unitField(func(u *Unit) string { return u.Agent })},
	{"ip", unitField(func(u *Unit) string { return u.PublicAddress })},
	{"leader", unitField(func(u *Unit) string { return strconv.FormatBool(u.Leader) })},
	{"subordinate", unitField(func(u *Unit) string { return strconv.FormatBool(u.Subordinate) })},
	{"principal-unit", unitField(func(u *Unit) string { return u.Principal })},
}

var machineFields = []Field{
	{"machine", func(m *Model, name string) (string, error) {
		return name, nil
	}},
	{"hostname", machineField(func(mach *Machine) string { return mach.Hostname })},
	{"base", machineField(func(mach *Machine) string { return mach.Base })},
	{"hardware", machineField(func(mach *Machine) string { return mach.Hardware })},
	{"ips", machineField(func(mach *Machine) string {
		ips := append([]string(nil), mach.IPs...)
		return strings.Join(naturalsort.Sort(ips), ",")
	})},
}

func unitField(get func(*Unit) string) func(*Model, string) (string, error) {
	return func(m *Model, name string) (string, error) {
		unit, ok := m.units[name]
		if !ok {
			return "", errors.NotFoundf("unit %q", name)
		}
		return get(unit), nil
	}
}

func machineField(get func(*Machine) string) func(*Model, string) (string, error) {
	return func(m *Model, name string) (string, error) {
		machine, ok := m.machines[name]
		if !ok {
			return "", errors.NotFoundf("machine %q", name)
		}
		return get(machine), nil
	}
}

// FieldsFor returns the ordered field registry for an entity kind:
// "application", "unit" or "machine".
func FieldsFor(kind string) ([]Field, error) {
	switch kind {
	case "application":
		return applicationFields, nil
	case "unit":
		return unitFields, nil
	case "machine":
		return machineFields, nil
	}
	return nil, errors.NotSupportedf("fields for %q", kind)
}
