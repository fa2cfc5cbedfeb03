// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package query evaluates parsed filter expressions against the
// entity model. A query names an entity kind to enumerate and a list
// of filters; the result is the subset of entities satisfying every
// filter, in snapshot order. Filters targeting other entity kinds are
// joined through the relationship resolver, and the machine-dependent
// joins are skipped entirely when no filter needs them.
package query

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/jockey/core/filter"
	"github.com/juju/jockey/core/model"
)

var logger = loggo.GetLogger("jockey.query")

// Run returns the names of all entities of the requested kind matching
// every filter. Only applications, units and machines can be
// enumerated; charm, ip and hostname are filter-only kinds. An
// inconsistent snapshot aborts the whole query with an error
// satisfying model.IsIntegrityError.
func Run(m *model.Model, kind filter.Kind, filters []filter.Filter) ([]string, error) {
	logger.Debugf("querying %s entities with %d filter(s)", kind, len(filters))
	p := partition(filters)
	switch kind {
	case filter.Application:
		return matchApplications(m, p)
	case filter.Unit:
		return matchUnits(m, p)
	case filter.Machine:
		return matchMachines(m, p)
	}
	return nil, errors.NotSupportedf("querying %q entities", kind)
}

// predicates holds the query's filters partitioned by target kind.
type predicates struct {
	charm    []filter.Filter
	app      []filter.Filter
	unit     []filter.Filter
	machine  []filter.Filter
	ip       []filter.Filter
	hostname []filter.Filter
}

func partition(filters []filter.Filter) predicates {
	var p predicates
	for _, f := range filters {
		switch f.Kind {
		case filter.Charm:
			p.charm = append(p.charm, f)
		case filter.Application:
			p.app = append(p.app, f)
		case filter.Unit:
			p.unit = append(p.unit, f)
		case filter.Machine:
			p.machine = append(p.machine, f)
		case filter.IP:
			p.ip = append(p.ip, f)
		case filter.Hostname:
			p.hostname = append(p.hostname, f)
		}
	}
	return p
}

func (p predicates) needMachine() bool {
	return len(p.machine)+len(p.ip)+len(p.hostname) > 0
}

// matchAll reports whether every filter matches at least one of the
// given join values. A filter faced with no values at all is false:
// missing join data never matches.
func matchAll(filters []filter.Filter, values ...string) bool {
	for _, f := range filters {
		matched := false
		for _, v := range values {
			if f.Match(v) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func matchUnits(m *model.Model, p predicates) ([]string, error) {
	var out []string
	for _, unit := range m.Units() {
		if !matchAll(p.unit, unit.Name) {
			continue
		}
		if len(p.app) > 0 || len(p.charm) > 0 {
			if !matchAll(p.app, unit.Application) {
				continue
			}
			if !matchAll(p.charm, unit.Charm) {
				continue
			}
		}
		if p.needMachine() {
			machine, err := m.UnitMachine(unit.Name)
			if errors.IsNotFound(err) {
				// Not assigned yet; machine-dependent filters
				// cannot hold.
				continue
			} else if err != nil {
				return nil, errors.Trace(err)
			}
			if !matchAll(p.machine, machine.ID) {
				continue
			}
			if !matchAll(p.hostname, machine.Hostname) {
				continue
			}
			if !matchAll(p.ip, machine.IPs...) {
				continue
			}
		}
		out = append(out, unit.Name)
	}
	return out, nil
}

func matchMachines(m *model.Model, p predicates) ([]string, error) {
	var out []string
	for _, machine := range m.Machines() {
		if !matchAll(p.machine, machine.ID) {
			continue
		}
		if !matchAll(p.hostname, machine.Hostname) {
			continue
		}
		if !matchAll(p.ip, machine.IPs...) {
			continue
		}
		if len(p.unit) > 0 || len(p.app) > 0 || len(p.charm) > 0 {
			units := m.UnitsOn(machine.ID)
			var unitNames, appNames, charms []string
			for _, u := range units {
				unitNames = append(unitNames, u.Name)
				appNames = append(appNames, u.Application)
				charms = append(charms, u.Charm)
			}
			if !matchAll(p.unit, unitNames...) {
				continue
			}
			if !matchAll(p.app, appNames...) {
				continue
			}
			if !matchAll(p.charm, charms...) {
				continue
			}
		}
		out = append(out, machine.ID)
	}
	return out, nil
}

func matchApplications(m *model.Model, p predicates) ([]string, error) {
	var out []string
	for _, app := range m.Applications() {
		if !matchAll(p.app, app.Name) {
			continue
		}
		if !matchAll(p.charm, app.Charm) {
			continue
		}
		if len(p.unit) > 0 || p.needMachine() {
			var unitNames []string
			for _, u := range m.Units() {
				if u.Application == app.Name {
					unitNames = append(unitNames, u.Name)
				}
			}
			if !matchAll(p.unit, unitNames...) {
				continue
			}
			if p.needMachine() {
				machines, hostnames, ips, err := unitMachineValues(m, unitNames)
				if err != nil {
					return nil, errors.Trace(err)
				}
				if !matchAll(p.machine, machines...) {
					continue
				}
				if !matchAll(p.hostname, hostnames...) {
					continue
				}
				if !matchAll(p.ip, ips...) {
					continue
				}
			}
		}
		out = append(out, app.Name)
	}
	return out, nil
}

// unitMachineValues resolves the machines behind a set of units and
// collects their ids, hostnames and IP addresses for joined matching.
func unitMachineValues(m *model.Model, unitNames []string) (machines, hostnames, ips []string, err error) {
	seen := set.NewStrings()
	for _, name := range unitNames {
		machine, err := m.UnitMachine(name)
		if errors.IsNotFound(err) {
			continue
		} else if err != nil {
			return nil, nil, nil, errors.Trace(err)
		}
		if seen.Contains(machine.ID) {
			continue
		}
		seen.Add(machine.ID)
		machines = append(machines, machine.ID)
		hostnames = append(hostnames, machine.Hostname)
		ips = append(ips, machine.IPs...)
	}
	return machines, hostnames, ips, nil
}
