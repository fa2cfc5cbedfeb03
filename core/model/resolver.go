// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package model

import (
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/names/v5"
)

var logger = loggo.GetLogger("jockey.model")

// ApplicationOf returns the application name a unit belongs to,
// derived from the unit's name prefix.
func (m *Model) ApplicationOf(unitName string) (string, error) {
	appName, err := names.UnitApplication(unitName)
	if err != nil {
		return "", errors.NotValidf("unit name %q", unitName)
	}
	return appName, nil
}

// CharmOf returns the charm name of the named application.
func (m *Model) CharmOf(appName string) (string, error) {
	app, ok := m.applications[appName]
	if !ok {
		return "", errors.NotFoundf("application %q", appName)
	}
	return app.Charm, nil
}

// PrincipalUnit resolves a unit to its principal unit. Units of
// principal applications resolve to themselves. For a subordinate
// unit, the principal is found by scanning the principal units of the
// applications this unit's application is subordinate to, returning
// whichever one lists the unit as a subordinate; a subordinate with no
// such principal is an integrity failure, not a miss.
func (m *Model) PrincipalUnit(unitName string) (*Unit, error) {
	unit, ok := m.units[unitName]
	if !ok {
		return nil, errors.NotFoundf("unit %q", unitName)
	}
	if !unit.Subordinate {
		return unit, nil
	}
	app := m.applications[unit.Application]
	for _, principalApp := range app.SubordinateTo {
		pApp, ok := m.applications[principalApp]
		if !ok || !pApp.Principal() {
			continue
		}
		for _, candidate := range m.unitOrder {
			pUnit := m.units[candidate]
			if pUnit.Application != principalApp {
				continue
			}
			for _, subName := range pUnit.Subordinates {
				if subName == unitName {
					logger.Tracef("unit %q resolved to principal %q", unitName, pUnit.Name)
					return pUnit, nil
				}
			}
		}
	}
	return nil, integrityf("subordinate unit %q has no principal unit", unitName)
}

// UnitMachine resolves the machine a unit runs on, resolving
// subordinates through their principal unit first. A principal unit
// not yet assigned to a machine is a plain miss; an assigned machine
// id absent from the machine set is an integrity failure.
func (m *Model) UnitMachine(unitName string) (*Machine, error) {
	principal, err := m.PrincipalUnit(unitName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if principal.MachineID == "" {
		return nil, errors.NotFoundf("machine for unit %q", unitName)
	}
	machine, ok := m.machines[principal.MachineID]
	if !ok {
		return nil, integrityf("unit %q references machine %q which does not exist", principal.Name, principal.MachineID)
	}
	return machine, nil
}

// MachineHostname returns the hostname of the machine or container
// with the given id.
func (m *Model) MachineHostname(id string) (string, error) {
	machine, ok := m.machines[id]
	if !ok {
		return "", errors.NotFoundf("machine %q", id)
	}
	return machine.Hostname, nil
}

// MachineIPs returns the IP addresses of the machine or container with
// the given id.
func (m *Model) MachineIPs(id string) ([]string, error) {
	machine, ok := m.machines[id]
	if !ok {
		return nil, errors.NotFoundf("machine %q", id)
	}
	return machine.IPs, nil
}

// MachineByIP returns the machine owning the given IP address,
// scanning machines and containers in snapshot order.
func (m *Model) MachineByIP(ip string) (*Machine, bool) {
	for _, id := range m.machineOrder {
		machine := m.machines[id]
		for _, addr := range machine.IPs {
			if addr == ip {
				return machine, true
			}
		}
	}
	return nil, false
}

// MachineByHostname returns the machine with the given hostname,
// scanning machines and containers in snapshot order.
func (m *Model) MachineByHostname(hostname string) (*Machine, bool) {
	for _, id := range m.machineOrder {
		if m.machines[id].Hostname == hostname {
			return m.machines[id], true
		}
	}
	return nil, false
}

// UnitsOn returns the units hosted on the machine with the given id:
// each principal unit assigned to it, followed by that unit's
// subordinates, in snapshot order. Units on a machine's containers are
// not included; a container id addresses its own units.
func (m *Model) UnitsOn(machineID string) []*Unit {
	var units []*Unit
	for _, name := range m.unitOrder {
		unit := m.units[name]
		if unit.Subordinate || unit.MachineID != machineID {
			continue
		}
		units = append(units, unit)
		for _, subName := range unit.Subordinates {
			units = append(units, m.units[subName])
		}
	}
	return units
}
