// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package model turns one status snapshot into a typed, immutable
// entity graph: applications, units and machines, with the
// principal/subordinate and machine/container relationships made
// explicit. Nothing in this package mutates the model after Build
// returns, so a model may be shared freely across readers.
package model

import (
	"github.com/juju/errors"
	"github.com/juju/names/v5"

	"github.com/juju/jockey/core/snapshot"
)

// Application describes one application in the snapshot.
type Application struct {
	Name          string
	Charm         string
	CharmRev      int
	SubordinateTo []string
}

// Principal reports whether the application owns machines directly.
// A subordinate application is attached to principal units of the
// applications it is subordinate to and has no machines of its own.
func (a *Application) Principal() bool {
	return len(a.SubordinateTo) == 0
}

// Unit describes one unit in the snapshot. Subordinate units carry the
// name of the principal unit they are attached to and no machine id;
// their effective machine resolves through the principal.
type Unit struct {
	Name          string
	Application   string
	Charm         string
	Workload      string
	Agent         string
	PublicAddress string
	Leader        bool
	Subordinate   bool

	// Principal is the owning principal unit name, subordinates only.
	Principal string

	// MachineID is the assigned machine, principal units only.
	MachineID string

	// Subordinates lists nested subordinate unit names in document
	// order, principal units only.
	Subordinates []string
}

// Machine describes one machine or container in the snapshot. The
// model flattens containers into the machine set, so a container id
// looks up directly; Parent links it back to the physical host.
type Machine struct {
	ID         string
	Hostname   string
	Base       string
	Hardware   string
	IPs        []string
	Parent     string
	Containers []string
}

// Model is the immutable entity graph built from one snapshot.
type Model struct {
	applications map[string]*Application
	appOrder     []string

	units     map[string]*Unit
	unitOrder []string

	machines     map[string]*Machine
	machineOrder []string
}

// Build constructs the entity model from a parsed snapshot. Cross
// references (unit machine ids, subordinate principals) are not
// validated here; the resolver checks them when a lookup actually
// needs them.
func Build(status *snapshot.Status) (*Model, error) {
	m := &Model{
		applications: make(map[string]*Application),
		units:        make(map[string]*Unit),
		machines:     make(map[string]*Machine),
	}
	for _, id := range status.Machines.Keys() {
		raw, _ := status.Machines.Get(id)
		m.addMachine(id, raw, "")
	}
	for _, name := range status.Applications.Keys() {
		raw, _ := status.Applications.Get(name)
		m.applications[name] = &Application{
			Name:          name,
			Charm:         raw.CharmName,
			CharmRev:      raw.CharmRev,
			SubordinateTo: raw.SubordinateTo,
		}
		m.appOrder = append(m.appOrder, name)
	}
	for _, name := range status.Applications.Keys() {
		raw, _ := status.Applications.Get(name)
		for _, unitName := range raw.Units.Keys() {
			rawUnit, _ := raw.Units.Get(unitName)
			if err := m.addUnit(unitName, name, rawUnit); err != nil {
				return nil, errors.Trace(err)
			}
		}
	}
	return m, nil
}

func (m *Model) addMachine(id string, raw snapshot.Machine, parent string) {
	machine := &Machine{
		ID:       id,
		Hostname: raw.Hostname,
		Base:     raw.BaseString(),
		Hardware: raw.Hardware,
		IPs:      raw.IPAddresses,
		Parent:   parent,
	}
	m.machines[id] = machine
	m.machineOrder = append(m.machineOrder, id)
	for _, containerID := range raw.Containers.Keys() {
		rawContainer, _ := raw.Containers.Get(containerID)
		machine.Containers = append(machine.Containers, containerID)
		m.addMachine(containerID, rawContainer, id)
	}
}

func (m *Model) addUnit(name, appName string, raw snapshot.Unit) error {
	if !names.IsValidUnit(name) {
		return errors.NotValidf("unit name %q", name)
	}
	unit := &Unit{
		Name:          name,
		Application:   appName,
		Charm:         m.applications[appName].Charm,
		Workload:      raw.WorkloadStatus.Current,
		Agent:         raw.JujuStatus.Current,
		PublicAddress: raw.PublicAddress,
		Leader:        raw.Leader,
		MachineID:     raw.Machine,
	}
	m.units[name] = unit
	m.unitOrder = append(m.unitOrder, name)

	for _, subName := range raw.Subordinates.Keys() {
		rawSub, _ := raw.Subordinates.Get(subName)
		if !names.IsValidUnit(subName) {
			return errors.NotValidf("unit name %q", subName)
		}
		subApp, err := names.UnitApplication(subName)
		if err != nil {
			return errors.Trace(err)
		}
		app, ok := m.applications[subApp]
		if !ok {
			return integrityf("subordinate unit %q of unknown application %q", subName, subApp)
		}
		sub := &Unit{
			Name:          subName,
			Application:   subApp,
			Charm:         app.Charm,
			Workload:      rawSub.WorkloadStatus.Current,
			Agent:         rawSub.JujuStatus.Current,
			PublicAddress: rawSub.PublicAddress,
			Leader:        rawSub.Leader,
			Subordinate:   true,
			Principal:     name,
		}
		m.units[subName] = sub
		m.unitOrder = append(m.unitOrder, subName)
		unit.Subordinates = append(unit.Subordinates, subName)
	}
	return nil
}

// Applications returns all applications in snapshot order.
func (m *Model) Applications() []*Application {
	apps := make([]*Application, len(m.appOrder))
	for i, name := range m.appOrder {
		apps[i] = m.applications[name]
	}
	return apps
}

// Units returns all units in snapshot order: applications as they
// appear in the document, each principal unit followed by its
// subordinates.
func (m *Model) Units() []*Unit {
	units := make([]*Unit, len(m.unitOrder))
	for i, name := range m.unitOrder {
		units[i] = m.units[name]
	}
	return units
}

// Machines returns all machines in snapshot order, each physical
// machine followed by its containers.
func (m *Model) Machines() []*Machine {
	machines := make([]*Machine, len(m.machineOrder))
	for i, id := range m.machineOrder {
		machines[i] = m.machines[id]
	}
	return machines
}

// Application returns the named application.
func (m *Model) Application(name string) (*Application, bool) {
	app, ok := m.applications[name]
	return app, ok
}

// Unit returns the named unit.
func (m *Model) Unit(name string) (*Unit, bool) {
	unit, ok := m.units[name]
	return unit, ok
}

// Machine returns the machine or container with the given id.
func (m *Model) Machine(id string) (*Machine, bool) {
	machine, ok := m.machines[id]
	return machine, ok
}
