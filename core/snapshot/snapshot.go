// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package snapshot holds the wire representation of one immutable
// "juju status --format=json" document. Nothing here talks to a
// controller; a Provider hands the raw document to the caller and the
// types below give it shape.
package snapshot

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"
)

// Status is the top level of the status document. Only the keys the
// query engine consumes are modelled; unknown keys are ignored.
type Status struct {
	Model        ModelInfo               `json:"model"`
	Machines     OrderedMap[Machine]     `json:"machines"`
	Applications OrderedMap[Application] `json:"applications"`
}

// ModelInfo holds the identity of the model the snapshot describes.
type ModelInfo struct {
	Name       string `json:"name"`
	Controller string `json:"controller"`
	Cloud      string `json:"cloud"`
	Version    string `json:"version"`
}

// Application holds status info about an application.
type Application struct {
	CharmName     string           `json:"charm-name"`
	CharmRev      int              `json:"charm-rev"`
	CharmChannel  string           `json:"charm-channel"`
	Exposed       bool             `json:"exposed"`
	SubordinateTo []string         `json:"subordinate-to"`
	Units         OrderedMap[Unit] `json:"units"`
}

// Unit holds status info about a unit. Subordinate units appear nested
// under their principal and carry no machine of their own.
type Unit struct {
	Machine        string           `json:"machine"`
	WorkloadStatus StatusInfo       `json:"workload-status"`
	JujuStatus     StatusInfo       `json:"juju-status"`
	PublicAddress  string           `json:"public-address"`
	Leader         bool             `json:"leader"`
	Subordinates   OrderedMap[Unit] `json:"subordinates"`
}

// StatusInfo holds a current status value and its context.
type StatusInfo struct {
	Current string `json:"current"`
	Message string `json:"message"`
	Since   string `json:"since"`
}

// Machine holds status info about a machine or a container on one.
// Exactly one of Series (legacy documents) or Base (current documents)
// is populated.
type Machine struct {
	Hostname    string              `json:"hostname"`
	Series      string              `json:"series"`
	Base        *Base               `json:"base"`
	Hardware    string              `json:"hardware"`
	IPAddresses []string            `json:"ip-addresses"`
	Containers  OrderedMap[Machine] `json:"containers"`
}

// Base identifies an OS base in the structured form introduced
// alongside the legacy series string.
type Base struct {
	Name    string `json:"name"`
	Channel string `json:"channel"`
}

// BaseString renders the machine's base: "name@channel" for structured
// bases, the bare series for legacy documents.
func (m Machine) BaseString() string {
	if m.Base != nil {
		return m.Base.Name + "@" + m.Base.Channel
	}
	return m.Series
}

// Parse decodes a status document. The two collections the query
// engine is built on must both be present; everything else is
// optional.
func Parse(data []byte) (*Status, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Annotate(err, "parsing status document")
	}
	for _, key := range []string{"applications", "machines"} {
		if _, ok := raw[key]; !ok {
			return nil, errors.NotValidf("status document without %q", key)
		}
	}
	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, errors.Annotate(err, "parsing status document")
	}
	return &status, nil
}

// Provider supplies one immutable status snapshot per invocation.
// Implementations decide where the document comes from: a live juju
// client, an on-disk cache, or a local file.
type Provider interface {
	Snapshot(ctx context.Context) (*Status, error)
}
