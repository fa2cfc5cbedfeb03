// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package query_test

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/jockey/core/filter"
	"github.com/juju/jockey/core/model"
	"github.com/juju/jockey/core/query"
	"github.com/juju/jockey/core/snapshot"
)

type querySuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&querySuite{})

// scenarioDoc: one machine hosting a principal ubuntu unit with an
// ntp subordinate attached.
const scenarioDoc = `{
  "machines": {
    "0": {
      "hostname": "juju-abc",
      "base": {"name": "ubuntu", "channel": "22.04"},
      "hardware": "arch=amd64",
      "ip-addresses": ["10.0.0.5"]
    }
  },
  "applications": {
    "ubuntu": {
      "charm-name": "ubuntu",
      "charm-rev": 24,
      "units": {
        "ubuntu/0": {
          "machine": "0",
          "workload-status": {"current": "active"},
          "juju-status": {"current": "idle"},
          "public-address": "10.0.0.5",
          "leader": true,
          "subordinates": {
            "ntp/0": {
              "workload-status": {"current": "active"},
              "juju-status": {"current": "idle"},
              "public-address": "10.0.0.5"
            }
          }
        }
      }
    },
    "ntp": {
      "charm-name": "ntp",
      "charm-rev": 50,
      "subordinate-to": ["ubuntu"]
    }
  }
}`

// clusterDoc: two machines and a container, three applications, units
// spread across them.
const clusterDoc = `{
  "machines": {
    "0": {
      "hostname": "juju-abc",
      "base": {"name": "ubuntu", "channel": "22.04"},
      "hardware": "arch=amd64",
      "ip-addresses": ["10.0.0.5", "252.0.0.1"],
      "containers": {
        "0/lxd/0": {
          "hostname": "juju-abc-lxd-0",
          "base": {"name": "ubuntu", "channel": "22.04"},
          "hardware": "availability-zone=default",
          "ip-addresses": ["10.0.0.17"]
        }
      }
    },
    "1": {
      "hostname": "juju-def",
      "series": "focal",
      "hardware": "arch=amd64",
      "ip-addresses": ["192.168.1.4"]
    }
  },
  "applications": {
    "ubuntu": {
      "charm-name": "ubuntu",
      "charm-rev": 24,
      "units": {
        "ubuntu/0": {
          "machine": "0",
          "workload-status": {"current": "active"},
          "juju-status": {"current": "idle"},
          "public-address": "10.0.0.5",
          "leader": true,
          "subordinates": {
            "ntp/0": {
              "workload-status": {"current": "active"},
              "juju-status": {"current": "idle"},
              "public-address": "10.0.0.5"
            }
          }
        },
        "ubuntu/1": {
          "machine": "1",
          "workload-status": {"current": "blocked"},
          "juju-status": {"current": "idle"},
          "public-address": "192.168.1.4",
          "subordinates": {
            "ntp/1": {
              "workload-status": {"current": "active"},
              "juju-status": {"current": "idle"},
              "public-address": "192.168.1.4"
            }
          }
        }
      }
    },
    "ntp": {
      "charm-name": "ntp",
      "charm-rev": 50,
      "subordinate-to": ["ubuntu"]
    },
    "dashboard": {
      "charm-name": "juju-dashboard",
      "charm-rev": 3,
      "units": {
        "dashboard/0": {
          "machine": "0/lxd/0",
          "workload-status": {"current": "active"},
          "juju-status": {"current": "idle"},
          "public-address": "10.0.0.17"
        }
      }
    }
  }
}`

func buildModel(c *gc.C, doc string) *model.Model {
	status, err := snapshot.Parse([]byte(doc))
	c.Assert(err, jc.ErrorIsNil)
	m, err := model.Build(status)
	c.Assert(err, jc.ErrorIsNil)
	return m
}

func run(c *gc.C, m *model.Model, kind filter.Kind, exprs ...string) []string {
	filters, err := filter.ParseAll(exprs)
	c.Assert(err, jc.ErrorIsNil)
	out, err := query.Run(m, kind, filters)
	c.Assert(err, jc.ErrorIsNil)
	return out
}

func (s *querySuite) TestEmptyFiltersReturnAllInSnapshotOrder(c *gc.C) {
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Unit), jc.DeepEquals,
		[]string{"ubuntu/0", "ntp/0", "ubuntu/1", "ntp/1", "dashboard/0"})
	c.Check(run(c, m, filter.Machine), jc.DeepEquals,
		[]string{"0", "0/lxd/0", "1"})
	c.Check(run(c, m, filter.Application), jc.DeepEquals,
		[]string{"ubuntu", "ntp", "dashboard"})
}

func (s *querySuite) TestScenarioUnitByApplication(c *gc.C) {
	m := buildModel(c, scenarioDoc)
	c.Check(run(c, m, filter.Unit, "app=ubuntu"), jc.DeepEquals, []string{"ubuntu/0"})
}

func (s *querySuite) TestScenarioSubordinateInheritsHostname(c *gc.C) {
	m := buildModel(c, scenarioDoc)
	c.Check(run(c, m, filter.Unit, "hostname=juju-abc"), jc.DeepEquals,
		[]string{"ubuntu/0", "ntp/0"})
}

func (s *querySuite) TestScenarioMachineByIPPattern(c *gc.C) {
	m := buildModel(c, scenarioDoc)
	c.Check(run(c, m, filter.Machine, `ip~10\.0\.0`), jc.DeepEquals, []string{"0"})
}

func (s *querySuite) TestScenarioAllUnits(c *gc.C) {
	m := buildModel(c, scenarioDoc)
	c.Check(run(c, m, filter.Unit), jc.DeepEquals, []string{"ubuntu/0", "ntp/0"})
}

func (s *querySuite) TestUnitByCharm(c *gc.C) {
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Unit, "charm=ntp"), jc.DeepEquals, []string{"ntp/0", "ntp/1"})
}

func (s *querySuite) TestUnitByMachine(c *gc.C) {
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Unit, "m=0"), jc.DeepEquals, []string{"ubuntu/0", "ntp/0"})
	c.Check(run(c, m, filter.Unit, "m=0/lxd/0"), jc.DeepEquals, []string{"dashboard/0"})
}

func (s *querySuite) TestUnitConjunction(c *gc.C) {
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Unit, "app=ntp", "hostname=juju-def"), jc.DeepEquals,
		[]string{"ntp/1"})
	c.Check(run(c, m, filter.Unit, "app=ntp", "hostname=nowhere"), gc.HasLen, 0)
}

func (s *querySuite) TestConjunctionLawMatchesSetIntersection(c *gc.C) {
	m := buildModel(c, clusterDoc)
	exprs := []string{"charm=ubuntu", `unit~/0`, "hostname~juju"}

	intersection := set.NewStrings(run(c, m, filter.Unit, exprs[0])...)
	for _, expr := range exprs[1:] {
		intersection = intersection.Intersection(
			set.NewStrings(run(c, m, filter.Unit, expr)...))
	}
	combined := run(c, m, filter.Unit, exprs...)
	c.Check(set.NewStrings(combined...), jc.DeepEquals, intersection)
}

func (s *querySuite) TestIdempotence(c *gc.C) {
	m := buildModel(c, clusterDoc)
	first := run(c, m, filter.Unit, "hostname~juju")
	second := run(c, m, filter.Unit, "hostname~juju")
	c.Check(second, jc.DeepEquals, first)
}

func (s *querySuite) TestMachineByUnit(c *gc.C) {
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Machine, "unit=ntp/1"), jc.DeepEquals, []string{"1"})
}

func (s *querySuite) TestMachineByApplication(c *gc.C) {
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Machine, "app=ubuntu"), jc.DeepEquals, []string{"0", "1"})
	c.Check(run(c, m, filter.Machine, "app=dashboard"), jc.DeepEquals, []string{"0/lxd/0"})
}

func (s *querySuite) TestMachineByCharm(c *gc.C) {
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Machine, "charm=ntp"), jc.DeepEquals, []string{"0", "1"})
}

func (s *querySuite) TestMachineByHostname(c *gc.C) {
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Machine, "hostname~lxd"), jc.DeepEquals, []string{"0/lxd/0"})
}

func (s *querySuite) TestApplicationByIPForwardPath(c *gc.C) {
	// Filtering applications by ip resolves the whole
	// application->unit->machine->ip path.
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Application, "ip=10.0.0.17"), jc.DeepEquals,
		[]string{"dashboard"})
	c.Check(run(c, m, filter.Application, `ip~^10\.`), jc.DeepEquals,
		[]string{"ubuntu", "ntp", "dashboard"})
}

func (s *querySuite) TestApplicationByCharm(c *gc.C) {
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Application, "charm=juju-dashboard"), jc.DeepEquals,
		[]string{"dashboard"})
}

func (s *querySuite) TestApplicationByUnit(c *gc.C) {
	m := buildModel(c, clusterDoc)
	c.Check(run(c, m, filter.Application, "unit=ubuntu/1"), jc.DeepEquals,
		[]string{"ubuntu"})
}

func (s *querySuite) TestAnyValueOfSetSatisfiesFilter(c *gc.C) {
	m := buildModel(c, clusterDoc)
	// Machine 0 carries two addresses; matching either is enough.
	c.Check(run(c, m, filter.Machine, "ip=252.0.0.1"), jc.DeepEquals, []string{"0"})
	// A negative filter also holds if any value satisfies it.
	c.Check(run(c, m, filter.Machine, "ip!=10.0.0.5"), jc.DeepEquals,
		[]string{"0", "0/lxd/0", "1"})
}

func (s *querySuite) TestFilterOnlyKindsCannotBeEnumerated(c *gc.C) {
	m := buildModel(c, clusterDoc)
	for _, kind := range []filter.Kind{filter.Charm, filter.IP, filter.Hostname} {
		_, err := query.Run(m, kind, nil)
		c.Check(err, jc.Satisfies, errors.IsNotSupported)
	}
}

func (s *querySuite) TestUnassignedUnitFailsMachineFilters(c *gc.C) {
	doc := `{
	  "machines": {},
	  "applications": {
	    "pending": {
	      "charm-name": "pending",
	      "charm-rev": 1,
	      "units": {"pending/0": {"workload-status": {"current": "waiting"}}}
	    }
	  }
	}`
	m := buildModel(c, doc)
	// No machine-dependent filters: the unit is returned without any
	// machine resolution at all.
	c.Check(run(c, m, filter.Unit, "app=pending"), jc.DeepEquals, []string{"pending/0"})
	// With one, the missing join makes the filter false.
	c.Check(run(c, m, filter.Unit, "hostname~."), gc.HasLen, 0)
}

func (s *querySuite) TestBrokenMachineReferenceAbortsQuery(c *gc.C) {
	doc := `{
	  "machines": {},
	  "applications": {
	    "ubuntu": {
	      "charm-name": "ubuntu",
	      "charm-rev": 24,
	      "units": {"ubuntu/0": {"machine": "7"}}
	    }
	  }
	}`
	m := buildModel(c, doc)

	// Queries that never resolve machines are unaffected.
	c.Check(run(c, m, filter.Unit, "app=ubuntu"), jc.DeepEquals, []string{"ubuntu/0"})

	// Any machine-dependent filter trips over the broken reference.
	filters, err := filter.ParseAll([]string{"hostname~."})
	c.Assert(err, jc.ErrorIsNil)
	_, err = query.Run(m, filter.Unit, filters)
	c.Check(err, jc.Satisfies, model.IsIntegrityError)

	_, err = query.Run(m, filter.Application, filters)
	c.Check(err, jc.Satisfies, model.IsIntegrityError)
}
