// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package filter parses the query filter expressions accepted on the
// jockey command line. A filter is a typed predicate: an entity kind,
// an operator and an operand, e.g. "app=nova-compute" or
// "hostname~ubun". Parsing is pure; evaluation happens in the query
// engine.
package filter

import (
	"regexp"
	"strings"

	"github.com/juju/errors"
)

// Kind identifies which entity attribute a filter targets, and which
// entity kind a query enumerates.
type Kind string

const (
	Charm       Kind = "charm"
	Application Kind = "application"
	Unit        Kind = "unit"
	Machine     Kind = "machine"
	IP          Kind = "ip"
	Hostname    Kind = "hostname"
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

var kindAliases = map[string]Kind{
	"charm": Charm, "charms": Charm, "c": Charm,
	"app": Application, "apps": Application, "a": Application,
	"application": Application, "applications": Application,
	"unit": Unit, "units": Unit, "u": Unit,
	"machine": Machine, "machines": Machine, "m": Machine,
	"ip": IP, "ips": IP, "address": IP, "addresses": IP, "i": IP,
	"hostname": Hostname, "hostnames": Hostname, "host": Hostname,
	"hosts": Hostname, "h": Hostname,
}

// ParseKind resolves a possibly abbreviated entity kind token. The
// same alias table serves the positional kind argument and filter
// prefixes.
func ParseKind(token string) (Kind, error) {
	kind, ok := kindAliases[strings.ToLower(token)]
	if !ok {
		return "", errors.NotValidf("entity kind %q", token)
	}
	return kind, nil
}

// Operator is a filter comparison operator.
type Operator string

const (
	OpEquals     Operator = "="
	OpNotEquals  Operator = "!="
	OpMatches    Operator = "~"
	OpNotMatches Operator = "!~"
)

// operatorTokens maps each recognized token to its operator, longest
// tokens first so that a two-character operator is never taken for a
// single-character one with a leftover. "^=" and "^~" are accepted
// spellings of "!=" and "!~".
var operatorTokens = []struct {
	token string
	op    Operator
}{
	{"!=", OpNotEquals},
	{"^=", OpNotEquals},
	{"!~", OpNotMatches},
	{"^~", OpNotMatches},
	{"=", OpEquals},
	{"~", OpMatches},
}

// operatorChars are the characters operator tokens are built from.
const operatorChars = "=!~^"

// reservedOperandChars may not appear in a filter operand; they are
// structural delimiters elsewhere in the tool's input and output.
// Backslash is deliberately absent: match operands are regular
// expressions and need their escapes, e.g. "ip~10\.0\.0".
const reservedOperandChars = "_,:;\t\n"

// Filter is one parsed filter expression. The match operators carry
// their operand pre-compiled as a regular expression.
type Filter struct {
	Kind    Kind
	Op      Operator
	Operand string

	pattern *regexp.Regexp
}

// String renders the filter in its input form.
func (f Filter) String() string {
	return string(f.Kind) + string(f.Op) + f.Operand
}

// Match reports whether a single join value satisfies the filter.
func (f Filter) Match(value string) bool {
	switch f.Op {
	case OpEquals:
		return value == f.Operand
	case OpNotEquals:
		return value != f.Operand
	case OpMatches:
		return f.pattern.MatchString(value)
	case OpNotMatches:
		return !f.pattern.MatchString(value)
	}
	return false
}

// Parse parses one filter expression. It fails if the expression does
// not contain exactly one operator token, if the prefix is not a known
// entity kind, or if the operand is empty, contains a reserved
// character, or is an invalid pattern for a match operator.
func Parse(expr string) (Filter, error) {
	start, end, runs := operatorRun(expr)
	switch runs {
	case 0:
		return Filter{}, errors.NotValidf("filter %q without operator", expr)
	case 1:
	default:
		return Filter{}, errors.NotValidf("filter %q with multiple operators", expr)
	}

	run := expr[start:end]
	var op Operator
	var token string
	for _, candidate := range operatorTokens {
		if strings.HasPrefix(run, candidate.token) {
			op, token = candidate.op, candidate.token
			break
		}
	}
	if token == "" {
		return Filter{}, errors.NotValidf("operator %q in filter %q", run, expr)
	}
	// The rest of the run belongs to the operand of a match operator,
	// so anchored patterns like "ip~^10\." parse. A literal operand
	// starting with an operator character is ambiguous.
	if token != run && op != OpMatches && op != OpNotMatches {
		return Filter{}, errors.NotValidf("operator %q in filter %q", run, expr)
	}

	kind, err := ParseKind(expr[:start])
	if err != nil {
		return Filter{}, errors.Annotatef(err, "filter %q", expr)
	}

	operand := expr[start+len(token):]
	if operand == "" {
		return Filter{}, errors.NotValidf("filter %q with empty operand", expr)
	}
	if i := strings.IndexAny(operand, reservedOperandChars); i >= 0 {
		return Filter{}, errors.NotValidf("filter %q: reserved character %q in operand", expr, operand[i])
	}

	filter := Filter{Kind: kind, Op: op, Operand: operand}
	if op == OpMatches || op == OpNotMatches {
		filter.pattern, err = regexp.Compile(operand)
		if err != nil {
			return Filter{}, errors.NotValidf("filter %q: pattern %q", expr, operand)
		}
	}
	return filter, nil
}

// ParseAll parses a list of filter expressions, failing on the first
// invalid one.
func ParseAll(exprs []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(exprs))
	for _, expr := range exprs {
		f, err := Parse(expr)
		if err != nil {
			return nil, errors.Trace(err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// operatorRun locates runs of operator characters in expr, returning
// the bounds of the first run and the total number of runs.
func operatorRun(expr string) (start, end, runs int) {
	inRun := false
	for i := 0; i < len(expr); i++ {
		isOp := strings.IndexByte(operatorChars, expr[i]) >= 0
		switch {
		case isOp && !inRun:
			runs++
			if runs == 1 {
				start = i
			}
			inRun = true
		case isOp:
		case inRun:
			if runs == 1 && end == 0 {
				end = i
			}
			inRun = false
		}
	}
	if inRun && runs == 1 && end == 0 {
		end = len(expr)
	}
	return start, end, runs
}
