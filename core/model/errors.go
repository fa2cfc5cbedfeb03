// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package model

import (
	"fmt"

	"github.com/juju/errors"
)

// IntegrityError reports a snapshot that violates one of the model's
// structural invariants, such as a subordinate unit whose principal
// cannot be found or a unit assigned to a machine that does not exist.
// It is distinct from an ordinary lookup miss: the input data itself
// is inconsistent, and silently treating it as "no match" would
// produce misleading empty results.
type IntegrityError struct {
	message string
}

// Error implements error.
func (e *IntegrityError) Error() string {
	return "inconsistent status document: " + e.message
}

func integrityf(format string, args ...interface{}) error {
	return &IntegrityError{message: fmt.Sprintf(format, args...)}
}

// IsIntegrityError reports whether err was caused by an inconsistent
// snapshot.
func IsIntegrityError(err error) bool {
	_, ok := errors.Cause(err).(*IntegrityError)
	return ok
}
