package core

import "errors"

var (
	// ErrConfiguration marks a missing or invalid hyperparameter, or an
	// unknown platform/algorithm identifier. Raised before the loop
	// starts; fatal.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrEnvironmentContract marks a malformed result from an
	// environment call. Propagated immediately, never retried.
	ErrEnvironmentContract = errors.New("environment contract violation")

	// ErrPersistence marks a restore that could not find an expected
	// parameter file. Fatal for that call.
	ErrPersistence = errors.New("persistence failure")
)
