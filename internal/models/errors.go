package models

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDecisionFailed marks a failed decision step: the model call errored or
	// the response could not be resolved to a valid decision shape.
	ErrDecisionFailed = errors.New("decision step failed")

	// ErrToolFailed marks a tool that could not produce a valid result. Nothing
	// has been persisted when this is returned.
	ErrToolFailed = errors.New("tool execution failed")

	// ErrPersistence marks a storage write failure after a successful tool call.
	ErrPersistence = errors.New("persistence failed")

	// ErrInvalidDecision marks a decision violating the closed operation set,
	// caught by validation before dispatch.
	ErrInvalidDecision = errors.New("invalid decision")
)
