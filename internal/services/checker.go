// Package services tracks the backing services the engine depends on and
// reports their health.
package services

import "context"

// Checker reports whether a backing service is reachable
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) error

// Ping calls f
func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Status is the health of one registered service
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}
