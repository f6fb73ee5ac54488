// Package bgpsnapshot defines the callback contract the BGP Worker uses
// to (re)load a RIB snapshot. Loading the actual RIB dump (MRT, BMP
// session, whatever the deployment uses) is out of scope; the worker
// only needs a function it can call on an interval.
package bgpsnapshot

import (
	"context"

	"irrexplorer/pkg/model"
)

// Source returns the current set of (prefix, origin) route objects
// observed in the global BGP table. Re-invoked on a configurable
// interval by the BGP Worker.
type Source func(ctx context.Context) ([]model.RouteObject, error)

// FromSlice builds a static Source for tests and for callers who
// already hold a RIB snapshot in memory.
func FromSlice(objs []model.RouteObject) Source {
	return func(ctx context.Context) ([]model.RouteObject, error) {
		return objs, nil
	}
}
