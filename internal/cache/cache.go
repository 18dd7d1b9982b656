// Package cache stores root category names keyed by tree id.
//
// Entries expire after a fixed TTL and are never invalidated on rename, so a
// renamed root may be served under its old name until the entry expires.
package cache

import (
	"context"
	"time"
)

// DefaultRootNameTTL bounds how long a cached root name is honoured
const DefaultRootNameTTL = time.Hour

// RootNameCache maps a category tree id to the name of its root
type RootNameCache interface {
	// Get reports ok=false on a miss or an expired entry
	Get(ctx context.Context, treeID int) (name string, ok bool, err error)
	Set(ctx context.Context, treeID int, name string) error
}
