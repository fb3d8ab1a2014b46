// Package clock gives the partitioner and progress tracker a single,
// overridable time source so tests can stamp deterministic CreatedAt values.
package clock

import "time"

// NowFunc returns the current time. Tests override it for determinism.
var NowFunc = time.Now

// Now wraps NowFunc so call sites don't reach into the var directly.
func Now() time.Time { return NowFunc() }
