package workspace

import (
	"fmt"
	"time"
)

// VersionStamp is an opaque, totally ordered token representing the logical
// time at which a piece of workspace state was produced. Two equal stamps
// mean "no observable change".
type VersionStamp struct {
	// utc is the wall-clock instant the stamp was minted.
	utc time.Time

	// local disambiguates stamps minted within the same clock tick, so
	// ordering stays causal even when the clock does not advance.
	local int
}

// NewVersionStamp mints a stamp for the current instant.
func NewVersionStamp() VersionStamp {
	return VersionStamp{utc: time.Now().UTC()}
}

// versionStampAt is used by tests to build stamps at a known instant.
func versionStampAt(t time.Time) VersionStamp {
	return VersionStamp{utc: t.UTC()}
}

// GetNewerVersion returns a stamp strictly newer than v. When the wall clock
// has advanced past v the new stamp is purely time-based; otherwise the local
// increment carries the ordering.
func (v VersionStamp) GetNewerVersion() VersionStamp {
	now := time.Now().UTC()
	if now.After(v.utc) {
		return VersionStamp{utc: now}
	}
	return VersionStamp{utc: v.utc, local: v.local + 1}
}

// NewerThan reports whether v was produced after other.
func (v VersionStamp) NewerThan(other VersionStamp) bool {
	if v.utc.Equal(other.utc) {
		return v.local > other.local
	}
	return v.utc.After(other.utc)
}

// Equal reports whether two stamps represent the same logical instant.
func (v VersionStamp) Equal(other VersionStamp) bool {
	return v.utc.Equal(other.utc) && v.local == other.local
}

// Max returns the newer of the two stamps.
func (v VersionStamp) Max(other VersionStamp) VersionStamp {
	if other.NewerThan(v) {
		return other
	}
	return v
}

func (v VersionStamp) String() string {
	return fmt.Sprintf("%s+%d", v.utc.Format(time.RFC3339Nano), v.local)
}
