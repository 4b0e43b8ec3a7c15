package device

import "sync/atomic"

// Stats holds the three relaxed-atomic per-device counters from
// spec.md §3. Each Wrapper owns one Stats value.
type Stats struct {
	reads  atomic.Uint64
	writes atomic.Uint64
	errors atomic.Uint64
}

func (s *Stats) RecordRead()  { s.reads.Add(1) }
func (s *Stats) RecordWrite() { s.writes.Add(1) }
func (s *Stats) RecordError() { s.errors.Add(1) }

func (s *Stats) Reads() uint64  { return s.reads.Load() }
func (s *Stats) Writes() uint64 { return s.writes.Load() }
func (s *Stats) Errors() uint64 { return s.errors.Load() }

// Snapshot returns (reads, writes, errors), matching the registry's
// get_device_stats tuple shape from spec.md §4.9.
func (s *Stats) Snapshot() (reads, writes, errors uint64) {
	return s.Reads(), s.Writes(), s.Errors()
}
