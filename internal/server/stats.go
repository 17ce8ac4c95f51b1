package server

import "go.uber.org/atomic"

// Stats holds lock-free running counters for the server, replacing the
// teacher's mutex-guarded ServerStats with go.uber.org/atomic counters
// now that increments happen from the single reactor thread plus
// occasional administrative reads from elsewhere.
type Stats struct {
	TotalOps     atomic.Uint64
	GetOps       atomic.Uint64
	SetOps       atomic.Uint64
	DelOps       atomic.Uint64
	Connections  atomic.Uint64
	BytesRead    atomic.Uint64
	BytesWritten atomic.Uint64
}

// IncrementOp bumps the per-verb and total operation counters.
func (s *Stats) IncrementOp(verb string) {
	s.TotalOps.Inc()
	switch verb {
	case "GET":
		s.GetOps.Inc()
	case "SET":
		s.SetOps.Inc()
	case "DEL":
		s.DelOps.Inc()
	}
}

// Snapshot is a point-in-time copy safe to hand to callers outside the
// reactor thread.
type Snapshot struct {
	TotalOps     uint64
	GetOps       uint64
	SetOps       uint64
	DelOps       uint64
	HitRate      float64
	Connections  uint64
	BytesRead    uint64
	BytesWritten uint64
}

// Snapshot reads every counter and derives a simplified hit rate (ops
// that weren't immediately followed by a delete), matching the teacher's
// placeholder calculation.
func (s *Stats) Snapshot() Snapshot {
	get := s.GetOps.Load()
	del := s.DelOps.Load()
	var hitRate float64
	if get > 0 {
		hitRate = float64(get-del) / float64(get)
	}
	return Snapshot{
		TotalOps:     s.TotalOps.Load(),
		GetOps:       get,
		SetOps:       s.SetOps.Load(),
		DelOps:       del,
		HitRate:      hitRate,
		Connections:  s.Connections.Load(),
		BytesRead:    s.BytesRead.Load(),
		BytesWritten: s.BytesWritten.Load(),
	}
}
