package sinks

import (
	"sync"

	"github.com/sitefetch/sitefetch/internal/progress"
	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

// Snapshot is a point-in-time view of run counters, served by the status
// API while a run is in progress.
type Snapshot struct {
	InFlight   int                           `json:"in_flight"`
	Pages      int                           `json:"pages"`
	ByClass    map[sitefetch.StatusClass]int `json:"by_class"`
	Bytes      int64                         `json:"bytes"`
	Sitemaps   int                           `json:"sitemaps"`
	Discovered int                           `json:"discovered"`
}

// Store accumulates run counters from the event stream. Record is called
// from the hub goroutine; Snapshot may be called concurrently by the
// status API.
type Store struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{snap: Snapshot{ByClass: make(map[sitefetch.StatusClass]int)}}
}

// Record updates the counters for one event.
func (s *Store) Record(evt progress.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch evt.Stage {
	case progress.StageFetchStart:
		s.snap.InFlight++
	case progress.StageFetchDone:
		if s.snap.InFlight > 0 {
			s.snap.InFlight--
		}
		s.snap.Pages++
		s.snap.ByClass[evt.Class]++
		s.snap.Bytes += evt.Bytes
	case progress.StageSitemapDone:
		s.snap.Sitemaps++
		s.snap.Discovered += evt.Discovered
	}
}

// Snapshot returns a copy of the current counters.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.snap
	out.ByClass = make(map[sitefetch.StatusClass]int, len(s.snap.ByClass))
	for k, v := range s.snap.ByClass {
		out.ByClass[k] = v
	}
	return out
}
