package progress

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type collectingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *collectingSink) Record(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func (s *collectingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestHub_DeliversAllEventsBeforeClose(t *testing.T) {
	t.Parallel()

	sink := &collectingSink{}
	h := NewHub(128, nil, sink)

	const n = 100
	for i := range n {
		h.Emit(Event{Stage: StageFetchDone, URL: fmt.Sprintf("https://e.com/%d", i)})
	}
	h.Close()

	require.Equal(t, n, sink.len())
}

func TestHub_FansOutToEverySink(t *testing.T) {
	t.Parallel()

	a := &collectingSink{}
	b := &collectingSink{}
	h := NewHub(16, nil, a, b)

	h.Emit(Event{Stage: StageSitemapDone, URL: "https://e.com/sitemap.xml", Discovered: 3})
	h.Close()

	require.Equal(t, 1, a.len())
	require.Equal(t, 1, b.len())
	require.Equal(t, a.events, b.events)
}

func TestHub_EmitAfterCloseIsSilentlyDropped(t *testing.T) {
	t.Parallel()

	sink := &collectingSink{}
	h := NewHub(16, nil, sink)
	h.Close()

	h.Emit(Event{Stage: StageFetchDone, URL: "https://e.com/late"})
	require.Zero(t, sink.len())
}

func TestHub_ConcurrentEmitters(t *testing.T) {
	t.Parallel()

	sink := &collectingSink{}
	h := NewHub(4096, nil, sink)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				h.Emit(Event{Stage: StageFetchDone, URL: fmt.Sprintf("https://e.com/%d/%d", g, i)})
			}
		}()
	}
	wg.Wait()
	h.Close()

	require.Equal(t, 400, sink.len())
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	h := NewHub(16, nil)
	h.Close()
	h.Close()
}

func TestHub_NilHubIsSafe(t *testing.T) {
	t.Parallel()

	var h *Hub
	h.Emit(Event{Stage: StageFetchDone})
}
