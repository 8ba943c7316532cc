package gainhists

import (
	"math/rand"
	"testing"
)

// sliceSource serves events from memory.
type sliceSource struct {
	events []Event
	closed bool
}

func (s *sliceSource) Scan(fn func(evt *Event) error) error {
	for i := range s.events {
		// hand out a copy so callers cannot depend on identity
		evt := s.events[i]
		evt.Hits = append([]Hit(nil), s.events[i].Hits...)
		if err := fn(&evt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// randomEvents generates events over layers 0..4, chips 0..3, channels
// 0..7 and scas 0..3, with frequent busy cells.
func randomEvents(seed int64, n int) []Event {
	rng := rand.New(rand.NewSource(seed))
	events := make([]Event, n)
	for i := range events {
		nhit := rng.Intn(30)
		evt := Event{ID: int64(i), ActiveLayers: rng.Intn(10)}
		for j := 0; j < nhit; j++ {
			evt.Hits = append(evt.Hits, Hit{
				Layer:    rng.Intn(5),
				Chip:     rng.Intn(4),
				Channel:  rng.Intn(8),
				Cell:     rng.Intn(4),
				IsSignal: rng.Intn(3) == 0,
				ADCLow:   90 + rng.Intn(530),
				ADCHigh:  90 + rng.Intn(530),
			})
		}
		events[i] = evt
	}
	return events
}

func mustSpace(t *testing.T, src EventSource, sel LayerSelection) CoordinateSpace {
	t.Helper()
	b, err := ScanBounds(src)
	if err != nil {
		t.Fatalf("unexpected error scanning bounds: %v", err)
	}
	space, err := ResolveSpace(b, sel)
	if err != nil {
		t.Fatalf("unexpected error resolving space: %v", err)
	}
	return space
}

// fill runs the whole accumulation on events and returns the registry.
func fill(t *testing.T, events []Event, opts ClassifierOptions) (*Registry, Counters) {
	t.Helper()
	src := &sliceSource{events: events}
	reg := NewRegistry()
	if err := reg.Allocate(mustSpace(t, src, opts.Selection)); err != nil {
		t.Fatalf("unexpected allocation error: %v", err)
	}
	counters, err := Accumulate(src, reg, opts, nil)
	if err != nil {
		t.Fatalf("unexpected error accumulating: %v", err)
	}
	return reg, counters
}

func defaultOptions() ClassifierOptions {
	return ClassifierOptions{
		MaxHitsPerCell:  DefaultMaxHitsPerCell,
		MinActiveLayers: DefaultMinActiveLayers,
		Selection:       AllLayers(),
	}
}
