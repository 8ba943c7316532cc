package gainhists

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestClassifierExampleScenario(t *testing.T) {
	events := []Event{{
		ID:           0,
		ActiveLayers: 6,
		Hits: []Hit{
			{Layer: 3, Chip: 2, Channel: 10, Cell: 1, IsSignal: false, ADCLow: 250, ADCHigh: 260},
			{Layer: 3, Chip: 2, Channel: 10, Cell: 1, IsSignal: true, ADCLow: 300, ADCHigh: 310},
		},
	}}
	reg, counters := fill(t, events, defaultOptions())

	key := Key{Layer: 3, Chip: 2, Channel: 10, Cell: 1}
	ped, _ := reg.Distribution(key, PedestalLow)
	mip, _ := reg.Distribution(key, SignalLow)
	if ped.Entries() != 1 || ped.Count(PedestalBinning.Bin(250)) != 1 {
		t.Errorf("expected one pedestal count at 250, got %d entries", ped.Entries())
	}
	if mip.Entries() != 1 || mip.Count(SignalBinning.Bin(300)) != 1 {
		t.Errorf("expected one MIP count at 300, got %d entries", mip.Entries())
	}
	pedHigh, _ := reg.Distribution(key, PedestalHigh)
	mipHigh, _ := reg.Distribution(key, SignalHigh)
	if pedHigh.Count(PedestalBinning.Bin(260)) != 1 || mipHigh.Count(SignalBinning.Bin(310)) != 1 {
		t.Error("expected the high gain values to follow the same classification")
	}
	want := Counters{
		Events: 1, EventsAdmitted: 1,
		HitsSeen: 2, HitsAdmitted: 2, HitsOnSelectedLayers: 2,
		HitsFilled: 2, SignalFilled: 1, PedestalFilled: 1,
	}
	if counters != want {
		t.Errorf("expected counters %+v, got %+v", want, counters)
	}
}

func busyEvent(id int64, signalHits int) Event {
	evt := Event{ID: id, ActiveLayers: 6}
	for i := 0; i < signalHits; i++ {
		evt.Hits = append(evt.Hits, Hit{Layer: 1, Chip: 4, Channel: i, Cell: 7, IsSignal: true, ADCLow: 200 + i, ADCHigh: 300 + i})
	}
	// a pedestal in the same cell, and a signal hit in another cell
	evt.Hits = append(evt.Hits,
		Hit{Layer: 1, Chip: 4, Channel: 20, Cell: 7, ADCLow: 150, ADCHigh: 160},
		Hit{Layer: 1, Chip: 4, Channel: 0, Cell: 8, IsSignal: true, ADCLow: 400, ADCHigh: 450},
	)
	return evt
}

func TestClassifierBusyCells(t *testing.T) {
	tests := []struct {
		name           string
		maxHitsPerCell int
		signalHits     int
		wantExcluded   int64
	}{
		{"one signal hit, max 1", 1, 1, 0},
		{"two signal hits, max 1", 1, 2, 3},
		{"two signal hits, max 2", 2, 2, 0},
		{"three signal hits, max 2", 2, 3, 4},
		{"one signal hit, max 0", 0, 1, 3},
		{"three signal hits, no limit", math.MaxInt, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			opts.MaxHitsPerCell = tt.maxHitsPerCell
			evt := busyEvent(0, tt.signalHits)
			reg, counters := fill(t, []Event{evt}, opts)

			if counters.HitsExcluded != tt.wantExcluded {
				t.Errorf("expected %d excluded hits, got %d", tt.wantExcluded, counters.HitsExcluded)
			}
			if counters.HitsFilled != int64(evt.NHit())-tt.wantExcluded {
				t.Errorf("expected %d filled hits, got %d", int64(evt.NHit())-tt.wantExcluded, counters.HitsFilled)
			}
			for i := 0; i < tt.signalHits; i++ {
				d, _ := reg.Distribution(Key{1, 4, i, 7}, SignalLow)
				want := uint64(1)
				if tt.wantExcluded > 0 {
					want = 0
				}
				if d.Entries() != want {
					t.Errorf("channel %d: expected %d MIP entries, got %d", i, want, d.Entries())
				}
			}
			other, _ := reg.Distribution(Key{1, 4, 0, 8}, SignalLow)
			if tt.maxHitsPerCell > 0 && other.Entries() != 1 {
				t.Errorf("hit in another cell should not be vetoed")
			}
		})
	}
}

func TestClassifierBusyCellsPerEvent(t *testing.T) {
	// two events with one signal hit each in the same cell: the busy count
	// must not carry over
	events := []Event{busyEvent(0, 1), busyEvent(1, 1)}
	_, counters := fill(t, events, defaultOptions())
	if counters.HitsExcluded != 0 {
		t.Errorf("busy cell count leaked between events: %d hits excluded", counters.HitsExcluded)
	}
	if counters.SignalFilled != 4 {
		t.Errorf("expected 4 MIP hits filled, got %d", counters.SignalFilled)
	}
}

func TestClassifierGate(t *testing.T) {
	hits := []Hit{
		{Layer: 0, Chip: 0, Channel: 0, Cell: 0, ADCLow: 200, ADCHigh: 200},
		{Layer: 1, Chip: 0, Channel: 1, Cell: 0, IsSignal: true, ADCLow: 300, ADCHigh: 300},
		{Layer: 2, Chip: 1, Channel: 0, Cell: 1, ADCLow: 200, ADCHigh: 200},
	}
	tests := []struct {
		activeLayers int
		minLayers    int
		wantAdmitted int64
	}{
		{5, 6, 0},
		{6, 6, 3},
		{7, 6, 3},
		{0, 0, 3},
		{2, 3, 0},
		{3, 3, 3},
	}
	for _, tt := range tests {
		opts := defaultOptions()
		opts.MinActiveLayers = tt.minLayers
		_, counters := fill(t, []Event{{ActiveLayers: tt.activeLayers, Hits: hits}}, opts)
		if counters.HitsSeen != 3 {
			t.Errorf("active %d, min %d: expected 3 hits seen, got %d", tt.activeLayers, tt.minLayers, counters.HitsSeen)
		}
		if counters.HitsAdmitted != tt.wantAdmitted || counters.HitsFilled != tt.wantAdmitted {
			t.Errorf("active %d, min %d: expected %d hits admitted and filled, got %d and %d",
				tt.activeLayers, tt.minLayers, tt.wantAdmitted, counters.HitsAdmitted, counters.HitsFilled)
		}
	}
}

func TestClassifierEmptyEvents(t *testing.T) {
	events := []Event{
		{ID: 0, ActiveLayers: 10},
		{ID: 1, ActiveLayers: 10, Hits: []Hit{{Layer: 0, Chip: 0, Channel: 0, Cell: 0, ADCLow: 200, ADCHigh: 200}}},
		{ID: 2, ActiveLayers: 0},
	}
	_, counters := fill(t, events, defaultOptions())
	if counters.Events != 3 || counters.EventsAdmitted != 2 || counters.HitsFilled != 1 {
		t.Errorf("unexpected counters %+v", counters)
	}
}

func TestClassifierConservation(t *testing.T) {
	events := randomEvents(42, 500)
	for _, opts := range []ClassifierOptions{
		defaultOptions(),
		{MaxHitsPerCell: 2, MinActiveLayers: 3, Selection: AllLayers()},
		{MaxHitsPerCell: 1, MinActiveLayers: 6, Selection: SingleLayer(2)},
	} {
		reg, c := fill(t, events, opts)

		var nhit int64
		for _, evt := range events {
			nhit += int64(evt.NHit())
		}
		if c.HitsSeen != nhit {
			t.Errorf("%+v: expected %d hits seen, got %d", opts, nhit, c.HitsSeen)
		}
		if !(c.HitsSeen >= c.HitsAdmitted && c.HitsAdmitted >= c.HitsOnSelectedLayers && c.HitsOnSelectedLayers >= c.HitsFilled) {
			t.Errorf("%+v: counters out of order %+v", opts, c)
		}
		if err := c.Check(); err != nil {
			t.Errorf("%+v: %v", opts, err)
		}

		// every filled hit is in exactly one low gain and one high gain
		// distribution
		low := reg.TotalEntries(PedestalLow) + reg.TotalEntries(SignalLow)
		high := reg.TotalEntries(PedestalHigh) + reg.TotalEntries(SignalHigh)
		if low != uint64(c.HitsFilled) || high != uint64(c.HitsFilled) {
			t.Errorf("%+v: %d hits filled but %d low gain and %d high gain entries", opts, c.HitsFilled, low, high)
		}
		if reg.TotalEntries(SignalLow) != uint64(c.SignalFilled) || reg.TotalEntries(PedestalLow) != uint64(c.PedestalFilled) {
			t.Errorf("%+v: signal/pedestal split does not match counters", opts)
		}
	}
}

func registryBytes(reg *Registry, layers ...int) []byte {
	var buf bytes.Buffer
	for key := range reg.Keys(layers...) {
		for _, kind := range Kinds() {
			d, _ := reg.Distribution(key, kind)
			buf.WriteString(d.Name())
			binary.Write(&buf, binary.LittleEndian, d.Counts())
		}
	}
	return buf.Bytes()
}

func TestClassifierDeterminism(t *testing.T) {
	events := randomEvents(7, 300)
	reg1, c1 := fill(t, events, defaultOptions())
	reg2, c2 := fill(t, events, defaultOptions())
	if c1 != c2 {
		t.Errorf("counters differ between runs: %+v and %+v", c1, c2)
	}
	if !bytes.Equal(registryBytes(reg1), registryBytes(reg2)) {
		t.Error("distribution contents differ between runs")
	}
}

func TestClassifierSingleLayerEquivalence(t *testing.T) {
	events := randomEvents(11, 400)
	all, _ := fill(t, events, defaultOptions())
	for layer := 0; layer < 5; layer++ {
		opts := defaultOptions()
		opts.Selection = SingleLayer(layer)
		single, counters := fill(t, events, opts)
		if got := single.Layers(); len(got) != 1 || got[0] != layer {
			t.Fatalf("expected only layer %d allocated, got %v", layer, got)
		}
		if !bytes.Equal(registryBytes(all, layer), registryBytes(single)) {
			t.Errorf("layer %d: single layer run differs from the all layer run", layer)
		}
		var onLayer int64
		for _, evt := range events {
			if evt.ActiveLayers < opts.MinActiveLayers {
				continue
			}
			for _, h := range evt.Hits {
				if h.Layer == layer {
					onLayer++
				}
			}
		}
		if counters.HitsOnSelectedLayers != onLayer {
			t.Errorf("layer %d: expected %d hits on layer, got %d", layer, onLayer, counters.HitsOnSelectedLayers)
		}
	}
}

func TestClassifierUnknownKey(t *testing.T) {
	reg := NewRegistry()
	reg.Allocate(smallSpace())
	c := NewClassifier(reg, defaultOptions())
	evt := &Event{ActiveLayers: 10, Hits: []Hit{{Layer: 9, Chip: 0, Channel: 5, Cell: 0}}}
	if err := c.Process(evt); err == nil {
		t.Fatal("expected an error for a hit outside the registry")
	}
}
