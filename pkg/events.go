package gainhists

import "strconv"

// Hit is one sensor reading within an event.
type Hit struct {
	Layer    int
	Chip     int
	Channel  int
	Cell     int // SCA, the analog memory cell
	IsSignal bool
	ADCLow   int
	ADCHigh  int
}

// Event is one trigger. Sources reuse the same Event between reads, so
// callers must not keep references to it or its hits.
type Event struct {
	ID           int64
	ActiveLayers int // nhit_slab
	Hits         []Hit
}

func (e *Event) NHit() int {
	return len(e.Hits)
}

func (e *Event) reset(id int64, activeLayers int) {
	e.ID = id
	e.ActiveLayers = activeLayers
	e.Hits = e.Hits[:0]
}

type Key struct {
	Layer   int
	Chip    int
	Channel int
	Cell    int
}

func (h Hit) Key() Key {
	return Key{Layer: h.Layer, Chip: h.Chip, Channel: h.Channel, Cell: h.Cell}
}

// LayerSelection chooses between accumulating every layer and a single one.
type LayerSelection struct {
	single bool
	layer  int
}

func AllLayers() LayerSelection {
	return LayerSelection{}
}

func SingleLayer(layer int) LayerSelection {
	return LayerSelection{single: true, layer: layer}
}

// LayerSelectionFromID maps the command line convention (negative = all
// layers) to a LayerSelection.
func LayerSelectionFromID(layer int) LayerSelection {
	if layer < 0 {
		return AllLayers()
	}
	return SingleLayer(layer)
}

func (s LayerSelection) IsAll() bool {
	return !s.single
}

// Layer returns the selected layer, ok is false when all layers are selected.
func (s LayerSelection) Layer() (layer int, ok bool) {
	return s.layer, s.single
}

func (s LayerSelection) Includes(layer int) bool {
	return !s.single || s.layer == layer
}

func (s LayerSelection) String() string {
	if !s.single {
		return "all"
	}
	return strconv.Itoa(s.layer)
}
