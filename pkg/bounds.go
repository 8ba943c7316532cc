package gainhists

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Range is an inclusive integer interval. A Range with Max < Min is empty.
type Range struct {
	Min int
	Max int
}

func emptyRange() Range {
	return Range{Min: 0, Max: -1}
}

func (r Range) Empty() bool {
	return r.Max < r.Min
}

func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.Max - r.Min + 1
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// extend grows the range to include v.
func (r Range) extend(v int) Range {
	if r.Empty() {
		return Range{Min: v, Max: v}
	}
	return Range{Min: min(r.Min, v), Max: max(r.Max, v)}
}

// extendRange grows r to include every value, whatever integer type the
// input stores coordinates in.
func extendRange[T constraints.Integer](r Range, values []T) Range {
	for _, v := range values {
		r = r.extend(int(v))
	}
	return r
}

func (r Range) String() string {
	if r.Empty() {
		return "[]"
	}
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// Bounds are the coordinate extremes found in an input dataset.
type Bounds struct {
	Layer   Range
	Chip    Range
	Channel Range
	Cell    Range
	MaxHits int // longest hit list of any event
	Events  int64
}

func emptyBounds() Bounds {
	return Bounds{
		Layer:   emptyRange(),
		Chip:    emptyRange(),
		Channel: emptyRange(),
		Cell:    emptyRange(),
	}
}

func (b Bounds) Empty() bool {
	return b.Layer.Empty() || b.Chip.Empty() || b.Channel.Empty() || b.Cell.Empty()
}

func (b *Bounds) add(hit Hit) {
	b.Layer = b.Layer.extend(hit.Layer)
	b.Chip = b.Chip.extend(hit.Chip)
	b.Channel = b.Channel.extend(hit.Channel)
	b.Cell = b.Cell.extend(hit.Cell)
}

// BoundsReader is implemented by sources that can report their coordinate
// bounds without a full scan.
type BoundsReader interface {
	Bounds() (Bounds, error)
}

// ScanBounds reads every event of src once.
func ScanBounds(src EventSource) (Bounds, error) {
	b := emptyBounds()
	err := src.Scan(func(evt *Event) error {
		b.Events++
		b.MaxHits = max(b.MaxHits, evt.NHit())
		for _, hit := range evt.Hits {
			b.add(hit)
		}
		return nil
	})
	if err != nil {
		return b, fmt.Errorf("error scanning coordinate bounds: %w", err)
	}
	return b, nil
}

// ResolveBounds asks src for its bounds if it can report them, and scans
// it otherwise.
func ResolveBounds(src EventSource) (Bounds, error) {
	if br, ok := src.(BoundsReader); ok {
		return br.Bounds()
	}
	return ScanBounds(src)
}

// CoordinateSpace is the set of keys a Registry is sized for.
type CoordinateSpace struct {
	Layers    Range
	Chips     Range
	Channels  Range
	Cells     Range
	Selection LayerSelection
	MaxHits   int
}

// ResolveSpace applies the layer selection to the dataset bounds. A single
// layer collapses the layer range to that layer alone.
func ResolveSpace(b Bounds, sel LayerSelection) (CoordinateSpace, error) {
	space := CoordinateSpace{
		Layers:    b.Layer,
		Chips:     b.Chip,
		Channels:  b.Channel,
		Cells:     b.Cell,
		Selection: sel,
		MaxHits:   b.MaxHits,
	}
	if b.Empty() {
		space.Layers = emptyRange()
	}
	if layer, ok := sel.Layer(); ok {
		if space.Layers.Empty() || !space.Layers.Contains(layer) {
			return CoordinateSpace{}, &LayerSelectionError{Layer: layer, Range: space.Layers}
		}
		space.Layers = Range{Min: layer, Max: layer}
	}
	return space, nil
}

func (s CoordinateSpace) Empty() bool {
	return s.Layers.Empty() || s.Chips.Empty() || s.Channels.Empty() || s.Cells.Empty()
}

// NumKeys is the number of (layer, chip, channel, cell) keys in the space.
func (s CoordinateSpace) NumKeys() int {
	if s.Empty() {
		return 0
	}
	return s.Layers.Len() * s.Chips.Len() * s.Channels.Len() * s.Cells.Len()
}

func (s CoordinateSpace) Contains(k Key) bool {
	return s.Layers.Contains(k.Layer) && s.Chips.Contains(k.Chip) &&
		s.Channels.Contains(k.Channel) && s.Cells.Contains(k.Cell)
}

func (s CoordinateSpace) equal(o CoordinateSpace) bool {
	return s.Layers == o.Layers && s.Chips == o.Chips && s.Channels == o.Channels &&
		s.Cells == o.Cells && s.Selection == o.Selection
}
