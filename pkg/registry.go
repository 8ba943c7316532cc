package gainhists

import (
	"fmt"
	"iter"
	"slices"
)

// slotsPerKey is the storage of the four distributions of one key.
var slotsPerKey = 2*PedestalBinning.slots() + 2*SignalBinning.slots()

// kindOffset is the position of each distribution inside a key's block.
var kindOffset = [numKinds]int{
	PedestalLow:  0,
	PedestalHigh: PedestalBinning.slots(),
	SignalLow:    2 * PedestalBinning.slots(),
	SignalHigh:   2*PedestalBinning.slots() + SignalBinning.slots(),
}

// Registry holds the four distributions of every key of a CoordinateSpace
// in a single flat slab of counters indexed by a linear key index.
type Registry struct {
	space     CoordinateSpace
	allocated bool
	maxBytes  int64
	counts    []uint32
}

func NewRegistry() *Registry {
	return &Registry{}
}

// SetMemoryLimit makes Allocate refuse spaces needing more than maxBytes.
// Zero disables the limit.
func (r *Registry) SetMemoryLimit(maxBytes int64) {
	r.maxBytes = maxBytes
}

// RequiredBytes is the memory Allocate reserves for space.
func RequiredBytes(space CoordinateSpace) int64 {
	return int64(space.NumKeys()) * int64(slotsPerKey) * 4
}

// Allocate creates every distribution of space. Calling it again with the
// same space does nothing.
func (r *Registry) Allocate(space CoordinateSpace) error {
	if r.allocated {
		if r.space.equal(space) {
			return nil
		}
		return fmt.Errorf("%w: allocated for layers %v, requested %v", ErrAlreadyAllocated, r.space.Layers, space.Layers)
	}
	need := RequiredBytes(space)
	if r.maxBytes > 0 && need > r.maxBytes {
		return fmt.Errorf("%w: %d keys need %d MB, limit %d MB", ErrRegistryTooLarge,
			space.NumKeys(), need>>20, r.maxBytes>>20)
	}
	r.counts = make([]uint32, space.NumKeys()*slotsPerKey)
	r.space = space
	r.allocated = true
	return nil
}

func (r *Registry) Space() CoordinateSpace {
	return r.space
}

func (r *Registry) Allocated() bool {
	return r.allocated
}

func (r *Registry) NumKeys() int {
	if !r.allocated {
		return 0
	}
	return r.space.NumKeys()
}

func (r *Registry) Bytes() int64 {
	return int64(len(r.counts)) * 4
}

// index is the linear index of k, layer major and cell minor.
func (r *Registry) index(k Key) (int, bool) {
	s := &r.space
	if !r.allocated || !s.Contains(k) {
		return 0, false
	}
	i := k.Layer - s.Layers.Min
	i = i*s.Chips.Len() + (k.Chip - s.Chips.Min)
	i = i*s.Channels.Len() + (k.Channel - s.Channels.Min)
	i = i*s.Cells.Len() + (k.Cell - s.Cells.Min)
	return i, true
}

// Fill adds one sample to the kind distribution of k.
func (r *Registry) Fill(k Key, kind Kind, value float64) error {
	i, ok := r.index(k)
	if !ok || kind < 0 || kind >= numKinds {
		return &UnknownKeyError{Key: k}
	}
	base := i*slotsPerKey + kindOffset[kind]
	r.counts[base+kind.Binning().slot(value)]++
	return nil
}

func (r *Registry) Distribution(k Key, kind Kind) (Distribution, error) {
	i, ok := r.index(k)
	if !ok || kind < 0 || kind >= numKinds {
		return Distribution{}, &UnknownKeyError{Key: k}
	}
	b := kind.Binning()
	base := i*slotsPerKey + kindOffset[kind]
	return Distribution{
		Kind:    kind,
		Key:     k,
		Binning: b,
		counts:  r.counts[base : base+b.slots() : base+b.slots()],
	}, nil
}

// Keys iterates over the allocated keys of the given layers, or of every
// allocated layer when none is given, ordered by layer, chip, channel and
// cell. Layers outside the allocation are skipped.
func (r *Registry) Keys(layers ...int) iter.Seq[Key] {
	var requested []int
	if len(layers) > 0 {
		requested = slices.Clone(layers)
		slices.Sort(requested)
		requested = slices.Compact(requested)
	}

	return func(yield func(Key) bool) {
		if !r.allocated || r.space.Empty() {
			return
		}
		s := r.space
		selected := requested
		if selected == nil {
			selected = r.Layers()
		}
		for _, layer := range selected {
			if !s.Layers.Contains(layer) {
				continue
			}
			for chip := s.Chips.Min; chip <= s.Chips.Max; chip++ {
				for ch := s.Channels.Min; ch <= s.Channels.Max; ch++ {
					for cell := s.Cells.Min; cell <= s.Cells.Max; cell++ {
						if !yield(Key{Layer: layer, Chip: chip, Channel: ch, Cell: cell}) {
							return
						}
					}
				}
			}
		}
	}
}

// Layers lists the allocated layers in ascending order.
func (r *Registry) Layers() []int {
	if !r.allocated || r.space.Empty() {
		return nil
	}
	layers := make([]int, 0, r.space.Layers.Len())
	for l := r.space.Layers.Min; l <= r.space.Layers.Max; l++ {
		layers = append(layers, l)
	}
	return layers
}

// TotalEntries sums the entries of every distribution of the given kind.
func (r *Registry) TotalEntries(kind Kind) uint64 {
	var n uint64
	b := kind.Binning()
	for i := 0; i < r.NumKeys(); i++ {
		base := i*slotsPerKey + kindOffset[kind]
		for _, c := range r.counts[base : base+b.slots()] {
			n += uint64(c)
		}
	}
	return n
}
