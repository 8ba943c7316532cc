package gainhists

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
)

type Kind int

const (
	PedestalLow Kind = iota
	PedestalHigh
	SignalLow
	SignalHigh
	numKinds
)

var kindStrings = [numKinds]string{
	"ped_low",
	"ped_high",
	"mip_low",
	"mip_high",
}

func Kinds() []Kind {
	return []Kind{PedestalLow, PedestalHigh, SignalLow, SignalHigh}
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "UNKNOWN"
	}
	return kindStrings[k]
}

func (k Kind) Binning() Binning {
	switch k {
	case SignalLow, SignalHigh:
		return SignalBinning
	default:
		return PedestalBinning
	}
}

// DistributionName is the name of a distribution inside its layer group.
// It does not carry the layer so outputs of single-layer runs can be
// combined.
func DistributionName(kind Kind, chip, channel, cell int) string {
	return fmt.Sprintf("%s_chip%d_chn%d_sca%d", kind, chip, channel, cell)
}

func LayerGroupName(layer int) string {
	return fmt.Sprintf("layer_%d", layer)
}

// Binning describes NBins equal-width buckets over [Min, Max).
type Binning struct {
	NBins int
	Min   float64
	Max   float64
}

// ADC counts are integers; a unit bucket width centered on them keeps
// every count in a bucket of its own.
var (
	PedestalBinning = Binning{NBins: 400, Min: 100.5, Max: 500.5}
	SignalBinning   = Binning{NBins: 500, Min: 100.5, Max: 600.5}
)

func (b Binning) Width() float64 {
	return (b.Max - b.Min) / float64(b.NBins)
}

// slots is the storage needed by one distribution: underflow, the buckets
// and overflow.
func (b Binning) slots() int {
	return b.NBins + 2
}

// slot maps a value to its storage slot. Slot 0 is the underflow and slot
// NBins+1 the overflow.
func (b Binning) slot(v float64) int {
	switch {
	case math.IsNaN(v):
		return b.NBins + 1
	case v < b.Min:
		return 0
	case v >= b.Max:
		return b.NBins + 1
	}
	i := int((v - b.Min) / b.Width())
	if i >= b.NBins {
		i = b.NBins - 1
	}
	return i + 1
}

// Bin returns the bucket index of v, or -1 for values outside the range.
func (b Binning) Bin(v float64) int {
	s := b.slot(v)
	if s == 0 || s == b.NBins+1 {
		return -1
	}
	return s - 1
}

func (b Binning) Center(i int) float64 {
	return b.Min + (float64(i)+0.5)*b.Width()
}

// Distribution is a view on the counts of one (key, kind) pair in a
// Registry. It shares storage with the registry.
type Distribution struct {
	Kind    Kind
	Key     Key
	Binning Binning
	counts  []uint32
}

func (d Distribution) Underflow() uint64 {
	return uint64(d.counts[0])
}

func (d Distribution) Overflow() uint64 {
	return uint64(d.counts[d.Binning.NBins+1])
}

// Count returns the content of bucket i.
func (d Distribution) Count(i int) uint64 {
	return uint64(d.counts[i+1])
}

// Entries counts every sample, outflows included.
func (d Distribution) Entries() uint64 {
	var n uint64
	for _, c := range d.counts {
		n += uint64(c)
	}
	return n
}

// Counts returns a copy of the storage: underflow, buckets, overflow.
func (d Distribution) Counts() []uint32 {
	out := make([]uint32, len(d.counts))
	copy(out, d.counts)
	return out
}

// Name is the distribution name inside its layer group.
func (d Distribution) Name() string {
	return DistributionName(d.Kind, d.Key.Chip, d.Key.Channel, d.Key.Cell)
}

// H1D converts the distribution to a go-hep histogram. Bucket contents are
// refilled at the bucket centers, which for integer ADC samples are the
// sample values themselves.
func (d Distribution) H1D() *hbook.H1D {
	b := d.Binning
	h := hbook.NewH1D(b.NBins, b.Min, b.Max)
	h.Annotation()["name"] = d.Name()
	h.Annotation()["title"] = d.Name()
	for i := 0; i < b.NBins; i++ {
		x := b.Center(i)
		for n := d.counts[i+1]; n > 0; n-- {
			h.Fill(x, 1)
		}
	}
	for n := d.counts[0]; n > 0; n-- {
		h.Fill(b.Min-b.Width(), 1)
	}
	for n := d.counts[b.NBins+1]; n > 0; n-- {
		h.Fill(b.Max+b.Width(), 1)
	}
	return h
}
