package gainhists

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

const DefaultTreeName = "ecal"

// buildBranches are the branches of the event building tree that are read.
var buildBranches = []string{
	"nhit_len",
	"nhit_slab",
	"hit_slab",
	"hit_chip",
	"hit_chan",
	"hit_sca",
	"hit_isHit",
	"hit_adc_low",
	"hit_adc_high",
}

// ROOTSource reads events from the tree written by the event building.
type ROOTSource struct {
	Filename string
	file     *riofs.File
	tree     rtree.Tree

	nhitLen  int32
	nhitSlab int32
	slab     []int32
	chip     []int32
	chn      []int32
	sca      []int32
	isHit    []int32
	adcLow   []int32
	adcHigh  []int32
	event    Event
}

func OpenROOTSource(filename string, treeName string) (*ROOTSource, error) {
	if treeName == "" {
		treeName = DefaultTreeName
	}
	if err := checkInput(filename); err != nil {
		return nil, err
	}
	f, err := groot.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	obj, err := f.Get(treeName)
	if err != nil {
		f.Close()
		return nil, &SchemaError{Source: filename, Object: treeName, Err: err}
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		f.Close()
		return nil, &SchemaError{Source: filename, Object: treeName,
			Err: fmt.Errorf("object is a %s, not a tree", obj.Class())}
	}
	for _, name := range buildBranches {
		if tree.Branch(name) == nil {
			f.Close()
			return nil, &SchemaError{Source: filename, Object: treeName + "/" + name}
		}
	}
	return &ROOTSource{Filename: filename, file: f, tree: tree}, nil
}

func (s *ROOTSource) Entries() int64 {
	return s.tree.Entries()
}

func (s *ROOTSource) readVars() []rtree.ReadVar {
	return []rtree.ReadVar{
		{Name: "nhit_len", Value: &s.nhitLen},
		{Name: "nhit_slab", Value: &s.nhitSlab},
		{Name: "hit_slab", Value: &s.slab},
		{Name: "hit_chip", Value: &s.chip},
		{Name: "hit_chan", Value: &s.chn},
		{Name: "hit_sca", Value: &s.sca},
		{Name: "hit_isHit", Value: &s.isHit},
		{Name: "hit_adc_low", Value: &s.adcLow},
		{Name: "hit_adc_high", Value: &s.adcHigh},
	}
}

func (s *ROOTSource) Scan(fn func(evt *Event) error) error {
	r, err := rtree.NewReader(s.tree, s.readVars())
	if err != nil {
		return fmt.Errorf("error creating tree reader for %s: %w", s.Filename, err)
	}
	defer r.Close()

	return r.Read(func(ctx rtree.RCtx) error {
		n := int(s.nhitLen)
		for _, branch := range [][]int32{s.slab, s.chip, s.chn, s.sca, s.isHit, s.adcLow, s.adcHigh} {
			if len(branch) != n {
				return &CorruptEventError{EventID: ctx.Entry, Declared: n, Found: len(branch)}
			}
		}
		s.event.reset(ctx.Entry, int(s.nhitSlab))
		for i := 0; i < n; i++ {
			s.event.Hits = append(s.event.Hits, Hit{
				Layer:    int(s.slab[i]),
				Chip:     int(s.chip[i]),
				Channel:  int(s.chn[i]),
				Cell:     int(s.sca[i]),
				IsSignal: s.isHit[i] != 0,
				ADCLow:   int(s.adcLow[i]),
				ADCHigh:  int(s.adcHigh[i]),
			})
		}
		return fn(&s.event)
	})
}

// Bounds reads only the hit multiplicity and the coordinate branches.
func (s *ROOTSource) Bounds() (Bounds, error) {
	rvars := []rtree.ReadVar{
		{Name: "nhit_len", Value: &s.nhitLen},
		{Name: "hit_slab", Value: &s.slab},
		{Name: "hit_chip", Value: &s.chip},
		{Name: "hit_chan", Value: &s.chn},
		{Name: "hit_sca", Value: &s.sca},
	}
	r, err := rtree.NewReader(s.tree, rvars)
	if err != nil {
		return Bounds{}, fmt.Errorf("error creating tree reader for %s: %w", s.Filename, err)
	}
	defer r.Close()

	b := emptyBounds()
	err = r.Read(func(ctx rtree.RCtx) error {
		n := int(s.nhitLen)
		for _, branch := range [][]int32{s.slab, s.chip, s.chn, s.sca} {
			if len(branch) != n {
				return &CorruptEventError{EventID: ctx.Entry, Declared: n, Found: len(branch)}
			}
		}
		b.Events++
		b.MaxHits = max(b.MaxHits, n)
		if n == 0 {
			return nil
		}
		b.Layer = extendRange(b.Layer, s.slab)
		b.Chip = extendRange(b.Chip, s.chip)
		b.Channel = extendRange(b.Channel, s.chn)
		b.Cell = extendRange(b.Cell, s.sca)
		return nil
	})
	if err != nil {
		return b, fmt.Errorf("error scanning coordinate bounds: %w", err)
	}
	return b, nil
}

func (s *ROOTSource) Close() error {
	return s.file.Close()
}
