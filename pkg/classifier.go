package gainhists

const (
	DefaultMaxHitsPerCell  = 1
	DefaultMinActiveLayers = 6
)

type ClassifierOptions struct {
	MaxHitsPerCell  int
	MinActiveLayers int
	Selection       LayerSelection
}

// Classifier routes the hits of each event to the pedestal or signal
// distributions of a Registry.
type Classifier struct {
	registry *Registry
	opts     ClassifierOptions
	counters Counters

	// per event count of signal hits by (layer, chip, sca)
	busy    []int
	touched []int
}

func NewClassifier(registry *Registry, opts ClassifierOptions) *Classifier {
	space := registry.Space()
	n := 0
	if registry.Allocated() && !space.Empty() {
		n = space.Layers.Len() * space.Chips.Len() * space.Cells.Len()
	}
	return &Classifier{
		registry: registry,
		opts:     opts,
		busy:     make([]int, n),
	}
}

func (c *Classifier) Counters() Counters {
	return c.counters
}

func (c *Classifier) busyIndex(h *Hit) (int, bool) {
	s := &c.registry.space
	if len(c.busy) == 0 || !s.Layers.Contains(h.Layer) || !s.Chips.Contains(h.Chip) || !s.Cells.Contains(h.Cell) {
		return 0, false
	}
	i := h.Layer - s.Layers.Min
	i = i*s.Chips.Len() + (h.Chip - s.Chips.Min)
	i = i*s.Cells.Len() + (h.Cell - s.Cells.Min)
	return i, true
}

func (c *Classifier) resetBusy() {
	for _, i := range c.touched {
		c.busy[i] = 0
	}
	c.touched = c.touched[:0]
}

func (c *Classifier) busyCount(h *Hit) int {
	if i, ok := c.busyIndex(h); ok {
		return c.busy[i]
	}
	return 0
}

// Process accumulates one event. Events with fewer active layers than
// MinActiveLayers only count towards the hits seen. Hits sharing their
// (layer, chip, sca) with more than MaxHitsPerCell signal hits of the same
// event are ambiguous and dropped.
func (c *Classifier) Process(evt *Event) error {
	nhit := int64(evt.NHit())
	c.counters.Events++
	c.counters.HitsSeen += nhit
	if evt.ActiveLayers < c.opts.MinActiveLayers {
		return nil
	}
	c.counters.EventsAdmitted++
	c.counters.HitsAdmitted += nhit

	c.resetBusy()
	for i := range evt.Hits {
		h := &evt.Hits[i]
		if !h.IsSignal {
			continue
		}
		// signal hits outside the registry (other layers of a single
		// layer run) can never veto a filled hit
		if j, ok := c.busyIndex(h); ok {
			if c.busy[j] == 0 {
				c.touched = append(c.touched, j)
			}
			c.busy[j]++
		}
	}

	maxPerCell := c.opts.MaxHitsPerCell
	for i := range evt.Hits {
		h := &evt.Hits[i]
		if !c.opts.Selection.Includes(h.Layer) {
			continue
		}
		c.counters.HitsOnSelectedLayers++
		if c.busyCount(h) > maxPerCell {
			c.counters.HitsExcluded++
			continue
		}
		low, high := PedestalLow, PedestalHigh
		if h.IsSignal {
			low, high = SignalLow, SignalHigh
		}
		key := h.Key()
		if err := c.registry.Fill(key, low, float64(h.ADCLow)); err != nil {
			return err
		}
		if err := c.registry.Fill(key, high, float64(h.ADCHigh)); err != nil {
			return err
		}
		c.counters.HitsFilled++
		if h.IsSignal {
			c.counters.SignalFilled++
		} else {
			c.counters.PedestalFilled++
		}
	}
	return nil
}
