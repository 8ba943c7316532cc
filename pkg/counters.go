package gainhists

import (
	"fmt"
	"time"
)

// Counters are the running totals of a run.
type Counters struct {
	Events               int64
	EventsAdmitted       int64
	HitsSeen             int64
	HitsAdmitted         int64 // hits in events with enough active layers
	HitsOnSelectedLayers int64
	HitsExcluded         int64 // dropped by the busy cell cut
	HitsFilled           int64
	SignalFilled         int64
	PedestalFilled       int64
}

func (c *Counters) Add(o Counters) {
	c.Events += o.Events
	c.EventsAdmitted += o.EventsAdmitted
	c.HitsSeen += o.HitsSeen
	c.HitsAdmitted += o.HitsAdmitted
	c.HitsOnSelectedLayers += o.HitsOnSelectedLayers
	c.HitsExcluded += o.HitsExcluded
	c.HitsFilled += o.HitsFilled
	c.SignalFilled += o.SignalFilled
	c.PedestalFilled += o.PedestalFilled
}

// Check verifies the counters are consistent with each other.
func (c Counters) Check() error {
	switch {
	case c.HitsSeen < c.HitsAdmitted:
		return fmt.Errorf("hits admitted %d > hits seen %d", c.HitsAdmitted, c.HitsSeen)
	case c.HitsAdmitted < c.HitsOnSelectedLayers:
		return fmt.Errorf("hits on selected layers %d > hits admitted %d", c.HitsOnSelectedLayers, c.HitsAdmitted)
	case c.HitsOnSelectedLayers != c.HitsFilled+c.HitsExcluded:
		return fmt.Errorf("hits on selected layers %d != filled %d + excluded %d",
			c.HitsOnSelectedLayers, c.HitsFilled, c.HitsExcluded)
	case c.HitsFilled != c.SignalFilled+c.PedestalFilled:
		return fmt.Errorf("hits filled %d != signal %d + pedestal %d",
			c.HitsFilled, c.SignalFilled, c.PedestalFilled)
	}
	return nil
}

// Progress logs the counters periodically while events are streamed.
type Progress struct {
	Every     int64
	Verbosity int
	start     time.Time
	next      int64
}

func NewProgress(every int64, verbosity int) *Progress {
	return &Progress{Every: every, Verbosity: verbosity, start: time.Now(), next: every}
}

func (p *Progress) Update(c Counters) {
	if p.Every <= 0 || p.Verbosity <= 0 || c.Events < p.next {
		return
	}
	p.next = c.Events + p.Every
	message := fmt.Sprintf("Processed %d events, %d hits seen, %d filled (%s)",
		c.Events, c.HitsSeen, c.HitsFilled, time.Since(p.start).Round(time.Millisecond))
	logger.Info(message, "progress")
}

// Report logs the final counters.
func Report(c Counters, minActiveLayers int) {
	logger.Info(fmt.Sprintf("# events: %d (%d admitted)", c.Events, c.EventsAdmitted), "summary")
	logger.Info(fmt.Sprintf("# hits: %d", c.HitsSeen), "summary")
	logger.Info(fmt.Sprintf("# hits on at least %d slabs: %d", minActiveLayers, c.HitsAdmitted), "summary")
	logger.Info(fmt.Sprintf("# hits on considered layer(s): %d", c.HitsOnSelectedLayers), "summary")
	logger.Info(fmt.Sprintf("# hits in busy cells: %d", c.HitsExcluded), "summary")
	logger.Info(fmt.Sprintf("# hits filled: %d (%d MIP, %d pedestal)", c.HitsFilled, c.SignalFilled, c.PedestalFilled), "summary")
}
