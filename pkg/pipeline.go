package gainhists

import (
	"fmt"
	"os"
	"time"
)

// Accumulate streams every event of src through a classifier filling reg.
func Accumulate(src EventSource, reg *Registry, opts ClassifierOptions, progress *Progress) (Counters, error) {
	classifier := NewClassifier(reg, opts)
	err := src.Scan(func(evt *Event) error {
		if err := classifier.Process(evt); err != nil {
			return fmt.Errorf("event %d: %w", evt.ID, err)
		}
		if progress != nil {
			progress.Update(classifier.Counters())
		}
		return nil
	})
	return classifier.Counters(), err
}

// Prepare validates the configuration, opens the input and resolves the
// coordinate space. Nothing is allocated and the output is not created.
func Prepare(config Configuration) (EventSource, CoordinateSpace, error) {
	if err := config.Validate(); err != nil {
		return nil, CoordinateSpace{}, err
	}
	if err := CheckOutput(config.FileOut); err != nil {
		return nil, CoordinateSpace{}, err
	}
	src, err := OpenSource(config)
	if err != nil {
		return nil, CoordinateSpace{}, err
	}
	src = LimitEvents(src, config.MaxEvents)

	bounds, err := ResolveBounds(src)
	if err != nil {
		src.Close()
		return nil, CoordinateSpace{}, err
	}
	space, err := ResolveSpace(bounds, config.Selection())
	if err != nil {
		src.Close()
		return nil, CoordinateSpace{}, err
	}
	if config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Events: %d, max hits per event: %d", bounds.Events, bounds.MaxHits), "resolver")
		logger.Info(fmt.Sprintf("Layers %v, chips %v, channels %v, scas %v, selection %v",
			space.Layers, space.Chips, space.Channels, space.Cells, space.Selection), "resolver")
	}
	return src, space, nil
}

// Run fills the gain histograms of one input and writes them to the output
// file. On error no output file is left behind.
func Run(config Configuration) (Counters, error) {
	start := time.Now()
	src, space, err := Prepare(config)
	if err != nil {
		return Counters{}, err
	}
	defer src.Close()

	reg := NewRegistry()
	reg.SetMemoryLimit(config.MaxMemoryMB << 20)
	if err := reg.Allocate(space); err != nil {
		return Counters{}, err
	}
	if config.Verbosity > 0 {
		message := fmt.Sprintf("Allocated %d keys x %d histograms (%d MB)", reg.NumKeys(), len(Kinds()), reg.Bytes()>>20)
		logger.Info(message, "registry")
	}

	progress := NewProgress(config.ProgressEvery, config.Verbosity)
	counters, err := Accumulate(src, reg, config.ClassifierOptions(), progress)
	if err != nil {
		return counters, err
	}
	if err := counters.Check(); err != nil {
		return counters, fmt.Errorf("inconsistent counters: %w", err)
	}

	if err := writeOutput(config, reg); err != nil {
		return counters, err
	}
	if config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Total time: %d ms", time.Since(start).Milliseconds()), "main")
	}
	return counters, nil
}

func writeOutput(config Configuration, reg *Registry) error {
	store, err := CreateStore(config.OutputFormat, config.FileOut, config)
	if err != nil {
		return err
	}
	return saveRegistry(store, config.FileOut, reg)
}

// saveRegistry writes reg to store and closes it. If anything fails the
// file behind the store is removed.
func saveRegistry(store Store, filename string, reg *Registry) error {
	err := WriteRegistry(store, reg)
	if cerr := store.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(filename); rerr != nil {
			logger.Error(fmt.Sprintf("error removing incomplete output %s: %v", filename, rerr))
		}
		return fmt.Errorf("error writing %s: %w", filename, err)
	}
	return nil
}
