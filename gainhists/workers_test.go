package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	gainhists "github.com/siwecal-tb/gainhists_go/pkg"
	"go-hep.org/x/hep/groot"
)

// buildEvents spreads hits over layers 0..3 with a busy cell every few
// events.
func buildEvents(n int) []gainhists.Event {
	events := make([]gainhists.Event, n)
	for i := range events {
		evt := gainhists.Event{ID: int64(i), ActiveLayers: 4 + i%6}
		for j := 0; j < 12; j++ {
			evt.Hits = append(evt.Hits, gainhists.Hit{
				Layer:    j % 4,
				Chip:     (i + j) % 3,
				Channel:  j,
				Cell:     (i * j) % 5,
				IsSignal: (i+j)%4 == 0,
				ADCLow:   150 + (i*7+j*13)%400,
				ADCHigh:  150 + (i*11+j*5)%400,
			})
		}
		events[i] = evt
	}
	return events
}

func splitConfig(t *testing.T) gainhists.Configuration {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "build.sqlite")
	db, err := gainhists.ConnectToSQLite(input)
	if err != nil {
		t.Fatalf("could not create sqlite database: %v", err)
	}
	defer db.Close()
	if err := gainhists.CreateEventTables(db); err != nil {
		t.Fatalf("could not create tables: %v", err)
	}
	if err := gainhists.InsertEvents(db, buildEvents(60)); err != nil {
		t.Fatalf("could not insert events: %v", err)
	}

	config := gainhists.DefaultConfiguration()
	config.InputFormat = gainhists.InputSQLite
	config.FileIn = input
	config.OutputFormat = gainhists.OutputROOT
	config.FileOut = filepath.Join(dir, "PedestalMIP.root")
	config.NumWorkers = 3
	return config
}

func TestRunSplit(t *testing.T) {
	config := splitConfig(t)
	total, err := runSplit(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for layer := 0; layer < 4; layer++ {
		name := splitOutputName(config.FileOut, layer)
		f, err := groot.Open(name)
		if err != nil {
			t.Fatalf("could not open %s: %v", name, err)
		}
		if _, err := f.Get(gainhists.LayerGroupName(layer)); err != nil {
			t.Errorf("%s: missing group of layer %d: %v", name, layer, err)
		}
		if _, err := f.Get(gainhists.LayerGroupName((layer + 1) % 4)); err == nil {
			t.Errorf("%s: unexpected group of layer %d", name, (layer+1)%4)
		}
		f.Close()
	}
	if _, err := os.Stat(config.FileOut); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("split mode should not write %s", config.FileOut)
	}

	all := config
	all.FileOut = filepath.Join(t.TempDir(), "all.root")
	want, err := gainhists.Run(all)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total.HitsFilled != want.HitsFilled || total.HitsExcluded != want.HitsExcluded ||
		total.HitsOnSelectedLayers != want.HitsOnSelectedLayers {
		t.Errorf("split counters %+v differ from the all layer run %+v", total, want)
	}
}

func TestRunSplitExistingOutput(t *testing.T) {
	config := splitConfig(t)
	taken := splitOutputName(config.FileOut, 2)
	if err := os.WriteFile(taken, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runSplit(config); !errors.Is(err, gainhists.ErrOutputAlreadyExists) {
		t.Fatalf("expected ErrOutputAlreadyExists, got %v", err)
	}
	for _, layer := range []int{0, 1, 3} {
		if _, err := os.Stat(splitOutputName(config.FileOut, layer)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("layer %d output written although layer 2 was taken", layer)
		}
	}
}

func TestRunSplitSingleLayer(t *testing.T) {
	config := splitConfig(t)
	config.Layer = 1
	if _, err := runSplit(config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(splitOutputName(config.FileOut, 1)); err != nil {
		t.Errorf("missing layer 1 output: %v", err)
	}
	if _, err := os.Stat(splitOutputName(config.FileOut, 0)); !errors.Is(err, os.ErrNotExist) {
		t.Error("unexpected layer 0 output")
	}

	config.Layer = 7
	if _, err := runSplit(config); !errors.Is(err, gainhists.ErrInvalidLayerSelection) {
		t.Errorf("expected ErrInvalidLayerSelection, got %v", err)
	}
}
