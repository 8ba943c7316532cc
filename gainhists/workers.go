package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gainhists "github.com/siwecal-tb/gainhists_go/pkg"
)

type WorkerData struct {
	Layer  int
	Config gainhists.Configuration
}

type WorkerResult struct {
	Layer    int
	Counters gainhists.Counters
	Err      error
}

// Each job is an independent single-layer run with its own registry and
// output file.
func worker(id int, jobs <-chan WorkerData, results chan<- WorkerResult) {
	for job := range jobs {
		if job.Config.Verbosity > 0 {
			logger.Info(fmt.Sprintf("Worker %d processing layer %d", id, job.Layer), "worker")
		}
		counters, err := runLayer(job)
		results <- WorkerResult{Layer: job.Layer, Counters: counters, Err: err}
	}
}

func runLayer(job WorkerData) (counters gainhists.Counters, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker recovered from panic on layer %d: %v", job.Layer, r)
		}
	}()
	return gainhists.Run(job.Config)
}

// splitOutputName inserts the layer before the extension:
// PedestalMIP.h5 -> PedestalMIP_layer3.h5
func splitOutputName(filename string, layer int) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("%s_layer%d%s", strings.TrimSuffix(filename, ext), layer, ext)
}

func layersToProcess(configuration gainhists.Configuration) ([]int, error) {
	src, err := gainhists.OpenSource(configuration)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	bounds, err := gainhists.ResolveBounds(gainhists.LimitEvents(src, configuration.MaxEvents))
	if err != nil {
		return nil, err
	}
	if layer, ok := configuration.Selection().Layer(); ok {
		if !bounds.Layer.Contains(layer) {
			return nil, &gainhists.LayerSelectionError{Layer: layer, Range: bounds.Layer}
		}
		return []int{layer}, nil
	}
	var layers []int
	for l := bounds.Layer.Min; l <= bounds.Layer.Max; l++ {
		layers = append(layers, l)
	}
	return layers, nil
}

// runSplit runs every layer as its own job and returns the summed counters.
func runSplit(configuration gainhists.Configuration) (gainhists.Counters, error) {
	var total gainhists.Counters
	if err := configuration.Validate(); err != nil {
		return total, err
	}
	layers, err := layersToProcess(configuration)
	if err != nil {
		return total, err
	}
	for _, layer := range layers {
		if err := gainhists.CheckOutput(splitOutputName(configuration.FileOut, layer)); err != nil {
			return total, err
		}
	}

	jobs := make(chan WorkerData, len(layers))
	results := make(chan WorkerResult, len(layers))
	for w := 1; w <= configuration.NumWorkers; w++ {
		go worker(w, jobs, results)
	}
	for _, layer := range layers {
		config := configuration
		config.Layer = layer
		config.FileOut = splitOutputName(configuration.FileOut, layer)
		jobs <- WorkerData{Layer: layer, Config: config}
	}
	close(jobs)

	var errs []error
	for range layers {
		result := <-results
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("layer %d: %w", result.Layer, result.Err))
			continue
		}
		logger.Info(fmt.Sprintf("Layer %d: %d hits filled", result.Layer, result.Counters.HitsFilled), "main")
		total.Add(result.Counters)
	}
	if len(errs) > 0 {
		return total, errors.Join(errs...)
	}
	// hits seen and admitted are the same in every partition
	message := fmt.Sprintf("%d layers: %d hits on considered layers, %d filled",
		len(layers), total.HitsOnSelectedLayers, total.HitsFilled)
	logger.Info(message, "main")
	return total, nil
}
