package gainhists

import "fmt"

type Configuration struct {
	FileIn           string `json:"file_in" yaml:"file_in"`
	FileOut          string `json:"file_out" yaml:"file_out"`
	InputFormat      string `json:"input_format" yaml:"input_format"`
	OutputFormat     string `json:"output_format" yaml:"output_format"`
	TreeName         string `json:"tree_name" yaml:"tree_name"`
	MaxHitsPerCell   int    `json:"max_hits_per_cell" yaml:"max_hits_per_cell"`
	MinActiveLayers  int    `json:"min_active_layers" yaml:"min_active_layers"`
	Layer            int    `json:"layer" yaml:"layer"`
	MaxEvents        int64  `json:"max_events" yaml:"max_events"`
	ProgressEvery    int64  `json:"progress_every" yaml:"progress_every"`
	Verbosity        int    `json:"verbosity" yaml:"verbosity"`
	CompressionLevel int    `json:"compression_level" yaml:"compression_level"`
	MaxMemoryMB      int64  `json:"max_memory_mb" yaml:"max_memory_mb"`
	NumWorkers       int    `json:"num_workers" yaml:"num_workers"`
	Host             string `json:"host" yaml:"host"`
	User             string `json:"user" yaml:"user"`
	Passwd           string `json:"pass" yaml:"pass"`
	DBName           string `json:"dbname" yaml:"dbname"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		InputFormat:      InputROOT,
		OutputFormat:     OutputHDF5,
		TreeName:         DefaultTreeName,
		MaxHitsPerCell:   DefaultMaxHitsPerCell,
		MinActiveLayers:  DefaultMinActiveLayers,
		Layer:            -1,
		MaxEvents:        0,
		ProgressEvery:    100000,
		Verbosity:        0,
		CompressionLevel: 4,
		MaxMemoryMB:      0,
		NumWorkers:       1,
	}
}

// Validate rejects parameter combinations that cannot be run. It does not
// touch the input or output.
func (c Configuration) Validate() error {
	switch c.InputFormat {
	case InputROOT, InputSQLite, InputMySQL:
	default:
		return fmt.Errorf("%w: unknown input format %q", ErrInvalidConfig, c.InputFormat)
	}
	switch c.OutputFormat {
	case OutputHDF5, OutputROOT:
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.OutputFormat)
	}
	if c.InputFormat != InputMySQL && c.FileIn == "" {
		return fmt.Errorf("%w: no input file", ErrInvalidConfig)
	}
	if c.FileOut == "" {
		return fmt.Errorf("%w: no output file", ErrInvalidConfig)
	}
	if c.MaxHitsPerCell < 0 {
		return fmt.Errorf("%w: max_hits_per_cell must not be negative, got %d", ErrInvalidConfig, c.MaxHitsPerCell)
	}
	if c.MinActiveLayers < 0 {
		return fmt.Errorf("%w: min_active_layers must not be negative, got %d", ErrInvalidConfig, c.MinActiveLayers)
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return fmt.Errorf("%w: compression_level must be in [0, 9], got %d", ErrInvalidConfig, c.CompressionLevel)
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("%w: num_workers must be at least 1, got %d", ErrInvalidConfig, c.NumWorkers)
	}
	return nil
}

func (c Configuration) Selection() LayerSelection {
	return LayerSelectionFromID(c.Layer)
}

func (c Configuration) ClassifierOptions() ClassifierOptions {
	return ClassifierOptions{
		MaxHitsPerCell:  c.MaxHitsPerCell,
		MinActiveLayers: c.MinActiveLayers,
		Selection:       c.Selection(),
	}
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

// SetConfiguration sets the package wide settings (verbosity) used by the
// writers and readers.
func SetConfiguration(config Configuration) {
	configuration = config
}
