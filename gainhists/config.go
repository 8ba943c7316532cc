package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gainhists "github.com/siwecal-tb/gainhists_go/pkg"
	"gopkg.in/yaml.v3"
)

// LoadConfiguration reads a JSON or YAML (by extension) configuration file
// on top of the default values.
func LoadConfiguration(filename string) (gainhists.Configuration, error) {
	config := gainhists.DefaultConfiguration()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config gainhists.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Input format: %s", config.InputFormat), "config")
	logger.Info(fmt.Sprintf("Output format: %s", config.OutputFormat), "config")
	if config.InputFormat == gainhists.InputROOT {
		logger.Info(fmt.Sprintf("Tree: %s", config.TreeName), "config")
	}
	if config.InputFormat == gainhists.InputMySQL {
		logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
		logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	}
	logger.Info(fmt.Sprintf("Max hits per SCA: %d", config.MaxHitsPerCell), "config")
	logger.Info(fmt.Sprintf("Min active layers: %d", config.MinActiveLayers), "config")
	logger.Info(fmt.Sprintf("Layer: %s", config.Selection()), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Max memory (MB): %d", config.MaxMemoryMB), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
}
