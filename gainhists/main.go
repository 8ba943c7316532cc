package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	gainhists "github.com/siwecal-tb/gainhists_go/pkg"
)

var logger Logger

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path (JSON or YAML)")
	layer := flag.Int("layer", -2, "Only fill this layer (-1 for all layers, default from configuration)")
	fileOut := flag.String("out", "", "Output file (default from configuration)")
	split := flag.Bool("split", false, "Write one output file per layer")
	flag.Parse()

	configuration, err := LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	if *layer >= -1 {
		configuration.Layer = *layer
	}
	if *fileOut != "" {
		configuration.FileOut = *fileOut
	}
	if flag.NArg() > 0 {
		configuration.FileIn = flag.Arg(0)
	}
	gainhists.SetConfiguration(configuration)
	gainhists.SetLogger(logger)

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	if *split {
		if _, err := runSplit(configuration); err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	counters, err := gainhists.Run(configuration)
	if err != nil {
		message := fmt.Errorf("Error filling gain histograms: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	gainhists.Report(counters, configuration.MinActiveLayers)
}
