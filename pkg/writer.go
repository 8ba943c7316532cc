package gainhists

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const (
	OutputHDF5 = "hdf5"
	OutputROOT = "root"
)

// Store is a hierarchical output file: one group per layer holding one
// object per distribution.
type Store interface {
	Mkdir(name string) (Group, error)
	Close() error
}

type Group interface {
	Put(d Distribution) error
}

// CheckOutput fails if filename is already taken.
func CheckOutput(filename string) error {
	_, err := os.Stat(filename)
	if err == nil {
		return &OutputExistsError{Filename: filename}
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return &ErrOpenFile{Filename: filename, Err: err}
	}
	return nil
}

// CreateStore creates a new output file, never overwriting an existing one.
func CreateStore(format string, filename string, config Configuration) (Store, error) {
	if err := CheckOutput(filename); err != nil {
		return nil, err
	}
	switch format {
	case OutputHDF5, "":
		return NewHDF5Store(filename, config.CompressionLevel)
	case OutputROOT:
		return NewROOTStore(filename)
	}
	return nil, fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, format)
}

// WriteRegistry stores every distribution of the registry, one group per
// layer, in key order.
func WriteRegistry(store Store, reg *Registry) error {
	for _, layer := range reg.Layers() {
		name := LayerGroupName(layer)
		group, err := store.Mkdir(name)
		if err != nil {
			return &ErrCreateGroup{GroupName: name, Err: err}
		}
		if configuration.Verbosity > 1 {
			logger.Info(fmt.Sprintf("Writing histograms of layer %d", layer), "writer")
		}
		for key := range reg.Keys(layer) {
			for _, kind := range Kinds() {
				d, err := reg.Distribution(key, kind)
				if err != nil {
					return err
				}
				if err := group.Put(d); err != nil {
					return &ErrCreateTable{TableName: name + "/" + d.Name(), Err: err}
				}
			}
		}
	}
	return nil
}
