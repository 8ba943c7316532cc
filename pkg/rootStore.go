package gainhists

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
)

// ROOTStore writes each distribution as a TH1F, one TDirectory per layer.
type ROOTStore struct {
	File     *riofs.File
	Filename string
}

type rootGroup struct {
	dir riofs.Directory
}

func NewROOTStore(filename string) (*ROOTStore, error) {
	f, err := groot.Create(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating file: %s", filename), "rootwriter")
	}
	return &ROOTStore{File: f, Filename: filename}, nil
}

func (s *ROOTStore) Mkdir(name string) (Group, error) {
	dir, err := s.File.Mkdir(name)
	if err != nil {
		return nil, err
	}
	return &rootGroup{dir: dir}, nil
}

func (g *rootGroup) Put(d Distribution) error {
	return g.dir.Put(d.Name(), rhist.NewH1FFrom(d.H1D()))
}

func (s *ROOTStore) Close() error {
	return s.File.Close()
}
