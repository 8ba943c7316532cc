package gainhists

import (
	"errors"
	"fmt"
	"os"
	"sync"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// The HDF5 C library is not built thread safe: only one store is open at
// a time.
var hdf5Mutex sync.Mutex

type BinningHDF5 struct {
	kind  [STRLEN]byte
	nbins int32
	xmin  float64
	xmax  float64
}

const STRLEN = 20

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

// HDF5Store writes each distribution as a dataset of nbins+2 counters:
// underflow, buckets, overflow. The binning of each kind is stored in the
// /binning table.
type HDF5Store struct {
	File             *hdf5.File
	Filename         string
	CompressionLevel int
	groups           []*hdf5Group
}

type hdf5Group struct {
	store *HDF5Store
	group *hdf5.Group
}

func NewHDF5Store(filename string, compressionLevel int) (*HDF5Store, error) {
	hdf5Mutex.Lock()
	f, err := hdf5.CreateFile(filename, hdf5.F_ACC_EXCL)
	if err != nil {
		hdf5Mutex.Unlock()
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating file: %s", filename), "hdf5writer")
	}
	store := &HDF5Store{File: f, Filename: filename, CompressionLevel: compressionLevel}
	if err := store.writeBinning(); err != nil {
		if derr := store.discard(); derr != nil {
			logger.Error(derr.Error())
		}
		return nil, err
	}
	return store, nil
}

// discard closes the store and deletes its file.
func (s *HDF5Store) discard() error {
	err := s.Close()
	if rerr := os.Remove(s.Filename); rerr != nil {
		err = errors.Join(err, fmt.Errorf("error removing %s: %w", s.Filename, rerr))
	}
	return err
}

func (s *HDF5Store) writeBinning() error {
	kinds := Kinds()
	entries := make([]BinningHDF5, len(kinds))
	for i, kind := range kinds {
		b := kind.Binning()
		entries[i] = BinningHDF5{
			kind:  convertToHdf5String(kind.String()),
			nbins: int32(b.NBins),
			xmin:  b.Min,
			xmax:  b.Max,
		}
	}
	table, err := createTable(&s.File.CommonFG, "binning", BinningHDF5{}, len(entries))
	if err != nil {
		return &ErrCreateTable{TableName: "binning", Err: err}
	}
	defer table.Close()
	return table.Write(&entries)
}

func (s *HDF5Store) Mkdir(name string) (Group, error) {
	g, err := s.File.CreateGroup(name)
	if err != nil {
		return nil, err
	}
	group := &hdf5Group{store: s, group: g}
	s.groups = append(s.groups, group)
	return group, nil
}

func (g *hdf5Group) Put(d Distribution) error {
	counts := d.Counts()
	dset, err := createArray(&g.group.CommonFG, d.Name(), len(counts), g.store.CompressionLevel)
	if err != nil {
		return err
	}
	if err := dset.Write(&counts); err != nil {
		dset.Close()
		return err
	}
	return dset.Close()
}

func (s *HDF5Store) Close() error {
	defer hdf5Mutex.Unlock()
	var errs []error
	for _, g := range s.groups {
		if err := g.group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing group: %w", err))
		}
	}
	if err := s.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func createArray(group *hdf5.CommonFG, name string, length int, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{uint(length)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, err
	}
	defer fileSpace.Close()

	// create property list
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	defer plist.Close()

	if compressionLevel > 0 {
		plist.SetChunk(dims)
		plist.SetDeflate(compressionLevel)
	}

	return group.CreateDatasetWith(name, hdf5.T_NATIVE_UINT32, fileSpace, plist)
}

func createTable(group *hdf5.CommonFG, name string, datatype interface{}, length int) (*hdf5.Dataset, error) {
	dims := []uint{uint(length)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, err
	}
	defer fileSpace.Close()

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, err
	}

	return group.CreateDataset(name, dtype, fileSpace)
}
