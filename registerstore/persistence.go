package registerstore

import (
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Layout of the persisted file: four fixed-size regions, one per table,
// back-to-back. Coils and discrete inputs are already byte-packed; holding
// and input registers are native uint16 words reinterpreted in place.
const (
	coilsBytes    = (maxAddress + 1 + 7) / 8
	discreteBytes = (maxAddress + 1 + 7) / 8
	holdingBytes  = (maxAddress + 1) * 2
	inputBytes    = (maxAddress + 1) * 2

	coilsOffset    = 0
	discreteOffset = coilsOffset + coilsBytes
	holdingOffset  = discreteOffset + discreteBytes
	inputOffset    = holdingOffset + holdingBytes
	totalSize      = inputOffset + inputBytes
)

// MmapStore persists a DataModel to a memory-mapped file, so a slave's
// register bank survives a process restart without a database.
type MmapStore struct {
	path string
	file *os.File
	data mmap.MMap
}

// OpenMmapStore opens (creating if necessary) the backing file at path,
// truncating/growing it to the fixed table size, and maps it into memory.
func OpenMmapStore(path string) (*MmapStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "registerstore: open %s", path)
	}
	if err := f.Truncate(totalSize); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "registerstore: truncate %s", path)
	}
	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "registerstore: mmap %s", path)
	}
	return &MmapStore{path: path, file: f, data: data}, nil
}

// Load builds a DataModel whose tables alias the mapped file directly:
// writes through the DataModel are writes to the file's page cache, made
// durable by a later call to Flush.
//
// The register views are produced with unsafe.Slice over the mapped
// bytes, so the file's register words are interpreted in the host's
// native byte order. This is only safe to move between machines that
// share that byte order — documented here rather than guarded against,
// the same trade-off the reference simulator this is adapted from makes.
func (s *MmapStore) Load() *DataModel {
	return &DataModel{
		Coils:            s.data[coilsOffset : coilsOffset+coilsBytes],
		DiscreteInputs:   s.data[discreteOffset : discreteOffset+discreteBytes],
		HoldingRegisters: unsafe.Slice((*uint16)(unsafe.Pointer(&s.data[holdingOffset])), maxAddress+1),
		InputRegisters:   unsafe.Slice((*uint16)(unsafe.Pointer(&s.data[inputOffset])), maxAddress+1),
	}
}

// Flush forces the mapped pages to disk.
func (s *MmapStore) Flush() error {
	return s.data.Flush()
}

// Close unmaps and closes the backing file.
func (s *MmapStore) Close() error {
	if err := s.data.Unmap(); err != nil {
		return err
	}
	return s.file.Close()
}
