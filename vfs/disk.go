package vfs

import (
	"fmt"

	"github.com/ardenfen/blockfs/backend"
	"github.com/sirupsen/logrus"
)

// sectorStore is the thin sector-granular wrapper around the external
// block device collaborator. It is the
// one place absolute sector ids are turned into byte offsets; everything
// above it (bitmap, inode store, directory store) talks in sector ids.
type sectorStore struct {
	storage backend.Storage
	g       Geometry
	log     *logrus.Logger
}

func newSectorStore(s backend.Storage, g Geometry, log *logrus.Logger) *sectorStore {
	if log == nil {
		log = discardLogger()
	}
	return &sectorStore{storage: s, g: g, log: log}
}

func (s *sectorStore) readSector(id int32) ([]byte, error) {
	buf := make([]byte, s.g.SectorSize)
	off := int64(id) * int64(s.g.SectorSize)
	n, err := s.storage.ReadAt(buf, off)
	if err != nil && n != len(buf) {
		s.log.WithFields(logrus.Fields{"sector": id, "err": err}).Error("sector read failed")
		return nil, fmt.Errorf("%w: read sector %d: %v", ErrGeneral, id, err)
	}
	return buf, nil
}

func (s *sectorStore) writeSector(id int32, buf []byte) error {
	w, err := s.storage.Writable()
	if err != nil {
		return fmt.Errorf("%w: storage not writable: %v", ErrGeneral, err)
	}
	off := int64(id) * int64(s.g.SectorSize)
	n, err := w.WriteAt(buf, off)
	if err != nil || n != len(buf) {
		s.log.WithFields(logrus.Fields{"sector": id, "err": err}).Error("sector write failed")
		return fmt.Errorf("%w: write sector %d: %v", ErrGeneral, id, err)
	}
	return nil
}

func (s *sectorStore) zeroSector(id int32) error {
	return s.writeSector(id, make([]byte, s.g.SectorSize))
}
