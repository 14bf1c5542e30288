package vfs

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ardenfen/blockfs/backend"
	"github.com/ardenfen/blockfs/backend/file"
	"github.com/ardenfen/blockfs/util"
)

// Boot formats a fresh image if filename does not exist, or verifies and
// mounts the existing one. The create/open split (backend/file.CreateFromPath
// vs OpenFromPath) is collapsed into the single boot-or-format call a
// caller makes once at startup.
func Boot(filename string, g Geometry, opts ...Option) (*Engine, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneral, err)
	}

	imageSize := int64(g.TotalSectors) * int64(g.SectorSize)

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		storage, err := file.CreateFromPath(filename, imageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: create image: %v", ErrGeneral, err)
		}
		e := newEngine(storage, g, opts)
		if err := e.format(); err != nil {
			return nil, err
		}
		e.log.WithFields(logrus.Fields{"volume": e.volumeID, "file": filename}).Info("formatted new image")
		return e, nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat image: %v", ErrGeneral, err)
	}

	storage, err := file.OpenFromPath(filename, false)
	if err != nil {
		return nil, fmt.Errorf("%w: open image: %v", ErrGeneral, err)
	}
	info, err := storage.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat open image: %v", ErrGeneral, err)
	}
	if info.Size() != imageSize {
		return nil, fmt.Errorf("%w: image is %d bytes, expected %d", ErrGeneral, info.Size(), imageSize)
	}

	e := newEngine(storage, g, opts)
	if err := e.verifySuperblock(); err != nil {
		return nil, err
	}
	e.volumeID = uuid.New()
	e.log.WithFields(logrus.Fields{"volume": e.volumeID, "file": filename}).Info("booted existing image")
	return e, nil
}

// BootStorage boots directly from an already-open backend.Storage (e.g. a
// testhelper.StorageImpl stub, or a backend.Storage over a non-regular-file
// block device), bypassing the filename-based existence check Boot does.
// The caller must have already formatted the image if needed.
func BootStorage(storage backend.Storage, g Geometry, opts ...Option) (*Engine, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneral, err)
	}
	e := newEngine(storage, g, opts)
	if err := e.verifySuperblock(); err != nil {
		return nil, err
	}
	e.volumeID = uuid.New()
	return e, nil
}

// format writes a fresh image: superblock magic, inode bitmap with bit 0
// set, sector bitmap with the metadata prefix reserved, zeroed inode
// table sectors except the root inode record.
func (e *Engine) format() error {
	e.volumeID = uuid.New()

	sb := make([]byte, e.g.SectorSize)
	byteOrder.PutUint32(sb[0:4], diskMagic)
	if err := e.disk.writeSector(e.l.superblockStart, sb); err != nil {
		return err
	}

	if err := e.inodeBM.Initialize(1); err != nil {
		return err
	}
	if err := e.sectorBM.Initialize(e.l.dataRegionStart); err != nil {
		return err
	}

	for s := int32(0); s < e.l.inodeTableSectors; s++ {
		if err := e.disk.zeroSector(e.l.inodeTableStart + s); err != nil {
			return err
		}
	}
	root := onDiskInode{size: 0, typ: inodeTypeDirectory, data: make([]int32, e.g.MaxDataSectors)}
	if err := e.inodes.write(rootInodeID, root); err != nil {
		return err
	}
	return nil
}

// verifySuperblock checks the existing-image half of Boot: verify the
// magic, failing the boot with ErrGeneral on any mismatch.
func (e *Engine) verifySuperblock() error {
	sb, err := e.disk.readSector(e.l.superblockStart)
	if err != nil {
		return err
	}
	magic := byteOrder.Uint32(sb[0:4])
	if magic != diskMagic {
		e.log.WithField("superblock", util.DumpByteSlice(sb[:16], 16, true, true, false, nil)).
			Error("superblock magic mismatch")
		return fmt.Errorf("%w: superblock magic %#x != %#x", ErrGeneral, magic, diskMagic)
	}
	return nil
}

// Sync flushes any OS-buffered writes to the backing store and, on unix
// platforms, issues a real fsync (sync_unix.go / sync_other.go).
func (e *Engine) Sync() error {
	osFile, err := e.storage.Sys()
	if err != nil {
		// not backed by an *os.File (e.g. a test stub); nothing to flush.
		return nil
	}
	if err := syncOSFile(osFile); err != nil {
		return fmt.Errorf("%w: fsync: %v", ErrGeneral, err)
	}
	return nil
}
