package vfs

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// bitmapRegion operates on a contiguous run of sectors interpreted as a
// flat, most-significant-bit-first bit array. It is a private,
// sector/byte-oriented allocator internal to this package, distinct from a
// generic in-memory least-significant-bit bitmap: a host-resident scratch
// bitmap and a disk-resident allocation bitmap with a fixed bit order are
// different enough concerns to warrant separate implementations.
type bitmapRegion struct {
	disk  *sectorStore
	start int32 // first sector of the region
	nsec  int32 // number of sectors in the region
	log   *logrus.Logger
}

func newBitmapRegion(disk *sectorStore, start, nsec int32, log *logrus.Logger) *bitmapRegion {
	if log == nil {
		log = discardLogger()
	}
	return &bitmapRegion{disk: disk, start: start, nsec: nsec, log: log}
}

func (b *bitmapRegion) capacity() int32 {
	return b.nsec * b.disk.g.SectorSize * 8
}

// locate returns the sector id and the byte offset within that sector for
// bit index i.
func (b *bitmapRegion) locate(i int32) (sector, byteOff int32, mask byte) {
	bitsPerSector := b.disk.g.SectorSize * 8
	sector = b.start + i/bitsPerSector
	withinSector := i % bitsPerSector
	byteOff = withinSector / 8
	mask = 0x80 >> uint(withinSector%8)
	return
}

// Initialize writes the region so that the first k bits are 1 and the
// remaining bits are 0.
func (b *bitmapRegion) Initialize(k int32) error {
	for s := int32(0); s < b.nsec; s++ {
		buf := make([]byte, b.disk.g.SectorSize)
		base := s * b.disk.g.SectorSize * 8
		for byteIdx := range buf {
			var v byte
			for bit := 0; bit < 8; bit++ {
				global := base + int32(byteIdx)*8 + int32(bit)
				if global < k {
					v |= 0x80 >> uint(bit)
				}
			}
			buf[byteIdx] = v
		}
		if err := b.disk.writeSector(b.start+s, buf); err != nil {
			return err
		}
	}
	return nil
}

// AllocateFirstFree scans the region in sector, then byte, then
// most-significant-bit-first order for the first zero bit, sets it, and
// returns its global index. Fails with ErrNoSpace if nothing is free in
// [0, capacity).
func (b *bitmapRegion) AllocateFirstFree(capacity int32) (int32, error) {
	for s := int32(0); s < b.nsec; s++ {
		buf, err := b.disk.readSector(b.start + s)
		if err != nil {
			return 0, err
		}
		for byteIdx, v := range buf {
			if v == 0xff {
				continue
			}
			for bit := 0; bit < 8; bit++ {
				mask := byte(0x80) >> uint(bit)
				if v&mask != 0 {
					continue
				}
				global := s*b.disk.g.SectorSize*8 + int32(byteIdx)*8 + int32(bit)
				if global >= capacity {
					b.log.WithFields(logrus.Fields{"index": global, "capacity": capacity}).Warn("first free bit is padding, treating region as full")
					return 0, fmt.Errorf("%w: bitmap exhausted", ErrNoSpace)
				}
				buf[byteIdx] = v | mask
				if err := b.disk.writeSector(b.start+s, buf); err != nil {
					return 0, err
				}
				b.log.WithFields(logrus.Fields{"index": global}).Debug("bitmap bit allocated")
				return global, nil
			}
		}
	}
	b.log.WithField("capacity", capacity).Warn("bitmap exhausted, no sector had a free bit")
	return 0, fmt.Errorf("%w: bitmap exhausted", ErrNoSpace)
}

// Free clears bit i.
func (b *bitmapRegion) Free(i int32) error {
	sector, byteOff, mask := b.locate(i)
	buf, err := b.disk.readSector(sector)
	if err != nil {
		return err
	}
	buf[byteOff] &^= mask
	if err := b.disk.writeSector(sector, buf); err != nil {
		return err
	}
	b.log.WithFields(logrus.Fields{"index": i}).Debug("bitmap bit freed")
	return nil
}

// IsSet reports whether bit i is allocated.
func (b *bitmapRegion) IsSet(i int32) (bool, error) {
	sector, byteOff, mask := b.locate(i)
	buf, err := b.disk.readSector(sector)
	if err != nil {
		return false, err
	}
	return buf[byteOff]&mask != 0, nil
}

// Set forces bit i to 1 without scanning for it. Nothing in this package
// calls it: format reserves inode 0 and the metadata-region prefix with
// Initialize, and allocation always goes through AllocateFirstFree.
func (b *bitmapRegion) Set(i int32) error {
	sector, byteOff, mask := b.locate(i)
	buf, err := b.disk.readSector(sector)
	if err != nil {
		return err
	}
	buf[byteOff] |= mask
	return b.disk.writeSector(sector, buf)
}
