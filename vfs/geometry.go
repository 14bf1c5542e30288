// Package vfs implements a simulated block-oriented file system: a small
// hierarchical namespace of files and directories persisted as raw sectors
// to a single backing store. It plays the role a real ext4 filesystem
// driver plays for an ext4 image, except the on-disk layout is a fixed,
// custom five-region format rather than ext4's.
package vfs

import "fmt"

// Geometry holds the fixed parameters that must stay consistent across a
// disk image's lifetime: exactly one filesystem type, sized by a
// sector/inode/name-length budget rather than a partition layout.
type Geometry struct {
	// SectorSize is S, the size in bytes of one sector.
	SectorSize int32
	// TotalSectors is T, the total number of sectors in the image.
	TotalSectors int32
	// MaxInodes is F, the maximum number of files/directories.
	MaxInodes int32
	// MaxDataSectors is M, the maximum number of data sectors per inode.
	MaxDataSectors int32
	// MaxNameLen is L, including the NUL terminator.
	MaxNameLen int32
	// MaxOpenFiles is O, the size of the open-file table.
	MaxOpenFiles int32
	// MaxPathLen is P, including the NUL terminator.
	MaxPathLen int32
}

// DefaultGeometry returns the parameter set used by the scenario tests:
// S=512, M=30, L=16, F=64, T=4096, O=256, P=256.
func DefaultGeometry() Geometry {
	return Geometry{
		SectorSize:     512,
		TotalSectors:   4096,
		MaxInodes:      64,
		MaxDataSectors: 30,
		MaxNameLen:     16,
		MaxOpenFiles:   256,
		MaxPathLen:     256,
	}
}

// inodeSize returns the packed on-disk size of one inode record:
// size (4) + type (4) + M data sector ids (4 each).
func (g Geometry) inodeSize() int32 {
	return 8 + 4*g.MaxDataSectors
}

// direntSize returns the packed on-disk size of one directory entry:
// name (L bytes) + inode id (4 bytes).
func (g Geometry) direntSize() int32 {
	return g.MaxNameLen + 4
}

func (g Geometry) inodesPerSector() int32 {
	return g.SectorSize / g.inodeSize()
}

func (g Geometry) direntsPerSector() int32 {
	return g.SectorSize / g.direntSize()
}

func ceilDiv(a, b int32) int32 {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Validate checks that the geometry is internally consistent: the sector
// size must be able to hold the superblock magic and at least one inode
// without straddling a sector boundary, and the region layout derived from
// it must not overlap.
func (g Geometry) Validate() error {
	if g.SectorSize < 16 {
		return fmt.Errorf("vfs: sector size %d too small", g.SectorSize)
	}
	if g.SectorSize&(g.SectorSize-1) != 0 {
		return fmt.Errorf("vfs: sector size %d is not a power of two", g.SectorSize)
	}
	if g.TotalSectors <= 0 || g.MaxInodes <= 0 || g.MaxDataSectors <= 0 {
		return fmt.Errorf("vfs: geometry has non-positive capacity field")
	}
	if g.MaxNameLen < 2 {
		return fmt.Errorf("vfs: max name length %d too small for any name plus terminator", g.MaxNameLen)
	}
	if g.inodeSize() > g.SectorSize {
		return fmt.Errorf("vfs: inode record of %d bytes does not fit in a %d byte sector", g.inodeSize(), g.SectorSize)
	}
	if g.direntSize() > g.SectorSize {
		return fmt.Errorf("vfs: directory entry of %d bytes does not fit in a %d byte sector", g.direntSize(), g.SectorSize)
	}
	l := newLayout(g)
	if l.dataRegionStart >= g.TotalSectors {
		return fmt.Errorf("vfs: metadata regions (%d sectors) consume the entire %d sector image", l.dataRegionStart, g.TotalSectors)
	}
	return nil
}
