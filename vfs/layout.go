package vfs

import "encoding/binary"

// byteOrder is the on-disk integer encoding. The image need not be
// portable across endianness, but little endian is fixed here so the same
// test fixtures produce byte-identical images regardless of the machine
// running the tests.
var byteOrder = binary.LittleEndian

// diskMagic is the superblock's identifying 32-bit value.
const diskMagic uint32 = 0xdeadbeef

const (
	inodeTypeFile      int32 = 0
	inodeTypeDirectory int32 = 1
)

// rootInodeID is inode 0: always the root directory, and doubles as the
// open-file-table empty-slot sentinel.
const rootInodeID int32 = 0

// layout computes the absolute sector ranges of the five on-disk regions
// from a Geometry. The five regions are fixed by geometry rather than read
// back from a superblock on disk; only the magic is persisted and checked.
type layout struct {
	g Geometry

	superblockStart    int32
	inodeBitmapStart   int32
	inodeBitmapSectors int32
	sectorBitmapStart  int32
	sectorBitmapLen    int32
	inodeTableStart    int32
	inodeTableSectors  int32
	dataRegionStart    int32
}

func newLayout(g Geometry) layout {
	l := layout{g: g}
	l.superblockStart = 0
	l.inodeBitmapStart = l.superblockStart + 1
	l.inodeBitmapSectors = ceilDiv(g.MaxInodes, g.SectorSize*8)
	l.sectorBitmapStart = l.inodeBitmapStart + l.inodeBitmapSectors
	l.sectorBitmapLen = ceilDiv(g.TotalSectors, g.SectorSize*8)
	l.inodeTableStart = l.sectorBitmapStart + l.sectorBitmapLen
	l.inodeTableSectors = ceilDiv(g.MaxInodes, g.inodesPerSector())
	l.dataRegionStart = l.inodeTableStart + l.inodeTableSectors
	return l
}

// dataSectorCount returns the number of usable sectors in the data region.
func (l layout) dataSectorCount() int32 {
	return l.g.TotalSectors - l.dataRegionStart
}

// inodeLocation returns the sector id and byte offset within that sector
// for inode n.
func (l layout) inodeLocation(n int32) (sector int32, offset int32) {
	perSector := l.g.inodesPerSector()
	return l.inodeTableStart + n/perSector, (n % perSector) * l.g.inodeSize()
}

// onDiskInode is the decoded form of an inode record.
type onDiskInode struct {
	size int32
	typ  int32
	data []int32 // length g.MaxDataSectors
}

func (l layout) decodeInode(buf []byte) onDiskInode {
	n := onDiskInode{
		size: int32(byteOrder.Uint32(buf[0:4])),
		typ:  int32(byteOrder.Uint32(buf[4:8])),
		data: make([]int32, l.g.MaxDataSectors),
	}
	for i := range n.data {
		off := 8 + 4*i
		n.data[i] = int32(byteOrder.Uint32(buf[off : off+4]))
	}
	return n
}

func (l layout) encodeInode(n onDiskInode, buf []byte) {
	byteOrder.PutUint32(buf[0:4], uint32(n.size))
	byteOrder.PutUint32(buf[4:8], uint32(n.typ))
	for i := 0; i < int(l.g.MaxDataSectors); i++ {
		off := 8 + 4*i
		var v int32
		if i < len(n.data) {
			v = n.data[i]
		}
		byteOrder.PutUint32(buf[off:off+4], uint32(v))
	}
}

// onDiskDirent is the decoded form of a directory entry.
type onDiskDirent struct {
	name  string
	inode int32
}

func (l layout) decodeDirent(buf []byte) onDiskDirent {
	nameLen := int(l.g.MaxNameLen)
	raw := buf[0:nameLen]
	end := 0
	for end < len(raw) && raw[end] != 0 {
		end++
	}
	return onDiskDirent{
		name:  string(raw[:end]),
		inode: int32(byteOrder.Uint32(buf[nameLen : nameLen+4])),
	}
}

func (l layout) encodeDirent(d onDiskDirent, buf []byte) {
	nameLen := int(l.g.MaxNameLen)
	for i := range buf[:nameLen] {
		buf[i] = 0
	}
	copy(buf[:nameLen-1], d.name)
	byteOrder.PutUint32(buf[nameLen:nameLen+4], uint32(d.inode))
}

// direntIsZero reports whether a raw directory entry slot is all zero
// bytes — the tombstone left by directory.Remove.
func direntIsZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
