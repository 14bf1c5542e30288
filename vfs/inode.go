package vfs

import "fmt"

// inodeStore is the fixed-slot table of inodes indexed by id. Reads and
// writes always go through the full sector containing the inode; there is
// no per-inode write-back tracking — a caller reads, mutates, and
// immediately re-persists the whole record.
type inodeStore struct {
	disk   *sectorStore
	layout layout
	bitmap *bitmapRegion
}

func newInodeStore(disk *sectorStore, l layout, bm *bitmapRegion) *inodeStore {
	return &inodeStore{disk: disk, layout: l, bitmap: bm}
}

// read loads inode n directly (bypassing any resolver-local cache — see
// resolver.go for the one-sector cache used while walking a path).
func (s *inodeStore) read(n int32) (onDiskInode, error) {
	sector, offset := s.layout.inodeLocation(n)
	buf, err := s.disk.readSector(sector)
	if err != nil {
		return onDiskInode{}, err
	}
	return s.layout.decodeInode(buf[offset : offset+s.layout.g.inodeSize()]), nil
}

// write persists inode n. No implicit write-back: the caller must call
// this before discarding any buffer it mutated.
func (s *inodeStore) write(n int32, inode onDiskInode) error {
	sector, offset := s.layout.inodeLocation(n)
	buf, err := s.disk.readSector(sector)
	if err != nil {
		return err
	}
	s.layout.encodeInode(inode, buf[offset:offset+s.layout.g.inodeSize()])
	return s.disk.writeSector(sector, buf)
}

// allocate finds a free inode bit, sets it (I6: the bit flips before the
// id is recorded anywhere else), zeroes the new inode's record, and
// returns its id. On any failure after the bit is set, it is released.
func (s *inodeStore) allocate(typ int32) (int32, error) {
	n, err := s.bitmap.AllocateFirstFree(s.layout.g.MaxInodes)
	if err != nil {
		return 0, err
	}
	empty := onDiskInode{size: 0, typ: typ, data: make([]int32, s.layout.g.MaxDataSectors)}
	if err := s.write(n, empty); err != nil {
		_ = s.bitmap.Free(n)
		return 0, fmt.Errorf("%w: persist new inode %d: %v", ErrGeneral, n, err)
	}
	return n, nil
}

// free clears inode n's bitmap bit.
func (s *inodeStore) free(n int32) error {
	return s.bitmap.Free(n)
}

func (s *inodeStore) isAllocated(n int32) (bool, error) {
	return s.bitmap.IsSet(n)
}
