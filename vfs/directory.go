package vfs

import "fmt"

// directoryStore manages the ordered list of (name, inode-id) entries held
// in a directory inode's data sectors, walking a chain of fixed-size
// entries across sectors to look up or append by name, with a
// non-decrementing tombstone-delete behavior kept intentionally rather
// than fixed.
type directoryStore struct {
	disk         *sectorStore
	layout       layout
	sectorBitmap *bitmapRegion
	inodes       *inodeStore
}

func newDirectoryStore(disk *sectorStore, l layout, sectorBitmap *bitmapRegion, inodes *inodeStore) *directoryStore {
	return &directoryStore{disk: disk, layout: l, sectorBitmap: sectorBitmap, inodes: inodes}
}

func (d *directoryStore) direntsPerSector() int32 {
	return d.layout.g.direntsPerSector()
}

// Append adds (name, childID) as the parent directory's new last entry,
// allocating a fresh backing sector when the current tail is full
//.
func (d *directoryStore) Append(parentID int32, parent *onDiskInode, name string, childID int32) error {
	perSector := d.direntsPerSector()
	slot := parent.size % perSector
	groupIdx := parent.size / perSector

	var sectorID int32
	if slot == 0 {
		if groupIdx >= d.layout.g.MaxDataSectors {
			return fmt.Errorf("%w: directory inode %d has reached its maximum size", ErrNoSpace, parentID)
		}
		newSector, err := d.sectorBitmap.AllocateFirstFree(d.layout.g.TotalSectors)
		if err != nil {
			return err
		}
		if err := d.disk.zeroSector(newSector); err != nil {
			_ = d.sectorBitmap.Free(newSector)
			return err
		}
		parent.data[groupIdx] = newSector
		sectorID = newSector
	} else {
		sectorID = parent.data[groupIdx]
	}

	buf, err := d.disk.readSector(sectorID)
	if err != nil {
		return err
	}
	direntSize := d.layout.g.direntSize()
	off := slot * direntSize
	d.layout.encodeDirent(onDiskDirent{name: name, inode: childID}, buf[off:off+direntSize])
	if err := d.disk.writeSector(sectorID, buf); err != nil {
		return err
	}

	parent.size++
	return d.inodes.write(parentID, *parent)
}

// Remove zeroes the entry for childID without decrementing size or
// freeing its backing sector: entries are tombstoned, never compacted.
func (d *directoryStore) Remove(parentID int32, parent onDiskInode, childID int32) error {
	perSector := d.direntsPerSector()
	direntSize := d.layout.g.direntSize()
	remaining := parent.size
	for groupIdx := int32(0); remaining > 0; groupIdx++ {
		sectorID := parent.data[groupIdx]
		buf, err := d.disk.readSector(sectorID)
		if err != nil {
			return err
		}
		live := perSector
		if remaining < live {
			live = remaining
		}
		changed := false
		for slot := int32(0); slot < live; slot++ {
			off := slot * direntSize
			entry := buf[off : off+direntSize]
			if direntIsZero(entry) {
				continue
			}
			de := d.layout.decodeDirent(entry)
			if de.inode == childID {
				for i := range entry {
					entry[i] = 0
				}
				changed = true
				break
			}
		}
		if changed {
			return d.disk.writeSector(sectorID, buf)
		}
		remaining -= live
	}
	return fmt.Errorf("%w: inode %d not found in directory %d", ErrGeneral, childID, parentID)
}

// Scan returns the inode id bound to name in parent, or found=false if no
// live (non-tombstoned) entry matches.
func (d *directoryStore) Scan(parent onDiskInode, name string) (childID int32, found bool, err error) {
	perSector := d.direntsPerSector()
	direntSize := d.layout.g.direntSize()
	remaining := parent.size
	for groupIdx := int32(0); remaining > 0; groupIdx++ {
		sectorID := parent.data[groupIdx]
		buf, rerr := d.disk.readSector(sectorID)
		if rerr != nil {
			return 0, false, rerr
		}
		live := perSector
		if remaining < live {
			live = remaining
		}
		for slot := int32(0); slot < live; slot++ {
			off := slot * direntSize
			entry := buf[off : off+direntSize]
			if direntIsZero(entry) {
				continue
			}
			de := d.layout.decodeDirent(entry)
			if de.name == name {
				return de.inode, true, nil
			}
		}
		remaining -= live
	}
	return 0, false, nil
}

// ReadAll copies every entry slot counted in parent.size into dst, in
// order, returning the entry count. Tombstoned slots are copied too (as an
// empty name with inode 0). dst must be large enough; callers enforce
// ErrBufferTooSmall before calling this.
func (d *directoryStore) ReadAll(parent onDiskInode, dst []onDiskDirent) (int32, error) {
	perSector := d.direntsPerSector()
	direntSize := d.layout.g.direntSize()
	remaining := parent.size
	var out int32
	for groupIdx := int32(0); remaining > 0; groupIdx++ {
		sectorID := parent.data[groupIdx]
		buf, err := d.disk.readSector(sectorID)
		if err != nil {
			return 0, err
		}
		live := perSector
		if remaining < live {
			live = remaining
		}
		for slot := int32(0); slot < live; slot++ {
			off := slot * direntSize
			dst[out] = d.layout.decodeDirent(buf[off : off+direntSize])
			out++
		}
		remaining -= live
	}
	return out, nil
}
