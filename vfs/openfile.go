package vfs

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// openFileRecord is one slot in the open-file table; inode==0 marks a free
// slot, since inode 0 is the root directory and can never be opened as a
// regular file.
type openFileRecord struct {
	inode int32
	size  int32
	pos   int32
}

func (r openFileRecord) empty() bool { return r.inode == rootInodeID }

// openFileTable is the process-wide fixed array of open-file records. It
// hands back integer descriptors rather than *os.File-shaped handles.
type openFileTable struct {
	records []openFileRecord
	log     *logrus.Logger
}

func newOpenFileTable(capacity int32, log *logrus.Logger) *openFileTable {
	return &openFileTable{records: make([]openFileRecord, capacity), log: log}
}

// IsOpen reports whether inode n has any open descriptor.
func (t *openFileTable) IsOpen(n int32) bool {
	for _, r := range t.records {
		if !r.empty() && r.inode == n {
			return true
		}
	}
	return false
}

func (t *openFileTable) open(inode, size int32) (int32, error) {
	for i, r := range t.records {
		if r.empty() {
			t.records[i] = openFileRecord{inode: inode, size: size, pos: 0}
			return int32(i), nil
		}
	}
	return 0, fmt.Errorf("%w: open-file table is full", ErrTooManyOpen)
}

func (t *openFileTable) close(fd int32) error {
	r, err := t.get(fd)
	if err != nil {
		return err
	}
	if r.empty() {
		t.log.WithField("fd", fd).Warn("close on fd that is not open")
		return fmt.Errorf("%w: fd %d is not open", ErrBadFD, fd)
	}
	t.records[fd] = openFileRecord{}
	return nil
}

func (t *openFileTable) get(fd int32) (openFileRecord, error) {
	if fd < 0 || int(fd) >= len(t.records) {
		t.log.WithField("fd", fd).Warn("fd out of range")
		return openFileRecord{}, fmt.Errorf("%w: fd %d out of range", ErrBadFD, fd)
	}
	return t.records[fd], nil
}

func (t *openFileTable) mustOpen(fd int32) (openFileRecord, error) {
	r, err := t.get(fd)
	if err != nil {
		return openFileRecord{}, err
	}
	if r.empty() {
		t.log.WithField("fd", fd).Warn("operation on fd that is not open")
		return openFileRecord{}, fmt.Errorf("%w: fd %d is not open", ErrBadFD, fd)
	}
	return r, nil
}

func (t *openFileTable) set(fd int32, r openFileRecord) {
	t.records[fd] = r
}

// byteIO implements sector-granular read/write/seek on top of the
// open-file table, the inode store, and the data-sector bitmap.
type byteIO struct {
	disk   *sectorStore
	layout layout
	inodes *inodeStore
	sector *bitmapRegion
	open   *openFileTable
}

// Open resolves path, binds it to a free descriptor, and returns the fd.
func (b *byteIO) Open(res *resolver, path string) (int32, error) {
	rr, err := res.resolve(path)
	if err != nil {
		return 0, err
	}
	if rr.child < 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoSuchFile, path)
	}
	inode, err := b.inodes.read(rr.child)
	if err != nil {
		return 0, err
	}
	if inode.typ != inodeTypeFile {
		return 0, fmt.Errorf("%w: %q is not a file", ErrGeneral, path)
	}
	return b.open.open(rr.child, inode.size)
}

// Close frees fd's slot in the open-file table.
func (b *byteIO) Close(fd int32) error {
	return b.open.close(fd)
}

// Seek repositions fd's cursor to an absolute offset within [0, size].
func (b *byteIO) Seek(fd int32, offset int32) error {
	r, err := b.open.mustOpen(fd)
	if err != nil {
		return err
	}
	if offset < 0 || offset > r.size {
		return fmt.Errorf("%w: offset %d outside [0, %d]", ErrSeekOutOfBounds, offset, r.size)
	}
	r.pos = offset
	b.open.set(fd, r)
	return nil
}

// Read copies up to len(buf) bytes starting at fd's current position.
func (b *byteIO) Read(fd int32, buf []byte) (int32, error) {
	r, err := b.open.mustOpen(fd)
	if err != nil {
		return 0, err
	}
	if r.pos == r.size {
		return 0, nil
	}
	inode, err := b.inodes.read(r.inode)
	if err != nil {
		return 0, err
	}

	var total int32
	want := int32(len(buf))
	S := b.layout.g.SectorSize
	for total < want && r.pos < r.size {
		sectorIdx := r.pos / S
		sector, err := b.disk.readSector(inode.data[sectorIdx])
		if err != nil {
			return total, err
		}
		withinSector := r.pos % S
		n := S - withinSector
		if rem := want - total; rem < n {
			n = rem
		}
		if rem := r.size - r.pos; rem < n {
			n = rem
		}
		copy(buf[total:total+n], sector[withinSector:withinSector+n])
		total += n
		r.pos += n
	}
	b.open.set(fd, r)
	return total, nil
}

// Write copies buf into the file starting at fd's current position,
// allocating new data sectors as needed. Sectors allocated during this
// call are freed if a later allocation in the same call fails.
func (b *byteIO) Write(fd int32, buf []byte) (int32, error) {
	r, err := b.open.mustOpen(fd)
	if err != nil {
		return 0, err
	}
	n := int32(len(buf))
	S := b.layout.g.SectorSize
	maxBytes := b.layout.g.MaxDataSectors * S
	if r.pos+n > maxBytes {
		return 0, fmt.Errorf("%w: write would extend file past %d bytes", ErrFileTooBig, maxBytes)
	}

	inode, err := b.inodes.read(r.inode)
	if err != nil {
		return 0, err
	}

	currentSectors := ceilDiv(inode.size, S)
	neededSectors := ceilDiv(r.pos+n, S)
	var allocated []int32
	for s := currentSectors; s < neededSectors; s++ {
		id, err := b.sector.AllocateFirstFree(b.layout.g.TotalSectors)
		if err != nil {
			for _, a := range allocated {
				_ = b.sector.Free(a)
			}
			return 0, err
		}
		if err := b.disk.zeroSector(id); err != nil {
			_ = b.sector.Free(id)
			for _, a := range allocated {
				_ = b.sector.Free(a)
			}
			return 0, fmt.Errorf("%w: %v", ErrGeneral, err)
		}
		inode.data[s] = id
		allocated = append(allocated, id)
	}

	newSize := r.pos + n
	if newSize > inode.size {
		inode.size = newSize
	}
	if err := b.inodes.write(r.inode, inode); err != nil {
		for _, a := range allocated {
			_ = b.sector.Free(a)
		}
		return 0, fmt.Errorf("%w: %v", ErrGeneral, err)
	}

	var written int32
	for written < n {
		sectorIdx := (r.pos + written) / S
		sector, err := b.disk.readSector(inode.data[sectorIdx])
		if err != nil {
			return written, err
		}
		withinSector := (r.pos + written) % S
		chunk := S - withinSector
		if rem := n - written; rem < chunk {
			chunk = rem
		}
		copy(sector[withinSector:withinSector+chunk], buf[written:written+chunk])
		if err := b.disk.writeSector(inode.data[sectorIdx], sector); err != nil {
			return written, err
		}
		written += chunk
	}

	r.pos += n
	r.size = inode.size
	b.open.set(fd, r)
	return written, nil
}
