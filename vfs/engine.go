package vfs

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ardenfen/blockfs/backend"
)

// Engine is the mounted, in-memory metadata machinery for one disk image:
// the bitmap allocators, inode table, directory store, path resolver, and
// open-file table, all wired to one backend.Storage.
type Engine struct {
	g        Geometry
	l        layout
	storage  backend.Storage
	disk     *sectorStore
	inodeBM  *bitmapRegion
	sectorBM *bitmapRegion
	inodes   *inodeStore
	dirs     *directoryStore
	res      *resolver
	ns       *namespace
	io       *byteIO
	open     *openFileTable
	log      *logrus.Logger
	volumeID uuid.UUID
}

// Option configures an Engine at Boot time.
type Option func(*engineOptions)

type engineOptions struct {
	log *logrus.Logger
}

// WithLogger sets the logrus.Logger the engine reports to. A nil logger
// (the default) discards everything.
func WithLogger(log *logrus.Logger) Option {
	return func(o *engineOptions) { o.log = log }
}

func newEngine(storage backend.Storage, g Geometry, opts []Option) *Engine {
	var o engineOptions
	for _, apply := range opts {
		apply(&o)
	}
	if o.log == nil {
		o.log = discardLogger()
	}

	l := newLayout(g)
	disk := newSectorStore(storage, g, o.log)
	inodeBM := newBitmapRegion(disk, l.inodeBitmapStart, l.inodeBitmapSectors, o.log)
	sectorBM := newBitmapRegion(disk, l.sectorBitmapStart, l.sectorBitmapLen, o.log)
	inodes := newInodeStore(disk, l, inodeBM)
	dirs := newDirectoryStore(disk, l, sectorBM, inodes)
	res := newResolver(inodes, dirs, g)
	open := newOpenFileTable(g.MaxOpenFiles, o.log)

	e := &Engine{
		g: g, l: l, storage: storage, disk: disk,
		inodeBM: inodeBM, sectorBM: sectorBM,
		inodes: inodes, dirs: dirs, res: res, open: open,
		log: o.log,
	}
	e.ns = &namespace{res: res, inodes: inodes, dirs: dirs, sector: sectorBM, layout: l, open: open}
	e.io = &byteIO{disk: disk, layout: l, inodes: inodes, sector: sectorBM, open: open}
	return e
}

// VolumeID returns the random identifier generated for this engine when it
// was booted (whether the image was freshly formatted or already existed),
// used only for log correlation — it is never persisted in the on-disk
// superblock, whose unused bytes must remain unused.
func (e *Engine) VolumeID() uuid.UUID {
	return e.volumeID
}

// Stat reports free inode and free data-sector counts, derived read-only
// from the two bitmaps.
type Stat struct {
	FreeInodes   int32
	TotalInodes  int32
	FreeSectors  int32
	TotalSectors int32
}

func (e *Engine) Stat() (Stat, error) {
	var s Stat
	s.TotalInodes = e.g.MaxInodes
	s.TotalSectors = e.l.dataSectorCount()
	for i := int32(0); i < e.g.MaxInodes; i++ {
		set, err := e.inodeBM.IsSet(i)
		if err != nil {
			return Stat{}, err
		}
		if !set {
			s.FreeInodes++
		}
	}
	for i := e.l.dataRegionStart; i < e.g.TotalSectors; i++ {
		set, err := e.sectorBM.IsSet(i)
		if err != nil {
			return Stat{}, err
		}
		if !set {
			s.FreeSectors++
		}
	}
	return s, nil
}

// --- namespace and I/O API surface ---

// FileCreate implements FileCreate(path).
func (e *Engine) FileCreate(path string) error {
	_, err := e.ns.CreateFileOrDirectory(inodeTypeFile, path)
	return err
}

// FileOpen implements FileOpen(path) -> fd.
func (e *Engine) FileOpen(path string) (int32, error) {
	return e.io.Open(e.res, path)
}

// FileRead implements FileRead(fd, buf, n) -> bytes read.
func (e *Engine) FileRead(fd int32, buf []byte) (int32, error) {
	return e.io.Read(fd, buf)
}

// FileWrite implements FileWrite(fd, buf, n) -> n.
func (e *Engine) FileWrite(fd int32, buf []byte) (int32, error) {
	return e.io.Write(fd, buf)
}

// FileSeek implements FileSeek(fd, offset).
func (e *Engine) FileSeek(fd int32, offset int32) error {
	return e.io.Seek(fd, offset)
}

// FileClose implements FileClose(fd).
func (e *Engine) FileClose(fd int32) error {
	return e.io.Close(fd)
}

// FileUnlink implements FileUnlink(path).
func (e *Engine) FileUnlink(path string) error {
	return e.ns.FileUnlink(path)
}

// DirCreate implements DirCreate(path).
func (e *Engine) DirCreate(path string) error {
	_, err := e.ns.CreateFileOrDirectory(inodeTypeDirectory, path)
	return err
}

// DirSize implements DirSize(path) -> byte count.
func (e *Engine) DirSize(path string) (int32, error) {
	return e.ns.DirSize(path)
}

// DirEntry is one entry in a directory listing (SPEC_FULL.md DirList).
type DirEntry struct {
	Name  string
	Inode int32
}

// DirRead implements DirRead(path, buf, cap) -> entry count, writing the
// raw (name, inode) bytes of each entry slot, tombstones included, into buf.
func (e *Engine) DirRead(path string, buf []byte, capacity int32) (int32, error) {
	entries, err := e.ns.DirRead(path, capacity)
	if err != nil {
		return 0, err
	}
	direntSize := e.g.direntSize()
	for i, d := range entries {
		off := int32(i) * direntSize
		e.l.encodeDirent(d, buf[off:off+direntSize])
	}
	return int32(len(entries)), nil
}

// DirList is a structured convenience over DirRead, returning parsed
// entries instead of a raw byte buffer.
func (e *Engine) DirList(path string) ([]DirEntry, error) {
	size, err := e.ns.DirSize(path)
	if err != nil {
		return nil, err
	}
	raw, err := e.ns.DirRead(path, size)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, len(raw))
	for i, d := range raw {
		out[i] = DirEntry{Name: d.name, Inode: d.inode}
	}
	return out, nil
}

// DirUnlink implements DirUnlink(path).
func (e *Engine) DirUnlink(path string) error {
	return e.ns.DirectoryUnlink(path)
}

// Code translates err into its numeric error code.
func (e *Engine) Code(err error) Code {
	return codeOf(err)
}
