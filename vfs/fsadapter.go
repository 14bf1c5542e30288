package vfs

import (
	"io"
	"io/fs"
	"path"
	"time"
)

// FS exposes a read-only io/fs.FS view of the engine so it can feed
// http.FileServer or fs.WalkDir.
func FS(e *Engine) fs.FS {
	return fsAdapter{e: e}
}

type fsAdapter struct{ e *Engine }

func (a fsAdapter) Open(name string) (fs.File, error) {
	p := "/" + name
	if name == "." {
		p = "/"
	}
	entries, err := a.e.DirList(pathDir(p))
	if err == nil {
		// parent resolved as a directory; is name itself a directory?
		for _, ent := range entries {
			if ent.Name == pathBase(p) {
				inode, ierr := a.e.inodes.read(ent.Inode)
				if ierr == nil && inode.typ == inodeTypeDirectory {
					return a.openDir(p)
				}
			}
		}
	}
	if p == "/" {
		return a.openDir(p)
	}
	fd, err := a.e.FileOpen(p)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: translateToStdErr(err)}
	}
	return &fsFile{e: a.e, fd: fd, name: pathBase(p)}, nil
}

func (a fsAdapter) openDir(p string) (fs.File, error) {
	entries, err := a.e.DirList(p)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: p, Err: translateToStdErr(err)}
	}
	return &fsDir{name: pathBase(p), entries: entries, e: a.e}, nil
}

func pathDir(p string) string {
	d := path.Dir(p)
	return d
}

func pathBase(p string) string {
	return path.Base(p)
}

func translateToStdErr(err error) error {
	switch {
	case err == nil:
		return nil
	default:
		return fs.ErrNotExist
	}
}

type fsFile struct {
	e    *Engine
	fd   int32
	name string
}

func (f *fsFile) Stat() (fs.FileInfo, error) {
	size := int64(0)
	if r, err := f.e.open.mustOpen(f.fd); err == nil {
		size = int64(r.size)
	}
	return fsFileInfo{name: f.name, size: size}, nil
}

func (f *fsFile) Read(b []byte) (int, error) {
	n, err := f.e.FileRead(f.fd, b)
	if err != nil {
		return int(n), err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return int(n), nil
}

func (f *fsFile) Close() error {
	return f.e.FileClose(f.fd)
}

type fsDir struct {
	e       *Engine
	name    string
	entries []DirEntry
}

func (d *fsDir) Stat() (fs.FileInfo, error) {
	return fsFileInfo{name: d.name, isDir: true}, nil
}

func (d *fsDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *fsDir) Close() error { return nil }

func (d *fsDir) ReadDir(n int) ([]fs.DirEntry, error) {
	out := make([]fs.DirEntry, 0, len(d.entries))
	for _, ent := range d.entries {
		inode, err := d.e.inodes.read(ent.Inode)
		if err != nil {
			continue
		}
		out = append(out, fsDirEntry{name: ent.Name, isDir: inode.typ == inodeTypeDirectory})
	}
	return out, nil
}

type fsDirEntry struct {
	name  string
	isDir bool
}

func (e fsDirEntry) Name() string              { return e.name }
func (e fsDirEntry) IsDir() bool                { return e.isDir }
func (e fsDirEntry) Type() fs.FileMode          { return e.info().Mode().Type() }
func (e fsDirEntry) Info() (fs.FileInfo, error) { return e.info(), nil }
func (e fsDirEntry) info() fsFileInfo           { return fsFileInfo{name: e.name, isDir: e.isDir} }

type fsFileInfo struct {
	name  string
	isDir bool
	size  int64
}

func (i fsFileInfo) Name() string { return i.name }
func (i fsFileInfo) Size() int64  { return i.size }
func (i fsFileInfo) Mode() fs.FileMode {
	if i.isDir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
func (i fsFileInfo) ModTime() time.Time { return time.Time{} }
func (i fsFileInfo) IsDir() bool        { return i.isDir }
func (i fsFileInfo) Sys() interface{}   { return nil }
