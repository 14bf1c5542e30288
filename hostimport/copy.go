// Package hostimport copies a host directory tree into a booted vfs.Engine.
// Timestamps, symlinks, and permission bits have no home in the on-disk
// inode, so they are dropped rather than best-effort preserved.
package hostimport

import (
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/ardenfen/blockfs/vfs"
)

const maxCopyAllSize = 64 * 1024 * 1024

// excludedNames lists entries that never belong in a synced image
// regardless of source OS.
var excludedNames = map[string]bool{
	"lost+found":                true,
	".DS_Store":                 true,
	"System Volume Information": true,
}

// CopyFromHost walks src and recreates every directory and regular file it
// finds inside the engine, rooted at "/". Symlinks and other non-regular
// files are skipped; the on-disk inode has no field to represent them.
func CopyFromHost(src fs.FS, e *vfs.Engine) error {
	return copyDir(src, e, ".")
}

func copyDir(src fs.FS, e *vfs.Engine, dir string) error {
	entries, err := fs.ReadDir(src, dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if excludedNames[name] {
			continue
		}

		p := name
		if dir != "." {
			p = path.Join(dir, name)
		}
		vfsPath := "/" + p

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}

		if entry.IsDir() {
			if err := e.DirCreate(vfsPath); err != nil {
				return fmt.Errorf("create dir %s: %w", vfsPath, err)
			}
			if err := copyDir(src, e, p); err != nil {
				return err
			}
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		if err := copyOneFile(src, e, p, vfsPath, info); err != nil {
			return fmt.Errorf("copy file %s: %w", vfsPath, err)
		}
	}

	return nil
}

func copyOneFile(src fs.FS, e *vfs.Engine, hostPath, vfsPath string, info fs.FileInfo) error {
	in, err := src.Open(hostPath)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := e.FileCreate(vfsPath); err != nil {
		return err
	}
	fd, err := e.FileOpen(vfsPath)
	if err != nil {
		return err
	}
	defer func() { _ = e.FileClose(fd) }()

	if info.Size() <= maxCopyAllSize {
		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		written := 0
		for written < len(data) {
			n, werr := e.FileWrite(fd, data[written:])
			if werr != nil {
				return werr
			}
			if n == 0 {
				return io.ErrShortWrite
			}
			written += int(n)
		}
		return nil
	}

	buf := make([]byte, 32*1024)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			written := 0
			for written < n {
				w, werr := e.FileWrite(fd, buf[written:n])
				if werr != nil {
					return werr
				}
				if w == 0 {
					return io.ErrShortWrite
				}
				written += int(w)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	return nil
}
