package vfs

import "fmt"

// namespace composes the resolver, inode store, and directory store into
// the create/unlink operations: allocate or release an inode, and patch
// the parent directory's entry list to match.
type namespace struct {
	res    *resolver
	inodes *inodeStore
	dirs   *directoryStore
	sector *bitmapRegion
	layout layout
	open   *openFileTable
}

// CreateFileOrDirectory creates a file or directory at path.
func (ns *namespace) CreateFileOrDirectory(typ int32, path string) (int32, error) {
	rr, err := ns.res.resolve(path)
	if err != nil {
		return 0, err
	}
	if rr.parent < 0 {
		return 0, fmt.Errorf("%w: parent of %q does not exist", ErrNoSuchDir, path)
	}
	if rr.child >= 0 {
		return 0, fmt.Errorf("%w: %q already exists", ErrExists, path)
	}

	id, err := ns.inodes.allocate(typ)
	if err != nil {
		return 0, err
	}

	parentInode, err := ns.inodes.read(rr.parent)
	if err != nil {
		_ = ns.inodes.free(id)
		return 0, err
	}
	if err := ns.dirs.Append(rr.parent, &parentInode, rr.lastName, id); err != nil {
		_ = ns.inodes.free(id)
		return 0, fmt.Errorf("%w: %v", ErrExists, err)
	}
	return id, nil
}

// FileUnlink removes the file at path. The directory entry is removed and
// the inode bit is freed before any data-sector bit is cleared, so a data
// sector is never marked free while a still-referenced inode or directory
// entry names it (I6): the entry stops naming the inode, the inode stops
// being consultable (I3), and only then do its sectors stop being owned.
func (ns *namespace) FileUnlink(path string) error {
	rr, err := ns.res.resolve(path)
	if err != nil {
		return err
	}
	if rr.child < 0 {
		return fmt.Errorf("%w: %q", ErrNoSuchFile, path)
	}
	if ns.open.IsOpen(rr.child) {
		return fmt.Errorf("%w: %q", ErrInUse, path)
	}
	inode, err := ns.inodes.read(rr.child)
	if err != nil {
		return err
	}
	if inode.typ != inodeTypeFile {
		return fmt.Errorf("%w: %q is not a file", ErrNotFile, path)
	}

	parentInode, err := ns.inodes.read(rr.parent)
	if err != nil {
		return err
	}
	if err := ns.dirs.Remove(rr.parent, parentInode, rr.child); err != nil {
		return err
	}
	if err := ns.inodes.free(rr.child); err != nil {
		return err
	}

	used := ceilDiv(inode.size, ns.layout.g.SectorSize)
	for i := int32(0); i < used; i++ {
		if err := ns.sector.Free(inode.data[i]); err != nil {
			return err
		}
	}
	return nil
}

// DirectoryUnlink removes the directory at path. A directory whose size
// is still non-zero is refused even if every entry in it is a tombstone:
// size never decrements on Remove, so this is an intentional quirk, not a
// bug.
func (ns *namespace) DirectoryUnlink(path string) error {
	if path == "/" {
		return ErrRootDir
	}
	rr, err := ns.res.resolve(path)
	if err != nil {
		return err
	}
	if rr.child < 0 {
		return fmt.Errorf("%w: %q", ErrNoSuchDir, path)
	}
	if rr.child == rootInodeID {
		return ErrRootDir
	}
	inode, err := ns.inodes.read(rr.child)
	if err != nil {
		return err
	}
	if inode.typ != inodeTypeDirectory {
		return fmt.Errorf("%w: %q is not a directory", ErrNotDirectory, path)
	}
	if inode.size > 0 {
		return fmt.Errorf("%w: %q", ErrNotEmpty, path)
	}

	parentInode, err := ns.inodes.read(rr.parent)
	if err != nil {
		return err
	}
	if err := ns.dirs.Remove(rr.parent, parentInode, rr.child); err != nil {
		return err
	}
	return ns.inodes.free(rr.child)
}

// DirSize returns the byte size of the directory's entry list at path.
func (ns *namespace) DirSize(path string) (int32, error) {
	inode, err := ns.resolveDir(path)
	if err != nil {
		return 0, err
	}
	return inode.size * ns.layout.g.direntSize(), nil
}

// DirRead returns every entry slot of the directory at path, tombstones
// included, provided capacity bytes can hold them all.
func (ns *namespace) DirRead(path string, capacity int32) ([]onDiskDirent, error) {
	inode, err := ns.resolveDir(path)
	if err != nil {
		return nil, err
	}
	needed := inode.size * ns.layout.g.direntSize()
	if capacity < needed {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, needed, capacity)
	}
	dst := make([]onDiskDirent, inode.size)
	n, err := ns.dirs.ReadAll(inode, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

func (ns *namespace) resolveDir(path string) (onDiskInode, error) {
	rr, err := ns.res.resolve(path)
	if err != nil {
		return onDiskInode{}, err
	}
	if rr.child < 0 {
		return onDiskInode{}, fmt.Errorf("%w: %q", ErrNoSuchDir, path)
	}
	inode, err := ns.inodes.read(rr.child)
	if err != nil {
		return onDiskInode{}, err
	}
	if inode.typ != inodeTypeDirectory {
		return onDiskInode{}, fmt.Errorf("%w: %q is not a directory", ErrNotDirectory, path)
	}
	return inode, nil
}
