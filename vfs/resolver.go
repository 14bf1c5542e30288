package vfs

import (
	"fmt"
	"strings"
)

// isNameByte reports whether b is legal in the restricted filename
// alphabet [A-Za-z0-9._-].
func isNameByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '.', b == '_', b == '-':
		return true
	default:
		return false
	}
}

// validateComponent checks one path component: 1 to L-1 bytes, every byte
// in the restricted alphabet. "." and ".." are not interpreted specially
// and are legal leaf names.
func validateComponent(name string, maxNameLen int32) error {
	if len(name) == 0 || int32(len(name)) > maxNameLen-1 {
		return fmt.Errorf("%w: component %q has invalid length", ErrBadPath, name)
	}
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return fmt.Errorf("%w: component %q contains an illegal byte", ErrBadPath, name)
		}
	}
	return nil
}

// splitPath validates the path grammar and returns the
// non-empty components of an absolute path.
func splitPath(path string, maxPathLen int32) ([]string, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, fmt.Errorf("%w: path %q does not start with /", ErrBadPath, path)
	}
	if int32(len(path)) > maxPathLen-1 {
		return nil, fmt.Errorf("%w: path %q exceeds maximum length", ErrBadPath, path)
	}
	var components []string
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue // collapse consecutive '/'
		}
		components = append(components, part)
	}
	return components, nil
}

// resolveResult is the (parent, child, last-name) triple returned from
// path resolution.
type resolveResult struct {
	parent   int32
	child    int32 // -1 if parent exists but the final component does not
	lastName string
}

// inodeCache is the one-sector metadata cache threaded through a single
// resolve() call: a small stateful object local to the resolver, created
// fresh per call and never shared across API calls.
type inodeCache struct {
	store         *inodeStore
	cachedSector  int32
	cachedBytes   []byte
	hasCachedData bool
}

func newInodeCache(store *inodeStore) *inodeCache {
	return &inodeCache{store: store}
}

// read loads inode n, reusing the cached sector buffer when n lives in the
// same sector as the previous read in this resolve() call.
func (c *inodeCache) read(n int32) (onDiskInode, error) {
	sector, offset := c.store.layout.inodeLocation(n)
	if !c.hasCachedData || c.cachedSector != sector {
		buf, err := c.store.disk.readSector(sector)
		if err != nil {
			return onDiskInode{}, err
		}
		c.cachedSector = sector
		c.cachedBytes = buf
		c.hasCachedData = true
	}
	g := c.store.layout.g
	return c.store.layout.decodeInode(c.cachedBytes[offset : offset+g.inodeSize()]), nil
}

// resolver resolves absolute paths to (parent, child, last-name) by
// descending the inode graph one directory entry at a time.
type resolver struct {
	inodes *inodeStore
	dirs   *directoryStore
	g      Geometry
}

func newResolver(inodes *inodeStore, dirs *directoryStore, g Geometry) *resolver {
	return &resolver{inodes: inodes, dirs: dirs, g: g}
}

// resolve walks path component by component from the root, including the
// special case for "/" (parent of root is root itself).
func (r *resolver) resolve(path string) (resolveResult, error) {
	components, err := splitPath(path, r.g.MaxPathLen)
	if err != nil {
		return resolveResult{}, err
	}
	if len(components) == 0 {
		return resolveResult{parent: rootInodeID, child: rootInodeID}, nil
	}

	cache := newInodeCache(r.inodes)
	cur := int32(rootInodeID)
	curInode, err := cache.read(cur)
	if err != nil {
		return resolveResult{}, err
	}

	last := len(components) - 1
	for i, comp := range components {
		if err := validateComponent(comp, r.g.MaxNameLen); err != nil {
			return resolveResult{}, err
		}
		if curInode.typ != inodeTypeDirectory {
			return resolveResult{}, fmt.Errorf("%w: %q is not a directory", ErrNotDirectory, comp)
		}
		next, found, err := r.dirs.Scan(curInode, comp)
		if err != nil {
			return resolveResult{}, err
		}
		if !found {
			if i != last {
				return resolveResult{}, fmt.Errorf("%w: %q", ErrNoSuchDir, comp)
			}
			return resolveResult{parent: cur, child: -1, lastName: comp}, nil
		}
		parent := cur
		cur = next
		if i == last {
			return resolveResult{parent: parent, child: cur, lastName: comp}, nil
		}
		curInode, err = cache.read(cur)
		if err != nil {
			return resolveResult{}, err
		}
	}
	// unreachable: len(components) > 0 guarantees the loop returns.
	return resolveResult{}, fmt.Errorf("%w: empty path", ErrBadPath)
}
