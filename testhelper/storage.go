package testhelper

import (
	"io/fs"
	"os"

	"github.com/ardenfen/blockfs/backend"
)

// StorageImpl adapts FileImpl into a backend.Storage, letting vfs tests
// inject read/write failures at specific offsets (e.g. to exercise the
// allocate-then-roll-back path in byteIO.Write) without a real file.
type StorageImpl struct {
	FileImpl
	SysErr      error
	WritableErr error
}

func (s *StorageImpl) Stat() (fs.FileInfo, error) {
	return nil, nil
}

func (s *StorageImpl) Sys() (*os.File, error) {
	return nil, s.SysErr
}

func (s *StorageImpl) Writable() (backend.WritableFile, error) {
	if s.WritableErr != nil {
		return nil, s.WritableErr
	}
	return s, nil
}
