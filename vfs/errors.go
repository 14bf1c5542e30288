package vfs

import "errors"

// Error kinds, one per abstract failure the engine can report. Every error
// here carries no extra data beyond its kind, so sentinels checked with
// errors.Is are the natural fit throughout the engine.
var (
	// ErrGeneral covers I/O errors, malformed images, and internal
	// inconsistencies.
	ErrGeneral = errors.New("vfs: general failure")
	// ErrExists is returned when a create targets a path that already
	// resolves to an inode, and also wraps a create whose new entry could
	// not be appended to the parent directory.
	ErrExists = errors.New("vfs: path already exists")
	// ErrNoSuchFile is returned when a file operation's path does not
	// resolve.
	ErrNoSuchFile = errors.New("vfs: no such file")
	// ErrNoSuchDir is returned when a directory operation's path does
	// not resolve.
	ErrNoSuchDir = errors.New("vfs: no such directory")
	// ErrInUse is returned when FileUnlink targets a file that is
	// currently open.
	ErrInUse = errors.New("vfs: file is open")
	// ErrTooManyOpen is returned when the open-file table is full.
	ErrTooManyOpen = errors.New("vfs: too many open files")
	// ErrBadFD is returned for an out-of-range or closed descriptor.
	ErrBadFD = errors.New("vfs: bad file descriptor")
	// ErrNoSpace is returned when the sector bitmap is exhausted
	// mid-write.
	ErrNoSpace = errors.New("vfs: no free data sectors")
	// ErrFileTooBig is returned when a write would exceed M*S bytes.
	ErrFileTooBig = errors.New("vfs: file would exceed maximum size")
	// ErrSeekOutOfBounds is returned for an offset outside [0, size].
	ErrSeekOutOfBounds = errors.New("vfs: seek offset out of bounds")
	// ErrNotEmpty is returned when DirUnlink targets a directory whose
	// size is still non-zero (including one that is fully tombstoned;
	// see directory.go).
	ErrNotEmpty = errors.New("vfs: directory not empty")
	// ErrRootDir is returned when DirUnlink targets "/".
	ErrRootDir = errors.New("vfs: cannot remove root directory")
	// ErrBufferTooSmall is returned when DirRead's buffer cannot hold
	// the directory's entries.
	ErrBufferTooSmall = errors.New("vfs: buffer too small")
	// ErrBadPath is returned for a path that fails the path/name
	// grammar (see resolver.go).
	ErrBadPath = errors.New("vfs: malformed path")
	// ErrNotDirectory is returned when a non-terminal path component,
	// or the target of a directory-only operation, is not a directory.
	ErrNotDirectory = errors.New("vfs: not a directory")
	// ErrNotFile is returned when a file-only operation targets a
	// directory inode.
	ErrNotFile = errors.New("vfs: not a file")
)

// Code is a numeric error code: CodeOK (0) for a nil error and one positive
// value per error kind, obtained from an error via Engine.Code. It exists
// for callers that need a stable integer error domain; idiomatic Go callers
// should prefer checking the returned error with errors.Is.
type Code int

const (
	CodeOK Code = iota
	CodeGeneral
	CodeCreate
	CodeNoSuchFile
	CodeNoSuchDir
	CodeInUse
	CodeTooManyOpen
	CodeBadFD
	CodeNoSpace
	CodeFileTooBig
	CodeSeekOutOfBounds
	CodeNotEmpty
	CodeRootDir
	CodeBufferTooSmall
)

// codeOf maps an engine error back to its numeric code.
func codeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrExists):
		return CodeCreate
	case errors.Is(err, ErrNoSuchFile):
		return CodeNoSuchFile
	case errors.Is(err, ErrNoSuchDir):
		return CodeNoSuchDir
	case errors.Is(err, ErrInUse):
		return CodeInUse
	case errors.Is(err, ErrTooManyOpen):
		return CodeTooManyOpen
	case errors.Is(err, ErrBadFD):
		return CodeBadFD
	case errors.Is(err, ErrNoSpace):
		return CodeNoSpace
	case errors.Is(err, ErrFileTooBig):
		return CodeFileTooBig
	case errors.Is(err, ErrSeekOutOfBounds):
		return CodeSeekOutOfBounds
	case errors.Is(err, ErrNotEmpty):
		return CodeNotEmpty
	case errors.Is(err, ErrRootDir):
		return CodeRootDir
	case errors.Is(err, ErrBufferTooSmall):
		return CodeBufferTooSmall
	default:
		return CodeGeneral
	}
}
