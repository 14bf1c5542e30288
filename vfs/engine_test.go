package vfs

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func bootTestEngine(t *testing.T, g Geometry) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	e, err := Boot(path, g)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	return e
}

func TestBootFormatsFreshImageWithEmptyRoot(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())
	entries, err := e.DirList("/")
	if err != nil {
		t.Fatalf("DirList(/): %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("fresh root should be empty, got %d entries", len(entries))
	}
}

func TestFileCreateOpenWriteReadClose(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())

	if err := e.FileCreate("/hello.txt"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}

	fd, err := e.FileOpen("/hello.txt")
	if err != nil {
		t.Fatalf("FileOpen: %v", err)
	}
	payload := []byte("hello, blockfs")
	n, err := e.FileWrite(fd, payload)
	if err != nil {
		t.Fatalf("FileWrite: %v", err)
	}
	if int(n) != len(payload) {
		t.Fatalf("wrote %d bytes, want %d", n, len(payload))
	}
	if err := e.FileSeek(fd, 0); err != nil {
		t.Fatalf("FileSeek: %v", err)
	}

	buf := make([]byte, len(payload))
	n, err = e.FileRead(fd, buf)
	if err != nil {
		t.Fatalf("FileRead: %v", err)
	}
	if !bytes.Equal(buf[:n], payload) {
		t.Fatalf("read back %q, want %q", buf[:n], payload)
	}
	if err := e.FileClose(fd); err != nil {
		t.Fatalf("FileClose: %v", err)
	}
}

func TestFileWriteSpanningMultipleSectors(t *testing.T) {
	g := DefaultGeometry()
	e := bootTestEngine(t, g)

	if err := e.FileCreate("/big.bin"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	fd, err := e.FileOpen("/big.bin")
	if err != nil {
		t.Fatalf("FileOpen: %v", err)
	}

	payload := make([]byte, int(g.SectorSize)*3+17)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	if _, err := e.FileWrite(fd, payload); err != nil {
		t.Fatalf("FileWrite: %v", err)
	}
	if err := e.FileSeek(fd, 0); err != nil {
		t.Fatalf("FileSeek: %v", err)
	}

	got := make([]byte, len(payload))
	total := 0
	for total < len(got) {
		n, err := e.FileRead(fd, got[total:])
		if err != nil {
			t.Fatalf("FileRead: %v", err)
		}
		if n == 0 {
			break
		}
		total += int(n)
	}
	if !bytes.Equal(got[:total], payload) {
		t.Fatal("multi-sector round trip mismatch")
	}
	_ = e.FileClose(fd)
}

func TestFileWriteRefusesToExceedMaxSize(t *testing.T) {
	g := DefaultGeometry()
	e := bootTestEngine(t, g)

	if err := e.FileCreate("/huge.bin"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	fd, err := e.FileOpen("/huge.bin")
	if err != nil {
		t.Fatalf("FileOpen: %v", err)
	}
	tooBig := make([]byte, int(g.SectorSize)*int(g.MaxDataSectors)+1)
	if _, err := e.FileWrite(fd, tooBig); !errors.Is(err, ErrFileTooBig) {
		t.Fatalf("expected ErrFileTooBig, got %v", err)
	}
}

func TestFileUnlinkFreesNameForReuse(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())

	if err := e.FileCreate("/a.txt"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	if err := e.FileUnlink("/a.txt"); err != nil {
		t.Fatalf("FileUnlink: %v", err)
	}
	if err := e.FileCreate("/a.txt"); err != nil {
		t.Fatalf("recreate after unlink should succeed: %v", err)
	}
}

func TestFileUnlinkRefusesOpenFile(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())
	if err := e.FileCreate("/a.txt"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	fd, err := e.FileOpen("/a.txt")
	if err != nil {
		t.Fatalf("FileOpen: %v", err)
	}
	defer func() { _ = e.FileClose(fd) }()

	if err := e.FileUnlink("/a.txt"); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse while the file is open, got %v", err)
	}
}

func TestDirCreateNestedAndList(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())

	if err := e.DirCreate("/sub"); err != nil {
		t.Fatalf("DirCreate(/sub): %v", err)
	}
	if err := e.DirCreate("/sub/nested"); err != nil {
		t.Fatalf("DirCreate(/sub/nested): %v", err)
	}
	if err := e.FileCreate("/sub/file.txt"); err != nil {
		t.Fatalf("FileCreate(/sub/file.txt): %v", err)
	}

	entries, err := e.DirList("/sub")
	if err != nil {
		t.Fatalf("DirList(/sub): %v", err)
	}
	names := map[string]bool{}
	for _, d := range entries {
		names[d.Name] = true
	}
	if !names["nested"] || !names["file.txt"] {
		t.Fatalf("expected nested and file.txt in /sub, got %+v", entries)
	}
}

func TestDirUnlinkRefusesNonEmptyAndRoot(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())

	if err := e.DirUnlink("/"); !errors.Is(err, ErrRootDir) {
		t.Fatalf("expected ErrRootDir for /, got %v", err)
	}

	if err := e.DirCreate("/sub"); err != nil {
		t.Fatalf("DirCreate: %v", err)
	}
	if err := e.FileCreate("/sub/file.txt"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	if err := e.DirUnlink("/sub"); !errors.Is(err, ErrNotEmpty) {
		t.Fatalf("expected ErrNotEmpty for a non-empty directory, got %v", err)
	}

	if err := e.FileUnlink("/sub/file.txt"); err != nil {
		t.Fatalf("FileUnlink: %v", err)
	}
	if err := e.DirUnlink("/sub"); !errors.Is(err, ErrNotEmpty) {
		t.Fatalf("expected ErrNotEmpty after unlinking the only entry (size never shrinks), got %v", err)
	}
}

func TestDirectoryTombstoneNeverShrinksSize(t *testing.T) {
	// A directory's size counts every entry slot ever appended, including
	// tombstoned ones; removing the only entry does not make the directory
	// eligible for DirUnlink again.
	e := bootTestEngine(t, DefaultGeometry())

	if err := e.DirCreate("/sub"); err != nil {
		t.Fatalf("DirCreate: %v", err)
	}
	if err := e.FileCreate("/sub/only.txt"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	if err := e.FileUnlink("/sub/only.txt"); err != nil {
		t.Fatalf("FileUnlink: %v", err)
	}
	if err := e.DirUnlink("/sub"); !errors.Is(err, ErrNotEmpty) {
		t.Fatalf("expected ErrNotEmpty even though every entry is a tombstone, got %v", err)
	}
}

func TestCreateRefusesDuplicatePath(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())
	if err := e.FileCreate("/dup.txt"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	if err := e.FileCreate("/dup.txt"); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists for a duplicate path, got %v", err)
	}
}

func TestOpenFileTableExhaustion(t *testing.T) {
	g := DefaultGeometry()
	g.MaxOpenFiles = 2
	e := bootTestEngine(t, g)

	for i := 0; i < 2; i++ {
		name := string(rune('a' + i))
		if err := e.FileCreate("/" + name); err != nil {
			t.Fatalf("FileCreate: %v", err)
		}
		if _, err := e.FileOpen("/" + name); err != nil {
			t.Fatalf("FileOpen: %v", err)
		}
	}
	if err := e.FileCreate("/z"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	if _, err := e.FileOpen("/z"); !errors.Is(err, ErrTooManyOpen) {
		t.Fatalf("expected ErrTooManyOpen, got %v", err)
	}
}

func TestSeekOutOfBoundsRejected(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())
	if err := e.FileCreate("/a.txt"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	fd, err := e.FileOpen("/a.txt")
	if err != nil {
		t.Fatalf("FileOpen: %v", err)
	}
	defer func() { _ = e.FileClose(fd) }()

	if err := e.FileSeek(fd, -1); !errors.Is(err, ErrSeekOutOfBounds) {
		t.Fatalf("expected ErrSeekOutOfBounds for negative offset, got %v", err)
	}
	if err := e.FileSeek(fd, 1); !errors.Is(err, ErrSeekOutOfBounds) {
		t.Fatalf("expected ErrSeekOutOfBounds past end of empty file, got %v", err)
	}
}

func TestStatReflectsAllocations(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())
	before, err := e.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := e.FileCreate("/a.txt"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	after, err := e.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if after.FreeInodes != before.FreeInodes-1 {
		t.Fatalf("expected free inode count to drop by one: before %d, after %d", before.FreeInodes, after.FreeInodes)
	}
}

func TestFileCreateRejectsPathGrammarViolations(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())
	cases := []string{"relative.txt", "/has a space", "/bad*name"}
	for _, p := range cases {
		if err := e.FileCreate(p); !errors.Is(err, ErrBadPath) {
			t.Fatalf("path %q: expected ErrBadPath, got %v", p, err)
		}
	}
}

func TestTrailingSlashCollapsesToSameComponent(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())
	if err := e.DirCreate("/trailing/"); err != nil {
		t.Fatalf("trailing slash should collapse to a single component: %v", err)
	}
	if _, err := e.DirList("/trailing"); err != nil {
		t.Fatalf("DirList without trailing slash should find the same directory: %v", err)
	}
}

func TestReopenExistingImagePreservesContent(t *testing.T) {
	g := DefaultGeometry()
	path := filepath.Join(t.TempDir(), "image.bin")

	e1, err := Boot(path, g)
	if err != nil {
		t.Fatalf("Boot (format): %v", err)
	}
	if err := e1.FileCreate("/persisted.txt"); err != nil {
		t.Fatalf("FileCreate: %v", err)
	}
	fd, err := e1.FileOpen("/persisted.txt")
	if err != nil {
		t.Fatalf("FileOpen: %v", err)
	}
	if _, err := e1.FileWrite(fd, []byte("durable")); err != nil {
		t.Fatalf("FileWrite: %v", err)
	}
	if err := e1.FileClose(fd); err != nil {
		t.Fatalf("FileClose: %v", err)
	}
	if err := e1.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	e2, err := Boot(path, g)
	if err != nil {
		t.Fatalf("Boot (reopen): %v", err)
	}
	fd2, err := e2.FileOpen("/persisted.txt")
	if err != nil {
		t.Fatalf("FileOpen after reopen: %v", err)
	}
	buf := make([]byte, 7)
	n, err := e2.FileRead(fd2, buf)
	if err != nil {
		t.Fatalf("FileRead after reopen: %v", err)
	}
	if string(buf[:n]) != "durable" {
		t.Fatalf("content did not survive reopen: got %q", buf[:n])
	}
}

func TestCodeTranslatesErrorsToStableNumericDomain(t *testing.T) {
	e := bootTestEngine(t, DefaultGeometry())
	if e.Code(nil) != CodeOK {
		t.Fatal("nil error should map to CodeOK")
	}
	_, err := e.FileOpen("/missing.txt")
	if e.Code(err) != CodeNoSuchFile {
		t.Fatalf("expected CodeNoSuchFile, got %v", e.Code(err))
	}
}
