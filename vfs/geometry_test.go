package vfs

import "testing"

func TestDefaultGeometryValidates(t *testing.T) {
	g := DefaultGeometry()
	if err := g.Validate(); err != nil {
		t.Fatalf("default geometry should validate: %v", err)
	}
}

func TestGeometryRejectsNonPowerOfTwoSectorSize(t *testing.T) {
	g := DefaultGeometry()
	g.SectorSize = 500
	if err := g.Validate(); err == nil {
		t.Fatal("expected rejection of non-power-of-two sector size")
	}
}

func TestGeometryRejectsInodeTooLargeForSector(t *testing.T) {
	g := DefaultGeometry()
	g.SectorSize = 16
	g.MaxDataSectors = 100 // inodeSize() = 8 + 4*100 = 408, far above 16
	if err := g.Validate(); err == nil {
		t.Fatal("expected rejection of inode record larger than sector")
	}
}

func TestGeometryRejectsDirentTooLargeForSector(t *testing.T) {
	g := DefaultGeometry()
	g.SectorSize = 16
	g.MaxDataSectors = 1
	g.MaxNameLen = 64 // direntSize() = 64 + 4 = 68, above 16
	if err := g.Validate(); err == nil {
		t.Fatal("expected rejection of dirent larger than sector")
	}
}

func TestGeometryRejectsMetadataConsumingWholeImage(t *testing.T) {
	g := DefaultGeometry()
	g.TotalSectors = 1
	if err := g.Validate(); err == nil {
		t.Fatal("expected rejection when metadata regions consume the entire image")
	}
}

func TestLayoutRegionsAreOrderedAndNonOverlapping(t *testing.T) {
	g := DefaultGeometry()
	l := newLayout(g)

	starts := []int32{
		l.superblockStart,
		l.inodeBitmapStart,
		l.sectorBitmapStart,
		l.inodeTableStart,
		l.dataRegionStart,
	}
	for i := 1; i < len(starts); i++ {
		if starts[i] < starts[i-1] {
			t.Fatalf("region %d starts before region %d: %d < %d", i, i-1, starts[i], starts[i-1])
		}
	}
	if l.dataRegionStart >= g.TotalSectors {
		t.Fatalf("data region start %d leaves no usable sectors in a %d sector image", l.dataRegionStart, g.TotalSectors)
	}
}

func TestInodeEncodeDecodeRoundTrip(t *testing.T) {
	g := DefaultGeometry()
	l := newLayout(g)
	buf := make([]byte, g.inodeSize())

	want := onDiskInode{size: 1234, typ: inodeTypeFile, data: make([]int32, g.MaxDataSectors)}
	want.data[0] = 7
	want.data[len(want.data)-1] = 99

	l.encodeInode(want, buf)
	got := l.decodeInode(buf)

	if got.size != want.size || got.typ != want.typ {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
	for i := range want.data {
		if got.data[i] != want.data[i] {
			t.Fatalf("data[%d]: got %d, want %d", i, got.data[i], want.data[i])
		}
	}
}

func TestDirentEncodeDecodeRoundTrip(t *testing.T) {
	g := DefaultGeometry()
	l := newLayout(g)
	buf := make([]byte, g.direntSize())

	want := onDiskDirent{name: "hello.txt", inode: 42}
	l.encodeDirent(want, buf)
	got := l.decodeDirent(buf)

	if got.name != want.name || got.inode != want.inode {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestDirentIsZeroDetectsTombstone(t *testing.T) {
	g := DefaultGeometry()
	buf := make([]byte, g.direntSize())
	if !direntIsZero(buf) {
		t.Fatal("all-zero buffer should read as a tombstone")
	}
	buf[0] = 'a'
	if direntIsZero(buf) {
		t.Fatal("non-zero buffer should not read as a tombstone")
	}
}
