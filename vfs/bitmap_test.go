package vfs

import (
	"errors"
	"testing"

	"github.com/ardenfen/blockfs/testhelper"
	"github.com/ardenfen/blockfs/util"
)

// memStorage wires a StorageImpl to a plain in-memory byte slice, giving
// bitmap/disk tests a backend.Storage without touching the filesystem.
func memStorage(size int32) (*testhelper.StorageImpl, *[]byte) {
	backing := make([]byte, size)
	s := &testhelper.StorageImpl{}
	s.Reader = func(b []byte, offset int64) (int, error) {
		n := copy(b, backing[offset:])
		return n, nil
	}
	s.Writer = func(b []byte, offset int64) (int, error) {
		n := copy(backing[offset:], b)
		return n, nil
	}
	return s, &backing
}

func newTestBitmap(t *testing.T, nsec int32) (*bitmapRegion, *sectorStore) {
	t.Helper()
	g := DefaultGeometry()
	storage, _ := memStorage(nsec * g.SectorSize)
	disk := newSectorStore(storage, g, nil)
	return newBitmapRegion(disk, 0, nsec, nil), disk
}

func TestBitmapInitializeReservesLeadingBits(t *testing.T) {
	bm, _ := newTestBitmap(t, 1)
	if err := bm.Initialize(3); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for i := int32(0); i < 3; i++ {
		set, err := bm.IsSet(i)
		if err != nil {
			t.Fatalf("IsSet(%d): %v", i, err)
		}
		if !set {
			t.Fatalf("bit %d should be reserved after Initialize(3)", i)
		}
	}
	set, err := bm.IsSet(3)
	if err != nil {
		t.Fatalf("IsSet(3): %v", err)
	}
	if set {
		t.Fatal("bit 3 should be free after Initialize(3)")
	}
}

func TestBitmapAllocateFirstFreeSkipsReserved(t *testing.T) {
	bm, _ := newTestBitmap(t, 1)
	if err := bm.Initialize(1); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	got, err := bm.AllocateFirstFree(bm.capacity())
	if err != nil {
		t.Fatalf("AllocateFirstFree: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected first free bit to be 1, got %d", got)
	}
	set, err := bm.IsSet(1)
	if err != nil {
		t.Fatalf("IsSet(1): %v", err)
	}
	if !set {
		t.Fatal("allocated bit should now read as set")
	}
}

func TestBitmapAllocateFirstFreeExhausted(t *testing.T) {
	bm, _ := newTestBitmap(t, 1)
	const capacity = int32(4)
	for i := int32(0); i < capacity; i++ {
		if _, err := bm.AllocateFirstFree(capacity); err != nil {
			t.Fatalf("allocate %d: unexpected error %v", i, err)
		}
	}
	if _, err := bm.AllocateFirstFree(capacity); !errors.Is(err, ErrNoSpace) {
		t.Fatalf("expected ErrNoSpace once capacity is exhausted, got %v", err)
	}
}

func TestBitmapFreeClearsBit(t *testing.T) {
	bm, _ := newTestBitmap(t, 1)
	id, err := bm.AllocateFirstFree(bm.capacity())
	if err != nil {
		t.Fatalf("AllocateFirstFree: %v", err)
	}
	if err := bm.Free(id); err != nil {
		t.Fatalf("Free: %v", err)
	}
	set, err := bm.IsSet(id)
	if err != nil {
		t.Fatalf("IsSet: %v", err)
	}
	if set {
		t.Fatal("bit should be clear after Free")
	}
}

func TestBitmapAllocateFirstFreePropagatesWriteFailure(t *testing.T) {
	g := DefaultGeometry()
	backing := make([]byte, g.SectorSize)
	s := &testhelper.StorageImpl{}
	s.Reader = func(b []byte, offset int64) (int, error) {
		return copy(b, backing[offset:]), nil
	}
	writeErr := errors.New("simulated device failure")
	s.Writer = func(b []byte, offset int64) (int, error) {
		return 0, writeErr
	}
	disk := newSectorStore(s, g, nil)
	bm := newBitmapRegion(disk, 0, 1, nil)

	if _, err := bm.AllocateFirstFree(bm.capacity()); !errors.Is(err, ErrGeneral) {
		t.Fatalf("expected write failure to surface as ErrGeneral, got %v", err)
	}
}

func TestSectorStoreRoundTripMatchesWhatWasWritten(t *testing.T) {
	g := DefaultGeometry()
	storage, _ := memStorage(2 * g.SectorSize)
	disk := newSectorStore(storage, g, nil)

	want := make([]byte, g.SectorSize)
	for i := range want {
		want[i] = byte(i)
	}
	if err := disk.writeSector(1, want); err != nil {
		t.Fatalf("writeSector: %v", err)
	}
	got, err := disk.readSector(1)
	if err != nil {
		t.Fatalf("readSector: %v", err)
	}
	if different, out := util.DumpByteSlicesWithDiffs(want, got, 16, true, true, false); different {
		t.Fatalf("sector round trip mismatch:\n%s", out)
	}
}
