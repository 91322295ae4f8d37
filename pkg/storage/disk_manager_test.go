package storage

import (
	"path/filepath"
	"testing"
)

func TestDiskManagerReadZeroPadsShortFile(t *testing.T) {
	dm, err := NewDiskManager(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("NewDiskManager: %v", err)
	}
	defer dm.Close()

	if err := dm.IncreaseDiskSpace(1); err != nil {
		t.Fatalf("IncreaseDiskSpace: %v", err)
	}
	buf := make([]byte, PageSize)
	if err := dm.ReadPage(0, buf); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

func TestDiskManagerWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	dm, err := NewDiskManager(path)
	if err != nil {
		t.Fatalf("NewDiskManager: %v", err)
	}
	if err := dm.IncreaseDiskSpace(3); err != nil {
		t.Fatalf("IncreaseDiskSpace: %v", err)
	}
	want := make([]byte, PageSize)
	for i := range want {
		want[i] = byte(i)
	}
	if err := dm.WritePage(2, want); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	dm.Close()

	dm2, err := NewDiskManager(path)
	if err != nil {
		t.Fatalf("reopen NewDiskManager: %v", err)
	}
	defer dm2.Close()
	got := make([]byte, PageSize)
	if err := dm2.ReadPage(2, got); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDiskManagerIncreaseDiskSpaceIdempotent(t *testing.T) {
	dm, err := NewDiskManager(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("NewDiskManager: %v", err)
	}
	defer dm.Close()
	if err := dm.IncreaseDiskSpace(10); err != nil {
		t.Fatalf("IncreaseDiskSpace: %v", err)
	}
	before := dm.numPage
	if err := dm.IncreaseDiskSpace(4); err != nil {
		t.Fatalf("IncreaseDiskSpace: %v", err)
	}
	if dm.numPage != before {
		t.Fatalf("numPage shrank: %d -> %d", before, dm.numPage)
	}
}
