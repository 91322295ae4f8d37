package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	files := map[string]string{
		"train_db":      "train contents",
		"ticket_system_db": "ticket contents",
	}
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte(contents), 0644); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
	}

	var buf bytes.Buffer
	if err := NewSnapshotter(srcDir).SnapshotToWriter("ticket_system", &buf); err != nil {
		t.Fatalf("SnapshotToWriter: %v", err)
	}

	dstDir := t.TempDir()
	restored, err := NewRestorer(dstDir).RestoreFromReader(&buf)
	if err != nil {
		t.Fatalf("RestoreFromReader: %v", err)
	}
	sort.Strings(restored)
	if len(restored) != len(files) {
		t.Fatalf("restored %v, want %d files", restored, len(files))
	}

	for name, want := range files {
		got, err := os.ReadFile(filepath.Join(dstDir, name))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if string(got) != want {
			t.Fatalf("restored %s = %q, want %q", name, got, want)
		}
	}
}

func TestSnapshotEmptyDirectory(t *testing.T) {
	srcDir := t.TempDir()
	var buf bytes.Buffer
	if err := NewSnapshotter(srcDir).SnapshotToWriter("empty", &buf); err != nil {
		t.Fatalf("SnapshotToWriter: %v", err)
	}
	restored, err := NewRestorer(t.TempDir()).RestoreFromReader(&buf)
	if err != nil {
		t.Fatalf("RestoreFromReader: %v", err)
	}
	if len(restored) != 0 {
		t.Fatalf("restored = %v, want empty", restored)
	}
}
