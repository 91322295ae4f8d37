// Package backup snapshots and restores the raw flat files backing a
// ticketdb database: rather than walking a document model (the teacher's
// JSON-per-document backup format), it streams each file's bytes through a
// zstd encoder, since a B+ tree file or raw table file is already a
// self-describing sequence of fixed-size pages.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Manifest describes one snapshot: the database name, when it was taken,
// and the files captured within it.
type Manifest struct {
	DatabaseName string    `json:"database_name"`
	Timestamp    time.Time `json:"timestamp"`
	Files        []string  `json:"files"`
}

// fileMagic marks the start of each per-file section within a snapshot
// stream so Restore can validate it is reading its own format.
const fileMagic = "TIXDUMP1"

// Snapshotter captures a point-in-time copy of a data directory's flat
// files into a single zstd-compressed stream.
type Snapshotter struct {
	dataDir string
}

// NewSnapshotter creates a Snapshotter over the given data directory.
func NewSnapshotter(dataDir string) *Snapshotter {
	return &Snapshotter{dataDir: dataDir}
}

// SnapshotToFile writes a compressed snapshot of every regular file
// directly under the data directory to path.
func (s *Snapshotter) SnapshotToFile(databaseName, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ticketdb: create snapshot file: %w", err)
	}
	defer out.Close()
	return s.SnapshotToWriter(databaseName, out)
}

// SnapshotToWriter writes the compressed snapshot to w.
func (s *Snapshotter) SnapshotToWriter(databaseName string, w io.Writer) error {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return fmt.Errorf("ticketdb: read data dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("ticketdb: create zstd encoder: %w", err)
	}
	defer enc.Close()

	for _, name := range names {
		if err := writeFileSection(enc, filepath.Join(s.dataDir, name), name); err != nil {
			return err
		}
	}
	return nil
}

func writeFileSection(w io.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ticketdb: open %s for snapshot: %w", name, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("ticketdb: stat %s: %w", name, err)
	}

	if _, err := io.WriteString(w, fileMagic); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(name))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, name); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(info.Size())); err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("ticketdb: stream %s into snapshot: %w", name, err)
	}
	return nil
}
