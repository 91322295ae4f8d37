package backup

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Restorer replays a Snapshotter's stream back into a data directory.
type Restorer struct {
	dataDir string
}

// NewRestorer creates a Restorer that writes into the given data directory,
// creating it if absent.
func NewRestorer(dataDir string) *Restorer {
	return &Restorer{dataDir: dataDir}
}

// RestoreFromFile replays the snapshot at path.
func (r *Restorer) RestoreFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ticketdb: open snapshot file: %w", err)
	}
	defer f.Close()
	return r.RestoreFromReader(f)
}

// RestoreFromReader replays the snapshot stream read from r, returning the
// names of the files it restored.
func (r *Restorer) RestoreFromReader(reader io.Reader) ([]string, error) {
	if err := os.MkdirAll(r.dataDir, 0755); err != nil {
		return nil, fmt.Errorf("ticketdb: create data dir: %w", err)
	}
	dec, err := zstd.NewReader(reader)
	if err != nil {
		return nil, fmt.Errorf("ticketdb: create zstd decoder: %w", err)
	}
	defer dec.Close()

	var restored []string
	magicBuf := make([]byte, len(fileMagic))
	for {
		_, err := io.ReadFull(dec, magicBuf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return restored, fmt.Errorf("ticketdb: read snapshot section header: %w", err)
		}
		if string(magicBuf) != fileMagic {
			return restored, fmt.Errorf("ticketdb: corrupt snapshot: bad section magic")
		}
		name, err := readFileSection(dec, r.dataDir)
		if err != nil {
			return restored, err
		}
		restored = append(restored, name)
	}
	return restored, nil
}

func readFileSection(r io.Reader, dataDir string) (string, error) {
	nameLen, err := readUint32(r)
	if err != nil {
		return "", fmt.Errorf("ticketdb: read snapshot name length: %w", err)
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return "", fmt.Errorf("ticketdb: read snapshot file name: %w", err)
	}
	name := string(nameBuf)

	size, err := readUint64(r)
	if err != nil {
		return "", fmt.Errorf("ticketdb: read snapshot file size for %s: %w", name, err)
	}

	out, err := os.Create(filepath.Join(dataDir, name))
	if err != nil {
		return "", fmt.Errorf("ticketdb: create restored file %s: %w", name, err)
	}
	defer out.Close()
	if _, err := io.CopyN(out, r, int64(size)); err != nil {
		return "", fmt.Errorf("ticketdb: write restored file %s: %w", name, err)
	}
	return name, nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
