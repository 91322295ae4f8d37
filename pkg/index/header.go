package index

import (
	"encoding/binary"

	"github.com/railhub/ticketdb/pkg/storage"
)

// headerMagic distinguishes a freshly zero-filled page (brand-new file)
// from a previously initialized header, since a legitimate root_page_id can
// be zero once disambiguated from "never initialized".
const headerMagic uint32 = 0x54495842 // "TIXB"

// treeHeader is the fixed page-0 layout of a B+ tree file: it records the
// tree's root and the buffer pool's page-id allocation counter, so both
// survive a process restart (spec.md §4.4, §9).
type treeHeader struct {
	rootPageID     storage.PageID
	nextPageIDHint storage.PageID
}

func decodeHeader(buf []byte) (treeHeader, bool) {
	if binary.BigEndian.Uint32(buf[0:4]) != headerMagic {
		return treeHeader{}, false
	}
	return treeHeader{
		rootPageID:     storage.PageID(int32(binary.BigEndian.Uint32(buf[4:8]))),
		nextPageIDHint: storage.PageID(int32(binary.BigEndian.Uint32(buf[8:12]))),
	}, true
}

func encodeHeader(buf []byte, h treeHeader) {
	binary.BigEndian.PutUint32(buf[0:4], headerMagic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(int32(h.rootPageID)))
	binary.BigEndian.PutUint32(buf[8:12], uint32(int32(h.nextPageIDHint)))
}
