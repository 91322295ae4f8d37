package train

import (
	"encoding/binary"

	"github.com/railhub/ticketdb/pkg/index"
)

// maxStations bounds a train's station count, down from the original's
// 100-station array. At 20 stations the full catalogue record (names,
// per-segment prices, travel and stopover times) is 781 bytes and fits in
// a single 4KB page without a multi-page blob format; the same layout at
// 100 stations would be 3661 bytes.
const maxStations = 20

const (
	trainIDWidth   = 24
	stationWidth   = 24
	maxSegments    = maxStations - 1
)

// Info is a train's static catalogue entry: schedule, pricing, and the
// stations it stops at.
type Info struct {
	ID            string
	Name          string
	StationNum    int
	SeatNum       int32
	Stations      []string
	Prices        []int32
	StartTime     int32 // minutes past midnight
	TravelTimes   []int32
	StopoverTimes []int32
	SaleDateBegin int64 // day number
	SaleDateEnd   int64
	Type          byte
}

// recordSize is the fixed byte length of an encoded Info blob.
const recordSize = trainIDWidth + stationWidth + 4 + 4 + 4 + 1 + 8 + 8 +
	maxStations*stationWidth + maxSegments*4 + maxSegments*4 + (maxSegments-1)*4

func encodeRecord(info Info, buf []byte) {
	off := 0
	index.FixedStringCodec{N: trainIDWidth}.Encode(info.ID, buf[off:off+trainIDWidth])
	off += trainIDWidth
	index.FixedStringCodec{N: stationWidth}.Encode(info.Name, buf[off:off+stationWidth])
	off += stationWidth
	index.Int32Codec{}.Encode(int32(info.StationNum), buf[off:off+4])
	off += 4
	index.Int32Codec{}.Encode(info.SeatNum, buf[off:off+4])
	off += 4
	index.Int32Codec{}.Encode(info.StartTime, buf[off:off+4])
	off += 4
	buf[off] = info.Type
	off++
	binary.BigEndian.PutUint64(buf[off:off+8], uint64(info.SaleDateBegin))
	off += 8
	binary.BigEndian.PutUint64(buf[off:off+8], uint64(info.SaleDateEnd))
	off += 8
	for i := 0; i < maxStations; i++ {
		s := ""
		if i < len(info.Stations) {
			s = info.Stations[i]
		}
		index.FixedStringCodec{N: stationWidth}.Encode(s, buf[off:off+stationWidth])
		off += stationWidth
	}
	off = encodeInt32Array(buf, off, info.Prices, maxSegments)
	off = encodeInt32Array(buf, off, info.TravelTimes, maxSegments)
	_ = encodeInt32Array(buf, off, info.StopoverTimes, maxSegments-1)
}

func decodeRecord(buf []byte) Info {
	off := 0
	var info Info
	info.ID = index.FixedStringCodec{N: trainIDWidth}.Decode(buf[off : off+trainIDWidth])
	off += trainIDWidth
	info.Name = index.FixedStringCodec{N: stationWidth}.Decode(buf[off : off+stationWidth])
	off += stationWidth
	info.StationNum = int(index.Int32Codec{}.Decode(buf[off : off+4]))
	off += 4
	info.SeatNum = index.Int32Codec{}.Decode(buf[off : off+4])
	off += 4
	info.StartTime = index.Int32Codec{}.Decode(buf[off : off+4])
	off += 4
	info.Type = buf[off]
	off++
	info.SaleDateBegin = int64(binary.BigEndian.Uint64(buf[off : off+8]))
	off += 8
	info.SaleDateEnd = int64(binary.BigEndian.Uint64(buf[off : off+8]))
	off += 8
	info.Stations = make([]string, info.StationNum)
	for i := 0; i < maxStations; i++ {
		s := index.FixedStringCodec{N: stationWidth}.Decode(buf[off : off+stationWidth])
		if i < info.StationNum {
			info.Stations[i] = s
		}
		off += stationWidth
	}
	segCount := info.StationNum - 1
	info.Prices, off = decodeInt32Array(buf, off, maxSegments, segCount)
	info.TravelTimes, off = decodeInt32Array(buf, off, maxSegments, segCount)
	info.StopoverTimes, _ = decodeInt32Array(buf, off, maxSegments-1, segCount-1)
	return info
}

func encodeInt32Array(buf []byte, off int, vals []int32, capacity int) int {
	for i := 0; i < capacity; i++ {
		var v int32
		if i < len(vals) {
			v = vals[i]
		}
		index.Int32Codec{}.Encode(v, buf[off:off+4])
		off += 4
	}
	return off
}

func decodeInt32Array(buf []byte, off, capacity, used int) ([]int32, int) {
	out := make([]int32, 0, used)
	for i := 0; i < capacity; i++ {
		v := index.Int32Codec{}.Decode(buf[off : off+4])
		if i < used {
			out = append(out, v)
		}
		off += 4
	}
	return out, off
}

// meta is the small B+ tree value tracked per train: where its full
// record lives and whether it has been released for sale.
type meta struct {
	pageID        int32
	saleDateBegin int64
	saleDateEnd   int64
	released      bool
}

type metaCodec struct{}

func (metaCodec) Size() int { return 4 + 8 + 8 + 1 }

func (metaCodec) Encode(m meta, buf []byte) {
	index.Int32Codec{}.Encode(m.pageID, buf[0:4])
	binary.BigEndian.PutUint64(buf[4:12], uint64(m.saleDateBegin))
	binary.BigEndian.PutUint64(buf[12:20], uint64(m.saleDateEnd))
	if m.released {
		buf[20] = 1
	} else {
		buf[20] = 0
	}
}

func (metaCodec) Decode(buf []byte) meta {
	return meta{
		pageID:        index.Int32Codec{}.Decode(buf[0:4]),
		saleDateBegin: int64(binary.BigEndian.Uint64(buf[4:12])),
		saleDateEnd:   int64(binary.BigEndian.Uint64(buf[12:20])),
		released:      buf[20] != 0,
	}
}
