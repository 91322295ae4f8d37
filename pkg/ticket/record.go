package ticket

import (
	"encoding/binary"

	"github.com/railhub/ticketdb/pkg/index"
)

const (
	trainIDWidth = 24
	stationWidth = 24
	usernameWidth = 32
	orderIDWidth  = 36 // canonical UUID string length
	maxSegments   = 19 // mirrors pkg/train's maxStations-1
)

// Status is the lifecycle state of a ticket order.
type Status byte

const (
	StatusSuccess Status = iota
	StatusPending
	StatusRefunded
)

func encodeStr(buf []byte, s string, width int) {
	index.FixedStringCodec{N: width}.Encode(s, buf[:width])
}

func decodeStr(buf []byte, width int) string {
	return index.FixedStringCodec{N: width}.Decode(buf[:width])
}

// --- seat row: per (trainID, date) remaining seats per segment ---

type seatRow struct {
	stationNum int32
	seats      [maxSegments]int32
}

type seatRowCodec struct{}

func (seatRowCodec) Size() int { return 4 + maxSegments*4 }

func (seatRowCodec) Encode(r seatRow, buf []byte) {
	index.Int32Codec{}.Encode(r.stationNum, buf[0:4])
	off := 4
	for i := 0; i < maxSegments; i++ {
		index.Int32Codec{}.Encode(r.seats[i], buf[off:off+4])
		off += 4
	}
}

func (seatRowCodec) Decode(buf []byte) seatRow {
	var r seatRow
	r.stationNum = index.Int32Codec{}.Decode(buf[0:4])
	off := 4
	for i := 0; i < maxSegments; i++ {
		r.seats[i] = index.Int32Codec{}.Decode(buf[off : off+4])
		off += 4
	}
	return r
}

// --- order record ---

type orderRecord struct {
	orderID  string
	trainID  string
	from     string
	to       string
	leaveDate int64
	price    int32
	seatNum  int32
	fromIdx  int32
	toIdx    int32
	status   Status
	seq      int64
}

type orderRecordCodec struct{}

func (orderRecordCodec) Size() int {
	return orderIDWidth + trainIDWidth + stationWidth*2 + 8 + 4 + 4 + 4 + 4 + 1 + 8
}

func (c orderRecordCodec) Encode(r orderRecord, buf []byte) {
	off := 0
	encodeStr(buf[off:], r.orderID, orderIDWidth)
	off += orderIDWidth
	encodeStr(buf[off:], r.trainID, trainIDWidth)
	off += trainIDWidth
	encodeStr(buf[off:], r.from, stationWidth)
	off += stationWidth
	encodeStr(buf[off:], r.to, stationWidth)
	off += stationWidth
	binary.BigEndian.PutUint64(buf[off:off+8], uint64(r.leaveDate))
	off += 8
	index.Int32Codec{}.Encode(r.price, buf[off:off+4])
	off += 4
	index.Int32Codec{}.Encode(r.seatNum, buf[off:off+4])
	off += 4
	index.Int32Codec{}.Encode(r.fromIdx, buf[off:off+4])
	off += 4
	index.Int32Codec{}.Encode(r.toIdx, buf[off:off+4])
	off += 4
	buf[off] = byte(r.status)
	off++
	binary.BigEndian.PutUint64(buf[off:off+8], uint64(r.seq))
}

func (c orderRecordCodec) Decode(buf []byte) orderRecord {
	off := 0
	var r orderRecord
	r.orderID = decodeStr(buf[off:], orderIDWidth)
	off += orderIDWidth
	r.trainID = decodeStr(buf[off:], trainIDWidth)
	off += trainIDWidth
	r.from = decodeStr(buf[off:], stationWidth)
	off += stationWidth
	r.to = decodeStr(buf[off:], stationWidth)
	off += stationWidth
	r.leaveDate = int64(binary.BigEndian.Uint64(buf[off : off+8]))
	off += 8
	r.price = index.Int32Codec{}.Decode(buf[off : off+4])
	off += 4
	r.seatNum = index.Int32Codec{}.Decode(buf[off : off+4])
	off += 4
	r.fromIdx = index.Int32Codec{}.Decode(buf[off : off+4])
	off += 4
	r.toIdx = index.Int32Codec{}.Decode(buf[off : off+4])
	off += 4
	r.status = Status(buf[off])
	off++
	r.seq = int64(binary.BigEndian.Uint64(buf[off : off+8]))
	return r
}

// --- pending record: a queued order awaiting capacity ---

type pendingRecord struct {
	username string
	orderID  string
	order    orderRecord
}

type pendingRecordCodec struct{}

func (pendingRecordCodec) Size() int {
	return usernameWidth + orderIDWidth + (orderRecordCodec{}).Size()
}

func (c pendingRecordCodec) Encode(r pendingRecord, buf []byte) {
	off := 0
	encodeStr(buf[off:], r.username, usernameWidth)
	off += usernameWidth
	encodeStr(buf[off:], r.orderID, orderIDWidth)
	off += orderIDWidth
	(orderRecordCodec{}).Encode(r.order, buf[off:])
}

func (c pendingRecordCodec) Decode(buf []byte) pendingRecord {
	off := 0
	var r pendingRecord
	r.username = decodeStr(buf[off:], usernameWidth)
	off += usernameWidth
	r.orderID = decodeStr(buf[off:], orderIDWidth)
	off += orderIDWidth
	r.order = (orderRecordCodec{}).Decode(buf[off:])
	return r
}

// --- station index entry ---

type stationRecord struct {
	station        string
	trainID        string
	stationIndex   int32
	price          int32 // cumulative price from the train's origin
	arrivingOffset int32 // minutes since midnight of the origin departure date, -1 at origin
	leavingOffset  int32 // minutes since midnight of the origin departure date, -1 at terminus
	saleDateBegin  int64
	saleDateEnd    int64
}

type stationRecordCodec struct{}

func (stationRecordCodec) Size() int { return stationWidth + trainIDWidth + 4 + 4 + 4 + 4 + 8 + 8 }

func (c stationRecordCodec) Encode(r stationRecord, buf []byte) {
	off := 0
	encodeStr(buf[off:], r.station, stationWidth)
	off += stationWidth
	encodeStr(buf[off:], r.trainID, trainIDWidth)
	off += trainIDWidth
	index.Int32Codec{}.Encode(r.stationIndex, buf[off:off+4])
	off += 4
	index.Int32Codec{}.Encode(r.price, buf[off:off+4])
	off += 4
	index.Int32Codec{}.Encode(r.arrivingOffset, buf[off:off+4])
	off += 4
	index.Int32Codec{}.Encode(r.leavingOffset, buf[off:off+4])
	off += 4
	binary.BigEndian.PutUint64(buf[off:off+8], uint64(r.saleDateBegin))
	off += 8
	binary.BigEndian.PutUint64(buf[off:off+8], uint64(r.saleDateEnd))
}

func (c stationRecordCodec) Decode(buf []byte) stationRecord {
	off := 0
	var r stationRecord
	r.station = decodeStr(buf[off:], stationWidth)
	off += stationWidth
	r.trainID = decodeStr(buf[off:], trainIDWidth)
	off += trainIDWidth
	r.stationIndex = index.Int32Codec{}.Decode(buf[off : off+4])
	off += 4
	r.price = index.Int32Codec{}.Decode(buf[off : off+4])
	off += 4
	r.arrivingOffset = index.Int32Codec{}.Decode(buf[off : off+4])
	off += 4
	r.leavingOffset = index.Int32Codec{}.Decode(buf[off : off+4])
	off += 4
	r.saleDateBegin = int64(binary.BigEndian.Uint64(buf[off : off+8]))
	off += 8
	r.saleDateEnd = int64(binary.BigEndian.Uint64(buf[off : off+8]))
	return r
}
