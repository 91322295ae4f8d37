package index

import "encoding/binary"

// KeyCodec encodes and decodes fixed-width keys to and from page bytes.
// Size must be constant for a given codec value: node layout offsets are
// computed once from it at tree construction and never revisited per
// operation. This generalizes the teacher's KeyType byte-tag switch
// (pkg/index/btree_disk.go) into a pluggable strategy parameterized by Go
// generics instead of a closed set of interface{} cases.
type KeyCodec[K any] interface {
	Size() int
	Encode(k K, buf []byte)
	Decode(buf []byte) K
}

// ValueCodec is the value-side counterpart of KeyCodec.
type ValueCodec[V any] interface {
	Size() int
	Encode(v V, buf []byte)
	Decode(buf []byte) V
}

// Int64Codec encodes int64 keys or values in 8 bytes, big-endian two's
// complement, so byte-wise and numeric ordering agree for non-negative
// values; negative values sort after positive ones byte-wise (useful for debugging raw pages, not
// relied on by the tree itself since Cmp/DegCmp are supplied explicitly).
type Int64Codec struct{}

func (Int64Codec) Size() int { return 8 }
func (Int64Codec) Encode(k int64, buf []byte) {
	binary.BigEndian.PutUint64(buf, uint64(k))
}
func (Int64Codec) Decode(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}

// Int32Codec encodes int32 keys or values in 4 bytes.
type Int32Codec struct{}

func (Int32Codec) Size() int { return 4 }
func (Int32Codec) Encode(k int32, buf []byte) {
	binary.BigEndian.PutUint32(buf, uint32(k))
}
func (Int32Codec) Decode(buf []byte) int32 {
	return int32(binary.BigEndian.Uint32(buf))
}

// FixedStringCodec encodes strings into exactly N zero-padded bytes,
// truncating anything longer. It is the key encoding used for station
// names and usernames, which the domain caps at a known display width.
type FixedStringCodec struct {
	N int
}

func (c FixedStringCodec) Size() int { return c.N }

func (c FixedStringCodec) Encode(s string, buf []byte) {
	n := copy(buf, s)
	for i := n; i < c.N; i++ {
		buf[i] = 0
	}
}

func (c FixedStringCodec) Decode(buf []byte) string {
	end := 0
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	return string(buf[:end])
}

// PairCodec combines two codecs into a codec for Pair[A, B], laying the
// first component's bytes directly before the second's.
type PairCodec[A, B any] struct {
	A KeyCodec[A]
	B KeyCodec[B]
}

func (c PairCodec[A, B]) Size() int { return c.A.Size() + c.B.Size() }

func (c PairCodec[A, B]) Encode(k Pair[A, B], buf []byte) {
	c.A.Encode(k.First, buf[:c.A.Size()])
	c.B.Encode(k.Second, buf[c.A.Size():c.Size()])
}

func (c PairCodec[A, B]) Decode(buf []byte) Pair[A, B] {
	return Pair[A, B]{
		First:  c.A.Decode(buf[:c.A.Size()]),
		Second: c.B.Decode(buf[c.A.Size():c.Size()]),
	}
}
