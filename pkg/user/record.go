package user

import "github.com/railhub/ticketdb/pkg/index"

// Field widths for the fixed-layout user record, chosen to comfortably
// hold a display name/email and a bcrypt hash while keeping the record a
// constant size for the B+ tree's fixed-width value slots — the same
// static-char-array shape the original user catalogue record used, just
// sized for a bcrypt digest instead of a raw password.
const (
	usernameWidth = 32
	nameWidth     = 32
	mailWidth     = 64
	hashWidth     = 60 // bcrypt.GenerateFromPassword output length
)

// record is the fixed-width on-disk representation of one account.
type record struct {
	username  string
	passHash  string
	name      string
	mailAddr  string
	privilege int32
}

func (r record) toInfo() Info {
	return Info{
		Username:  r.username,
		Name:      r.name,
		MailAddr:  r.mailAddr,
		Privilege: r.privilege,
	}
}

// recordCodec implements index.ValueCodec[record] over the fixed field
// widths above.
type recordCodec struct{}

func (recordCodec) Size() int {
	return usernameWidth + hashWidth + nameWidth + mailWidth + 4
}

func (c recordCodec) Encode(r record, buf []byte) {
	off := 0
	off += encodeField(buf[off:], r.username, usernameWidth)
	off += encodeField(buf[off:], r.passHash, hashWidth)
	off += encodeField(buf[off:], r.name, nameWidth)
	off += encodeField(buf[off:], r.mailAddr, mailWidth)
	index.Int32Codec{}.Encode(r.privilege, buf[off:off+4])
}

func (c recordCodec) Decode(buf []byte) record {
	off := 0
	var r record
	r.username, off = decodeField(buf, off, usernameWidth)
	r.passHash, off = decodeField(buf, off, hashWidth)
	r.name, off = decodeField(buf, off, nameWidth)
	r.mailAddr, off = decodeField(buf, off, mailWidth)
	r.privilege = index.Int32Codec{}.Decode(buf[off : off+4])
	return r
}

func encodeField(buf []byte, s string, width int) int {
	index.FixedStringCodec{N: width}.Encode(s, buf[:width])
	return width
}

func decodeField(buf []byte, off, width int) (string, int) {
	return index.FixedStringCodec{N: width}.Decode(buf[off : off+width]), off + width
}
