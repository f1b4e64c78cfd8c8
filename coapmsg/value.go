package coapmsg

import "encoding/binary"

// OptionValue is the raw byte representation of an option's value, the form
// it takes on the wire between the length field and the next option's delta.
type OptionValue []byte

// AsString decodes the value as a UTF-8 string (Uri-Path, Uri-Query, ...).
func (v OptionValue) AsString() string {
	return string(v)
}

// AsBytes returns the value unchanged.
func (v OptionValue) AsBytes() []byte {
	return v
}

// AsUint64 decodes the value as a big-endian, minimal-length unsigned
// integer, the encoding RFC 7252 section 3.2 uses for Content-Format,
// Max-Age, Accept, Size1/Size2 and friends.
func (v OptionValue) AsUint64() uint64 {
	var buf [8]byte
	if len(v) > 8 {
		v = v[len(v)-8:]
	}
	copy(buf[8-len(v):], v)
	return binary.BigEndian.Uint64(buf[:])
}

func (v OptionValue) AsUint32() uint32 {
	return uint32(v.AsUint64())
}

func (v OptionValue) AsUint16() uint16 {
	return uint16(v.AsUint64())
}

func (v OptionValue) AsUint8() uint8 {
	return uint8(v.AsUint64())
}

// EncodeUint trims a uint64 down to its minimal big-endian byte
// representation (an empty slice for 0, per RFC 7252 section 3.2). Used
// for plain uint-format options as well as the Block1/Block2 value
// encoding in package blockwise.
func EncodeUint(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	i := 0
	for i < 7 && buf[i] == 0 {
		i++
	}
	if v == 0 {
		return nil
	}
	return buf[i:]
}
