package coapmsg

import "errors"

// Nibble values and range boundaries from RFC 7252 section 3.1: a 4-bit
// delta or length in [0,12] is stored directly, 13 means a following
// single extension byte biased by optMin, 14 means two extension bytes
// biased by optMed, and 15 is reserved for the payload marker and must
// never appear as an option delta/length nibble.
const (
	optMin = 13
	optMed = 269

	nibble1Byte  = 13
	nibble2Byte  = 14
	nibbleResvd  = 15
	payloadMarker = 0xff
)

// ErrWrongOptions is returned when a decoded option uses the reserved
// nibble value 15 for its delta or length, or when the response holds
// more options than the destination array can take.
var ErrWrongOptions = errors.New("coapmsg: reserved option nibble 15")

// ErrNoOptions is returned when the byte at the option-start index is
// already the payload marker (or the buffer ends there): the PDU carries
// no options at all. Callers that only care about the payload offset
// should treat it the same as a successful empty decode.
var ErrNoOptions = errors.New("coapmsg: no options present")

// EncodeOptions writes the options chain in ascending-number delta-encoded
// form into buf, starting at buf[0], and returns the number of bytes
// written. The caller must ensure buf is large enough and that head's
// chain is sorted by ascending Number -- the delta is computed relative to
// the running sum of prior numbers, exactly as encoding_options does in
// the reference.
func EncodeOptions(buf []byte, head *Option) int {
	idx := 0
	deltaSum := 0

	for opt := head; opt != nil; opt = opt.Next {
		localIdx := idx
		delta := int(opt.Number) - deltaSum
		deltaSum += delta

		switch {
		case delta < optMin:
			buf[idx] = byte(delta << 4)
			idx++
		case delta < optMed:
			buf[idx] = nibble1Byte << 4
			idx++
			buf[idx] = byte(delta - optMin)
			idx++
		default:
			buf[idx] = nibble2Byte << 4
			idx++
			buf[idx] = byte((delta - optMed) >> 8)
			idx++
			buf[idx] = byte(delta - optMed)
			idx++
		}

		length := len(opt.Value)
		switch {
		case length < optMin:
			buf[localIdx] |= byte(length)
		case length < optMed:
			buf[localIdx] |= nibble1Byte
			buf[idx] = byte(length - optMin)
			idx++
		default:
			buf[localIdx] |= nibble2Byte
			buf[idx] = byte((length - optMed) >> 8)
			idx++
			buf[idx] = byte(length - optMed)
			idx++
		}

		copy(buf[idx:], opt.Value)
		idx += length
	}

	return idx
}

// DecodeOptions decodes the option sequence starting at src[optStartIdx]
// into dst, a caller-supplied fixed-capacity array reused across calls
// (the reference reinterprets the spent request buffer as this same
// array; see engine.Handle's opts field). It returns the number of
// options decoded and the index of the first payload byte (the
// byte right after the payload marker, or right after the single byte it
// read when there turned out to be no options).
//
// Decoding stops, and ErrWrongOptions is returned, the moment a delta or
// length nibble of 15 is seen, or once dst is full. If the very first
// byte at optStartIdx is already the payload marker 0xff, or it is the
// last byte of src, ErrNoOptions is returned with count 0 -- so a lone
// one-byte option (empty value, small delta) at the very end of src is
// not decoded, since both read as "no more data after this byte".
func DecodeOptions(dst []Option, src []byte, optStartIdx int) (count int, payloadStart int, err error) {
	idx := optStartIdx
	opt := src[idx]
	idx++

	if !(len(src) > idx && opt != payloadMarker) {
		return 0, idx, ErrNoOptions
	}

	deltaSum := 0
	n := 0

	for {
		if n >= len(dst) {
			return n, idx, ErrWrongOptions
		}
		rec := &dst[n]

		switch opt >> 4 {
		case nibble1Byte:
			rec.Number = OptionId(int(src[idx]) + optMin + deltaSum)
			idx++
			deltaSum = int(rec.Number)
		case nibble2Byte:
			v := int(src[idx])<<8 | int(src[idx+1])
			idx += 2
			rec.Number = OptionId(v + deltaSum + optMed)
			deltaSum = int(rec.Number)
		case nibbleResvd:
			return n, idx, ErrWrongOptions
		default:
			rec.Number = OptionId(int(opt>>4) + deltaSum)
			deltaSum += int(opt >> 4)
		}

		var length int
		switch opt & 0x0f {
		case nibble1Byte:
			length = int(src[idx]) + optMin
			idx++
		case nibble2Byte:
			length = int(src[idx])<<8 | int(src[idx+1])
			idx += 2
			length += optMed
		case nibbleResvd:
			return n, idx, ErrWrongOptions
		default:
			length = int(opt & 0x0f)
		}

		rec.Value = OptionValue(src[idx : idx+length])
		idx += length
		n++

		if idx >= len(src) {
			break
		}
		opt = src[idx]
		idx++
		if opt == payloadMarker {
			break
		}
	}

	for i := 0; i < n; i++ {
		if i+1 < n {
			dst[i].Next = &dst[i+1]
		} else {
			dst[i].Next = nil
		}
	}

	return n, idx, nil
}
