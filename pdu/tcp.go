package pdu

import "github.com/lobaro/coap-engine/coapmsg"

// RFC 8323 section 3.2 length-field tiers.
const (
	minTCPHeaderLen = 2

	tcpLen1Byte = 13
	tcpLen2Byte = 14
	tcpLen4Byte = 15

	tcpLenMin = 13
	tcpLenMed = 269
	tcpLenMax = 65805
)

// AssembleTCP writes a complete RFC 8323 TCP CoAP message -- variable
// length header, token, options, payload -- into buf and returns its
// length. The header's size depends on the length of the options and
// payload it prefixes, so the options are first encoded at a
// speculatively guessed offset (a 2-byte header plus the token, one byte
// more when the payload is longer than 10 bytes)
// and moved into their real position once the true header size is known.
//
// Go's copy() has memmove semantics (overlapping source and destination
// are handled correctly), so unlike the reference's shift_data -- which
// has to pick an ascending or descending byte-copy direction by comparing
// raw pointers -- this port never needs to choose a direction.
//
// Grounded on ucoap_tcp.c's asemble_request, tier for tier, including its
// asymmetric shift destination in the len>=65805 branch: when that
// tier's header turns out to need fewer bytes than predicted, the
// reference shifts options to tkl+3 instead of the correct tkl+6. No
// default MaxPDUSize ever reaches this tier, so the discrepancy is inert
// in practice; it is preserved rather than "fixed" since no corrected
// behavior was ever specified for it (see DESIGN.md).
func AssembleTCP(buf []byte, tkl int, code Code, token []byte, options *coapmsg.Option, payload []byte) int {
	optionsShift := minTCPHeaderLen + tkl
	if len(payload) > 10 {
		optionsShift++
	}

	optionsLen := 0
	if options != nil {
		optionsLen = coapmsg.EncodeOptions(buf[optionsShift:], options)
	}

	dataLen := optionsLen
	if len(payload) > 0 {
		dataLen += len(payload) + 1
	}

	var headerLen int

	switch {
	case dataLen < tcpLenMin:
		buf[0] = byte(tkl<<4) | byte(dataLen)
		buf[1] = byte(code)
		headerLen = 2
		moveOptions(buf, tkl+minTCPHeaderLen, optionsShift, optionsLen)

	case dataLen < tcpLenMed:
		buf[0] = byte(tkl<<4) | tcpLen1Byte
		buf[1] = byte(dataLen - tcpLenMin)
		buf[2] = byte(code)
		headerLen = 3
		moveOptions(buf, tkl+minTCPHeaderLen+1, optionsShift, optionsLen)

	case dataLen < tcpLenMax:
		buf[0] = byte(tkl<<4) | tcpLen2Byte
		buf[1] = byte(uint32(dataLen-tcpLenMed) >> 8)
		buf[2] = byte(dataLen - tcpLenMed)
		buf[3] = byte(code)
		headerLen = 4
		moveOptions(buf, tkl+minTCPHeaderLen+2, optionsShift, optionsLen)

	default:
		buf[0] = byte(tkl<<4) | tcpLen4Byte
		ext := uint32(dataLen - tcpLenMax)
		buf[1] = byte(ext >> 24)
		buf[2] = byte(ext >> 16)
		buf[3] = byte(ext >> 8)
		buf[4] = byte(ext)
		buf[5] = byte(code)
		headerLen = 6
		// The reference's own bug: the forward (shrink) branch targets
		// tkl+3, not the correct tkl+6, in this tier only.
		if optionsShift > tkl+minTCPHeaderLen+4 {
			moveOptions(buf, tkl+minTCPHeaderLen+1, optionsShift, optionsLen)
		} else {
			moveOptions(buf, tkl+minTCPHeaderLen+4, optionsShift, optionsLen)
		}
	}

	if tkl > 0 {
		copy(buf[headerLen:headerLen+tkl], token[:tkl])
	}

	idx := headerLen + tkl + optionsLen
	if len(payload) > 0 {
		buf[idx] = payloadMarker
		idx++
		copy(buf[idx:], payload)
		idx += len(payload)
	}

	return idx
}

func moveOptions(buf []byte, dest, src, length int) {
	if dest != src && length > 0 {
		copy(buf[dest:dest+length], buf[src:src+length])
	}
}

// ParseTCP parses a TCP CoAP response against the request it answers and
// returns the response's code, the flags classifying it, and the index
// of the first options byte (the offset coapmsg.DecodeOptions should
// start from). Grounded on ucoap_tcp.c's parse_response and
// extract_data_length.
func ParseTCP(request, response []byte) (code Code, flags RespFlags, optionsStart int, err error) {
	if len(response) <= 1 || len(request) <= 1 {
		return 0, 0, 0, ErrInvalidPacket
	}

	respTKL := int(response[0] & 0x0f)
	reqTKL := int(request[0] & 0x0f)
	if respTKL != reqTKL {
		return 0, 0, 0, ErrInvalidPacket
	}

	respDataLen, respIdx, ok := ExtractDataLength(response[0]>>4, response[1:])
	if !ok {
		return 0, 0, 0, ErrInvalidPacket
	}
	respIdx++ // account for the leading length-header byte already consumed

	_, reqIdx, ok := ExtractDataLength(request[0]>>4, request[1:])
	if !ok {
		return 0, 0, 0, ErrInvalidPacket
	}
	reqIdx++

	if respDataLen+uint32(respTKL)+uint32(respIdx)+1 > uint32(len(response)) {
		return 0, 0, 0, ErrInvalidPacket
	}

	respCode := Code(response[respIdx])
	respIdx++

	switch respCode.Class() {
	case ClassSuccess:
		flags |= RespSuccess
	case ClassTCPSignal:
		flags |= RespTCPSignal
	case ClassBadRequest, ClassServerErr:
		flags |= RespFailure
	default:
		return 0, 0, 0, ErrInvalidPacket
	}
	flags |= RespSeparate

	if respTKL > 0 {
		if len(response) < respIdx+respTKL || len(request) < reqIdx+1+respTKL {
			return 0, 0, 0, ErrInvalidPacket
		}
		for i := 0; i < respTKL; i++ {
			if response[respIdx+i] != request[reqIdx+1+i] {
				return 0, 0, 0, ErrInvalidPacket
			}
		}
	}

	optionsStart = len(response) - int(respDataLen)
	return respCode, flags, optionsStart, nil
}

// ExtBytesForNibble returns how many header extension bytes follow the
// length/tkl byte for a given length nibble: 0 for a direct length, 1/2/4
// for the three extended tiers. A transport reading TCP framing off a
// raw stream (transport/tcpnet) needs this before it can call
// ExtractDataLength, since that many bytes must be buffered first.
func ExtBytesForNibble(lenNibble byte) int {
	switch lenNibble {
	case tcpLen1Byte:
		return 1
	case tcpLen2Byte:
		return 2
	case tcpLen4Byte:
		return 4
	default:
		return 0
	}
}

// ExtractDataLength reads the extended length bytes (if any) that follow
// the length-header byte, given its 4-bit length nibble, and returns the
// decoded data length and how many extension bytes it consumed. Exported
// so a stream transport (transport/tcpnet) can use the exact same
// decoding the parser does to know how many more bytes to read before a
// frame is complete.
func ExtractDataLength(lenNibble byte, buf []byte) (dataLen uint32, consumed int, ok bool) {
	switch lenNibble {
	case tcpLen1Byte:
		if len(buf) < 1 {
			return 0, 0, false
		}
		return uint32(buf[0]) + tcpLenMin, 1, true

	case tcpLen2Byte:
		if len(buf) < 2 {
			return 0, 0, false
		}
		return (uint32(buf[0])<<8 | uint32(buf[1])) + tcpLenMed, 2, true

	case tcpLen4Byte:
		if len(buf) < 4 {
			return 0, 0, false
		}
		v := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
		return v + tcpLenMax, 4, true

	default:
		return uint32(lenNibble), 0, true
	}
}
