package pdu

import (
	"bytes"
	"errors"

	"github.com/lobaro/coap-engine/coapmsg"
)

// ErrInvalidPacket is returned by ParseUDP/ParseTCP for anything that
// fails the RFC 7252/8323 framing or correlation checks: wrong version,
// mismatched message ID or token, malformed ACK/RST, or an unrecognized
// code class.
var ErrInvalidPacket = errors.New("pdu: invalid packet")

// RespFlags classifies a parsed response against the request it answers,
// mirroring the reference's ucoap_parsing_result bitmask.
type RespFlags uint8

const (
	RespAck RespFlags = 1 << iota
	RespPiggybacked
	RespSeparate
	RespNeedSendAck
	RespNrst
	RespSuccess
	RespFailure
	RespTCPSignal
)

func (f RespFlags) Has(bit RespFlags) bool { return f&bit != 0 }

const udpHeaderLen = 4

// AssembleUDP writes a complete UDP CoAP message into buf: the 4-byte
// header, the token, the delta-encoded options chain, and (if payload is
// non-empty) the 0xff marker followed by payload. It returns the number
// of bytes written. Grounded on ucoap_udp.c's asemble_request.
func AssembleUDP(buf []byte, typ Type, code Code, mid uint16, token []byte, options *coapmsg.Option, payload []byte) int {
	idx := udpHeaderLen

	if len(token) > 0 {
		copy(buf[idx:], token)
		idx += len(token)
	}

	if options != nil {
		idx += coapmsg.EncodeOptions(buf[idx:], options)
	}

	if len(payload) > 0 {
		buf[idx] = payloadMarker
		idx++
		copy(buf[idx:], payload)
		idx += len(payload)
	}

	buf[0] = 1<<6 | uint8(typ)<<4 | uint8(len(token))
	buf[1] = byte(code)
	buf[2] = byte(mid >> 8)
	buf[3] = byte(mid)

	return idx
}

const payloadMarker = 0xff

// ParseUDP classifies response (the raw bytes received) against request
// (the raw bytes most recently sent on this handle), following RFC 7252
// section 4.2's ACK/RST rules exactly as ucoap_udp.c's parse_response
// does. On success it returns the flags describing what kind of reply
// this is; on any validation failure it returns ErrInvalidPacket.
func ParseUDP(request, response []byte) (RespFlags, error) {
	if len(response) <= 3 || len(request) <= 3 {
		return 0, ErrInvalidPacket
	}

	respVer := response[0] >> 6
	reqVer := request[0] >> 6
	if respVer != reqVer {
		return 0, ErrInvalidPacket
	}

	respType := Type((response[0] >> 4) & 0x3)
	respTKL := int(response[0] & 0x0f)
	reqTKL := int(request[0] & 0x0f)
	respMID := uint16(response[2])<<8 | uint16(response[3])
	reqMID := uint16(request[2])<<8 | uint16(request[3])
	respCode := Code(response[1])

	var flags RespFlags

	switch respType {
	case Acknowledgement:
		flags |= RespAck

		if respMID != reqMID {
			return 0, ErrInvalidPacket
		}

		if respCode != CodeEmpty {
			flags |= RespPiggybacked
		} else if respTKL == 0 && len(response) == 4 {
			return flags, nil
		} else {
			return 0, ErrInvalidPacket
		}

	case Confirmable:
		flags |= RespSeparate | RespNeedSendAck

	case NonConfirmable:
		flags |= RespSeparate

	case Reset:
		if respCode == CodeEmpty && respTKL == 0 && len(response) == 4 {
			flags |= RespNrst
			return flags, nil
		}
		return 0, ErrInvalidPacket

	default:
		return 0, ErrInvalidPacket
	}

	if !flags.Has(RespAck) && respMID == reqMID {
		// A separate response must carry a fresh message ID.
		return 0, ErrInvalidPacket
	}

	if respTKL != reqTKL {
		return 0, ErrInvalidPacket
	}

	if len(response) < 4+respTKL {
		return 0, ErrInvalidPacket
	}

	if !bytes.Equal(response[4:4+respTKL], request[4:4+reqTKL]) {
		return 0, ErrInvalidPacket
	}

	switch respCode.Class() {
	case ClassSuccess:
		flags |= RespSuccess
	case ClassBadRequest, ClassServerErr:
		flags |= RespFailure
	default:
		return 0, ErrInvalidPacket
	}

	return flags, nil
}

// BuildEmptyAck writes an empty ACK (code 0.00, tkl 0) echoing response's
// message ID into buf and returns its length, 4. Grounded on
// ucoap_udp.c's asemble_ack.
func BuildEmptyAck(buf []byte, response []byte) int {
	ver := response[0] >> 6
	buf[0] = ver<<6 | uint8(Acknowledgement)<<4
	buf[1] = byte(CodeEmpty)
	buf[2] = response[2]
	buf[3] = response[3]
	return udpHeaderLen
}
