package engine

import (
	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/pdu"
)

// TransportKind selects which wire framing Do uses: RFC 7252 UDP or
// RFC 8323 TCP. A Handle is fixed to one kind for its lifetime, mirroring
// ucoap_handle.transport.
type TransportKind uint8

const (
	TransportUDP TransportKind = iota
	TransportTCP
)

func (k TransportKind) String() string {
	if k == TransportTCP {
		return "TCP"
	}
	return "UDP"
}

// RequestDescriptor mirrors ucoap.c's ucoap_request_descriptor:
// everything Do needs to assemble and send one request. Type is ignored
// for TCP, which
// has no message-type concept of its own (RFC 8323 section 3.2).
type RequestDescriptor struct {
	Type    pdu.Type
	Code    pdu.Code
	TKL     int // token length Do asks the TokenFiller to fill; 0 for no token
	Options coapmsg.Options
	Payload []byte

	// ResponseCallback, when non-nil, makes Do wait for a response (a
	// piggybacked ACK already satisfies it; otherwise Do waits
	// separately) and is invoked with the decoded Result before Do
	// returns. A nil callback means Do returns once the request -- and,
	// for a Confirmable UDP send, its ACK -- is accounted for.
	ResponseCallback func(*Result)
}

// Result mirrors ucoap.c's ucoap_result_data: a response decoded against
// the request that solicited it. Options is the head of the linked
// chain coapmsg.DecodeOptions produced; it borrows memory from Do's own
// scratch buffers and is only valid until the next Do call on this
// Handle, matching the reference's buffer-reuse trick (see DESIGN.md).
type Result struct {
	Code    pdu.Code
	Options *coapmsg.Option
	Payload []byte
}
