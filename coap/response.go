package coap

import (
	"io"

	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/pdu"
)

// A Response is a CoAP response, the counterpart to Request.
type Response struct {
	Code   pdu.Code // e.g. 2.05
	Status string   // Code.String(), e.g. "2.05"

	// Options carries every option the response set, flattened from the
	// engine's linked-list form for Get/GetAll/Path convenience.
	Options coapmsg.Options

	// Body represents the response payload. Always non-nil, even for a
	// response with no payload -- callers don't need a nil check before
	// reading.
	Body io.ReadCloser

	// Request is the request that produced this Response.
	Request *Request
}
