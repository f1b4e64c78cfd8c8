package engine

import "errors"

// The closed error taxonomy every failure Do can return. Each is one of
// these (or a wrapped variant of one, inspectable with errors.Is),
// coapmsg.ErrWrongOptions, or an error returned by a host-supplied
// collaborator. coapmsg.ErrNoOptions never reaches the caller: Do treats
// it as a response without options.
var (
	// ErrBusy is returned when Do is called while the handle already
	// has a request in flight -- only one request may be outstanding
	// on a Handle at a time.
	ErrBusy = errors.New("engine: handle busy with another request")

	// ErrParam is returned for a malformed RequestDescriptor, e.g. a
	// non-empty token on an empty-code request.
	ErrParam = errors.New("engine: invalid request parameters")

	// ErrNoFreeMem is returned when the configured MemPool can't
	// satisfy a buffer allocation.
	ErrNoFreeMem = errors.New("engine: no free memory")

	// ErrTimeout is returned when the response-wait phase times out, and
	// when the ACK phase of a Confirmable send runs out of
	// retransmissions without any reply (reliability.ErrTimeout is
	// translated to this error).
	ErrTimeout = errors.New("engine: timed out waiting for a response")

	// ErrNrstAnswer is returned when the peer resets the request.
	ErrNrstAnswer = errors.New("engine: request was reset")

	// ErrNoAck is returned when a reply arrived during the ACK phase
	// of a Confirmable send but failed to parse as a valid ACK/RST for
	// this request.
	ErrNoAck = errors.New("engine: received an invalid packet while waiting for an ack")

	// ErrNoResp is returned when a reply arrived during the separate-
	// response wait but failed to parse as a valid response.
	ErrNoResp = errors.New("engine: received an invalid packet while waiting for a response")

	// ErrRxBuffFull is returned by RxByte/RxPacket when incoming data
	// would overflow the response buffer.
	ErrRxBuffFull = errors.New("engine: response buffer full")

	// ErrWrongState is returned by RxByte/RxPacket when the handle
	// isn't currently waiting for a response.
	ErrWrongState = errors.New("engine: handle is not waiting for a response")
)
