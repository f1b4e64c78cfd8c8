package engine

import "time"

// Transmitter is the host-supplied "send these bytes" primitive,
// mirroring ucoap.c's tx_data external collaborator. The underlying
// transport itself (a UDP socket, a TCP stream, a UART) is explicitly
// out of scope for this package; transport/udpnet and transport/tcpnet
// provide default implementations.
type Transmitter interface {
	TxData(data []byte) error
}

// EventWaiter is the host-supplied "block until something happens, or
// the timeout elapses" primitive, mirroring ucoap.c's wait_event
// external collaborator. ok is true the moment the awaited event (an
// ACK, a response, a reset) occurs; false once the full timeout elapses
// with nothing to report. A non-nil error is reserved for a failure of
// the wait primitive itself, never for an ordinary timeout.
type EventWaiter interface {
	Wait(timeout time.Duration) (ok bool, err error)
}

// IDGenerator supplies message IDs, mirroring ucoap.c's get_message_id
// collaborator, re-scoped per Handle rather than a package-global
// counter -- a reentrant port shouldn't keep that state global.
type IDGenerator interface {
	NextMessageID() uint16
}

// TokenFiller supplies request tokens, mirroring ucoap.c's fill_token
// collaborator, likewise re-scoped per Handle.
type TokenFiller interface {
	FillToken(tkl int) []byte
}

// MemPool mirrors ucoap.c's alloc_mem_block/free_mem_block pair,
// modeling a memory-constrained host's allocator. Do calls Alloc at
// most twice per request (a request buffer, and -- only for a
// Confirmable send or when a ResponseCallback is given -- a response
// buffer) and Frees both before
// returning, mirroring ucoap.c's init_coap_driver/deinit_coap_driver
// lifecycle.
type MemPool interface {
	Alloc(size int) ([]byte, error)
	Free(buf []byte)
}
