package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/pdu"
	"github.com/lobaro/coap-engine/reliability"
)

// maxScratchOptions bounds how many options a single response may carry,
// the capacity of the scratch array DecodeOptions reuses across calls.
const maxScratchOptions = 16

// Handle drives one request at a time over one transport, mirroring
// ucoap_handle. It is not safe for concurrent use by multiple goroutines
// issuing overlapping Do calls -- Do itself enforces that with ErrBusy,
// the same single-in-flight invariant ucoap_send_coap_request checks via
// UCOAP_SENDING_PACKET.
type Handle struct {
	Config    Config
	Transport TransportKind

	Tx      Transmitter
	Wait    EventWaiter
	Signals SignalSink
	IDs     IDGenerator
	Tokens  TokenFiller
	Mem     MemPool

	mu          sync.Mutex
	busy        bool
	waitingResp bool

	reqBuf  []byte
	reqLen  int
	respBuf []byte
	respLen int

	opts [maxScratchOptions]coapmsg.Option

	notify chan struct{}
}

// NewHandle builds a Handle with the reference's default collaborators:
// a sequential message-ID generator, a random token filler, an
// unbounded heap allocator, and a discarding signal sink. Override any
// field directly before the first Do call.
func NewHandle(cfg Config, kind TransportKind, tx Transmitter, wait EventWaiter) *Handle {
	return &Handle{
		Config:    cfg,
		Transport: kind,
		Tx:        tx,
		Wait:      wait,
		Signals:   NopSink{},
		IDs:       NewSeqIDGenerator(),
		Tokens:    NewRandomTokenFiller(),
		Mem:       HeapPool{},
		notify:    make(chan struct{}, 1),
	}
}

func (h *Handle) emit(s Signal, fields map[string]interface{}) {
	sink := h.Signals
	if sink == nil {
		sink = NopSink{}
	}
	sink.Signal(s, fields)
}

// alloc mirrors init_coap_driver: a request buffer is always needed, a
// response buffer only when the send is Confirmable (for the ACK wait)
// or a response is actually expected.
func (h *Handle) alloc(req RequestDescriptor) error {
	var err error
	h.reqBuf, err = h.Mem.Alloc(h.Config.MaxPDUSize)
	if err != nil {
		return err
	}

	if req.Type == pdu.Confirmable || req.ResponseCallback != nil {
		h.respBuf, err = h.Mem.Alloc(h.Config.MaxPDUSize)
		if err != nil {
			h.Mem.Free(h.reqBuf)
			h.reqBuf = nil
			return err
		}
	}

	return nil
}

// free mirrors deinit_coap_driver, returning both buffers to the pool.
func (h *Handle) free() {
	if h.respBuf != nil {
		h.Mem.Free(h.respBuf)
		h.respBuf = nil
	}
	if h.reqBuf != nil {
		h.Mem.Free(h.reqBuf)
		h.reqBuf = nil
	}
	h.reqLen = 0
	h.respLen = 0
}

func (h *Handle) setWaitingResp(v bool) {
	h.mu.Lock()
	h.waitingResp = v
	if v {
		h.respLen = 0
	}
	h.mu.Unlock()
}

// Do sends one request to completion: assembly, transmission, the
// Confirmable ACK wait and retransmission (UDP only), the response wait
// when a callback is given, and -- when the peer's response demands it
// -- the trailing empty ACK. It returns the decoded Result only when
// ResponseCallback was given; a nil Result otherwise means "sent, and
// whatever acknowledgement applies was accounted for".
func (h *Handle) Do(req RequestDescriptor) (*Result, error) {
	h.mu.Lock()
	if h.busy {
		h.mu.Unlock()
		return nil, ErrBusy
	}
	h.busy = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.busy = false
		h.mu.Unlock()
		h.free()
		h.emit(SignalRoutinePacketDidFinish, nil)
	}()

	if req.Code == pdu.CodeEmpty && req.TKL != 0 {
		return nil, ErrParam
	}

	if err := h.alloc(req); err != nil {
		return nil, err
	}

	token := h.Tokens.FillToken(req.TKL)

	if h.Transport == TransportTCP {
		return h.sendTCP(req, token)
	}
	return h.sendUDP(req, token)
}

// sendUDP is grounded on ucoap_udp.c's ucoap_send_coap_request_udp.
func (h *Handle) sendUDP(req RequestDescriptor, token []byte) (*Result, error) {
	mid := h.IDs.NextMessageID()
	h.reqLen = pdu.AssembleUDP(h.reqBuf, req.Type, req.Code, mid, token, req.Options.Chain(), req.Payload)

	h.emit(SignalRoutinePacketWillStart, map[string]interface{}{"code": req.Code.String(), "type": req.Type.String()})

	if err := h.Tx.TxData(h.reqBuf[:h.reqLen]); err != nil {
		return nil, err
	}

	var flags pdu.RespFlags

	if req.Type == pdu.Confirmable {
		rc := reliability.Config{
			AckTimeout:      h.Config.AckTimeout,
			AckRandomFactor: h.Config.AckRandomFactor,
			MaxRetransmit:   h.Config.MaxRetransmit,
		}

		h.setWaitingResp(true)
		err := reliability.AwaitAck(rc,
			func(timeout time.Duration) (bool, error) { return h.Wait.Wait(timeout) },
			func() error {
				h.emit(SignalTxRetrPacket, nil)
				return h.Tx.TxData(h.reqBuf[:h.reqLen])
			},
		)
		h.setWaitingResp(false)

		if err != nil {
			if errors.Is(err, reliability.ErrTimeout) {
				// ucoap_udp.c's waiting_ack returns its own timeout here
				// rather than UCOAP_NO_ACK_ERROR when retransmissions run
				// out with no reply at all; kept matching the reference
				// even though a stricter reading of the no-reply case
				// would call this NoAck too (see DESIGN.md).
				return nil, ErrTimeout
			}
			return nil, err
		}

		parsed, perr := pdu.ParseUDP(h.reqBuf[:h.reqLen], h.respBuf[:h.respLen])
		switch {
		case perr != nil:
			h.emit(SignalWrongPacketDidReceive, nil)
			return nil, ErrNoAck
		case parsed.Has(pdu.RespNrst):
			h.emit(SignalNrstDidReceive, nil)
			return nil, ErrNrstAnswer
		default:
			flags = parsed
			h.emit(SignalAckDidReceive, nil)
		}
	}

	if req.ResponseCallback == nil {
		return nil, nil
	}

	if req.Type != pdu.Confirmable || !flags.Has(pdu.RespPiggybacked) {
		h.setWaitingResp(true)
		ok, err := h.Wait.Wait(h.Config.RespTimeout)
		h.setWaitingResp(false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTimeout
		}

		parsed, perr := pdu.ParseUDP(h.reqBuf[:h.reqLen], h.respBuf[:h.respLen])
		if perr != nil {
			h.emit(SignalWrongPacketDidReceive, nil)
			return nil, ErrNoResp
		}
		if parsed.Has(pdu.RespNrst) {
			h.emit(SignalNrstDidReceive, nil)
			return nil, ErrNrstAnswer
		}
		flags = parsed
	}

	reqTKL := int(h.respBuf[0] & 0x0f)
	result, err := h.decodeResult(pdu.Code(h.respBuf[1]), reqTKL+4)
	if err != nil {
		return nil, err
	}

	req.ResponseCallback(result)

	if flags.Has(pdu.RespNeedSendAck) {
		h.reqLen = pdu.BuildEmptyAck(h.reqBuf, h.respBuf[:h.respLen])
		h.emit(SignalTxAckPacket, nil)
		if err := h.Tx.TxData(h.reqBuf[:h.reqLen]); err != nil {
			return result, err
		}
	}

	return result, nil
}

// sendTCP is grounded on ucoap_tcp.c's ucoap_send_coap_request_tcp. RFC
// 8323 has no ACK/retransmission concept of its own -- the underlying
// stream transport already guarantees delivery -- so there is no
// Confirmable phase to run here, only the optional response wait.
func (h *Handle) sendTCP(req RequestDescriptor, token []byte) (*Result, error) {
	h.reqLen = pdu.AssembleTCP(h.reqBuf, req.TKL, req.Code, token, req.Options.Chain(), req.Payload)

	h.emit(SignalRoutinePacketWillStart, map[string]interface{}{"code": req.Code.String()})

	if err := h.Tx.TxData(h.reqBuf[:h.reqLen]); err != nil {
		return nil, err
	}

	if req.ResponseCallback == nil {
		return nil, nil
	}

	h.setWaitingResp(true)
	ok, err := h.Wait.Wait(h.Config.RespTimeout)
	h.setWaitingResp(false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTimeout
	}

	code, flags, optStart, perr := pdu.ParseTCP(h.reqBuf[:h.reqLen], h.respBuf[:h.respLen])
	if perr != nil {
		h.emit(SignalWrongPacketDidReceive, nil)
		return nil, ErrNoResp
	}
	if flags.Has(pdu.RespNrst) {
		h.emit(SignalNrstDidReceive, nil)
		return nil, ErrNrstAnswer
	}

	result, err := h.decodeResult(code, optStart)
	if err != nil {
		return nil, err
	}

	req.ResponseCallback(result)
	return result, nil
}

// decodeResult decodes the options starting at optStartIdx in the
// response buffer into the Handle's reused scratch array and slices out
// whatever payload follows, the same buffer-reuse trick
// ucoap_send_coap_request_udp/_tcp both use (see DESIGN.md).
func (h *Handle) decodeResult(code pdu.Code, optStartIdx int) (*Result, error) {
	if optStartIdx >= h.respLen {
		return &Result{Code: code}, nil
	}

	n, payloadStart, err := coapmsg.DecodeOptions(h.opts[:], h.respBuf[:h.respLen], optStartIdx)
	if err != nil && !errors.Is(err, coapmsg.ErrNoOptions) {
		return nil, err
	}

	var head *coapmsg.Option
	if n > 0 {
		head = &h.opts[0]
	}

	var payload []byte
	if payloadStart < h.respLen {
		payload = h.respBuf[payloadStart:h.respLen]
	}

	return &Result{Code: code, Options: head, Payload: payload}, nil
}
