package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/pdu"
	"github.com/lobaro/coap-engine/testconn"
)

// fixedID is a deterministic IDGenerator for tests that need to predict
// the message ID a Handle will put on the wire.
type fixedID struct{ id uint16 }

func (f fixedID) NextMessageID() uint16 { return f.id }

func newTestHandle(t *testing.T) (*Handle, *testconn.FakeSession) {
	t.Helper()
	fs := testconn.NewFakeSession()
	h := NewHandle(DefaultConfig(), TransportUDP, fs, fs)
	h.IDs = fixedID{id: 0x1234}
	h.Tokens = &CountingTokenFiller{}
	h.Signals = NopSink{}
	fs.Bind(h)
	return h, fs
}

func TestDo_RejectsWhenBusy(t *testing.T) {
	h, _ := newTestHandle(t)
	h.busy = true

	_, err := h.Do(RequestDescriptor{Type: pdu.NonConfirmable, Code: pdu.GET})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("got %v, want ErrBusy", err)
	}
}

func TestDo_RejectsBadParams(t *testing.T) {
	h, _ := newTestHandle(t)

	_, err := h.Do(RequestDescriptor{Type: pdu.NonConfirmable, Code: pdu.CodeEmpty, TKL: 1})
	if !errors.Is(err, ErrParam) {
		t.Fatalf("got %v, want ErrParam", err)
	}
}

func TestDo_NonConfirmableFireAndForget(t *testing.T) {
	h, fs := newTestHandle(t)

	result, err := h.Do(RequestDescriptor{Type: pdu.NonConfirmable, Code: pdu.GET})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result without a callback, got %+v", result)
	}
	if len(fs.Sent()) != 1 {
		t.Fatalf("expected exactly one packet sent, got %d", len(fs.Sent()))
	}
}

func TestDo_ConfirmablePiggybackedSuccess(t *testing.T) {
	h, fs := newTestHandle(t)

	ack := make([]byte, 64)
	n := pdu.AssembleUDP(ack, pdu.Acknowledgement, pdu.Content, 0x1234, []byte{1}, nil, []byte("hello"))
	fs.QueueResponse(ack[:n])

	var got *Result
	_, err := h.Do(RequestDescriptor{
		Type: pdu.Confirmable,
		Code: pdu.GET,
		TKL:  1,
		ResponseCallback: func(r *Result) {
			got = r
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected the response callback to run")
	}
	if got.Code != pdu.Content {
		t.Fatalf("got code %s, want %s", got.Code, pdu.Content)
	}
	if string(got.Payload) != "hello" {
		t.Fatalf("got payload %q, want %q", got.Payload, "hello")
	}
	if len(fs.Sent()) != 1 {
		t.Fatalf("a piggybacked ack needs no separate ack reply, got %d sends", len(fs.Sent()))
	}
}

func TestDo_ConfirmableRetransmitsThenSucceeds(t *testing.T) {
	h, fs := newTestHandle(t)
	fs.RetransmitsNeeded = 2

	ack := make([]byte, 64)
	n := pdu.AssembleUDP(ack, pdu.Acknowledgement, pdu.CodeEmpty, 0x1234, nil, nil, nil)
	fs.QueueResponse(ack[:n])

	_, err := h.Do(RequestDescriptor{Type: pdu.Confirmable, Code: pdu.GET})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(fs.Sent()); got != 3 {
		t.Fatalf("expected 2 retransmits + 1 original send = 3 packets, got %d", got)
	}
}

func TestDo_ConfirmableExhaustsRetransmissions(t *testing.T) {
	h, fs := newTestHandle(t)
	h.Config.MaxRetransmit = 1
	h.Config.AckTimeout = 2 * time.Millisecond
	fs.RetransmitsNeeded = 99 // never deliver

	_, err := h.Do(RequestDescriptor{Type: pdu.Confirmable, Code: pdu.GET})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}

func TestDo_ResetIsReported(t *testing.T) {
	h, fs := newTestHandle(t)

	rst := make([]byte, 8)
	n := pdu.AssembleUDP(rst, pdu.Reset, pdu.CodeEmpty, 0x1234, nil, nil, nil)
	fs.QueueResponse(rst[:n])

	_, err := h.Do(RequestDescriptor{Type: pdu.Confirmable, Code: pdu.GET})
	if !errors.Is(err, ErrNrstAnswer) {
		t.Fatalf("got %v, want ErrNrstAnswer", err)
	}
}

func TestDo_MismatchedTokenIsRejected(t *testing.T) {
	h, fs := newTestHandle(t)

	ack := make([]byte, 64)
	// A reply with a different (wrong-length) token can never match.
	n := pdu.AssembleUDP(ack, pdu.Acknowledgement, pdu.Content, 0x1234, []byte{1, 2}, nil, nil)
	fs.QueueResponse(ack[:n])

	_, err := h.Do(RequestDescriptor{Type: pdu.Confirmable, Code: pdu.GET, TKL: 1})
	if !errors.Is(err, ErrNoAck) {
		t.Fatalf("got %v, want ErrNoAck", err)
	}
}

func TestDo_SeparateResponseNeedsAck(t *testing.T) {
	h, fs := newTestHandle(t)

	ack := make([]byte, 16)
	n := pdu.AssembleUDP(ack, pdu.Acknowledgement, pdu.CodeEmpty, 0x1234, nil, nil, nil)
	fs.QueueResponse(ack[:n])

	sep := make([]byte, 64)
	opts := coapmsg.Options{}.AddUint(coapmsg.ContentFormat, 0)
	n = pdu.AssembleUDP(sep, pdu.Confirmable, pdu.Content, 0x9999, []byte{1}, opts.Chain(), []byte("ok"))
	fs.QueueResponse(sep[:n])

	var got *Result
	_, err := h.Do(RequestDescriptor{
		Type: pdu.Confirmable,
		Code: pdu.GET,
		TKL:  1,
		ResponseCallback: func(r *Result) {
			got = r
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || string(got.Payload) != "ok" {
		t.Fatalf("got %+v, want payload \"ok\"", got)
	}
	if got.Options == nil || got.Options.Number != coapmsg.ContentFormat {
		t.Fatalf("expected the Content-Format option to decode, got %+v", got.Options)
	}

	sent := fs.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected the initial request plus a trailing empty ack, got %d sends", len(sent))
	}
	ackSent := sent[1]
	if ackSent[1] != byte(pdu.CodeEmpty) {
		t.Fatalf("expected the second packet to be an empty ack, got code byte %x", ackSent[1])
	}
}

func TestDo_NoFreeMemSurfacesFromPool(t *testing.T) {
	fs := testconn.NewFakeSession()
	h := NewHandle(DefaultConfig(), TransportUDP, fs, fs)
	h.Mem = NewFixedPool(10) // smaller than MaxPDUSize, so Alloc always fails
	fs.Bind(h)

	_, err := h.Do(RequestDescriptor{Type: pdu.NonConfirmable, Code: pdu.GET})
	if !errors.Is(err, ErrNoFreeMem) {
		t.Fatalf("got %v, want ErrNoFreeMem", err)
	}
}
