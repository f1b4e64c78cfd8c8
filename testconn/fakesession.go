// Package testconn provides a synchronous, in-memory stand-in for a
// real transport, grounded on coap/connector_test.go's
// TestConnector/PacketBuffer pattern, for deterministic reliability,
// block-wise, and engine tests that never touch a real socket.
package testconn

import (
	"errors"
	"sync"
	"time"

	"github.com/lobaro/coap-engine/engine"
)

// ErrNotBound is returned by Wait when a queued response arrives before
// Bind has given the session a Handle to deliver it to.
var ErrNotBound = errors.New("testconn: FakeSession not bound to a Handle")

// FakeSession is an engine.Transmitter and engine.EventWaiter that
// records every sent packet and, on Wait, delivers the next queued
// response straight into the bound Handle via RxPacket -- standing in
// for a peer that always has its next reply ready.
type FakeSession struct {
	mu     sync.Mutex
	handle *engine.Handle
	sent   [][]byte
	inbox  [][]byte

	// RetransmitsNeeded, when > 0, makes the first that many Wait calls
	// report no event (simulating lost packets) before delivering the
	// queued response on the (RetransmitsNeeded+1)-th call -- for
	// exercising reliability.AwaitAck's retransmission path.
	RetransmitsNeeded int
	waits             int
}

func NewFakeSession() *FakeSession {
	return &FakeSession{}
}

// Bind gives the session the Handle to deliver queued responses to.
// Call it once, right after constructing the Handle with this session
// as both its Transmitter and EventWaiter.
func (f *FakeSession) Bind(h *engine.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handle = h
}

func (f *FakeSession) TxData(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), data...)
	f.sent = append(f.sent, cp)
	return nil
}

// QueueResponse arranges for a future Wait call to deliver data as
// though it had just arrived from the peer.
func (f *FakeSession) QueueResponse(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = append(f.inbox, data)
}

func (f *FakeSession) Wait(timeout time.Duration) (bool, error) {
	f.mu.Lock()
	f.waits++
	if f.waits <= f.RetransmitsNeeded {
		f.mu.Unlock()
		return false, nil
	}

	if len(f.inbox) == 0 {
		f.mu.Unlock()
		return false, nil
	}

	data := f.inbox[0]
	f.inbox = f.inbox[1:]
	handle := f.handle
	f.mu.Unlock()

	if handle == nil {
		return false, ErrNotBound
	}
	if err := handle.RxPacket(data); err != nil {
		return false, err
	}
	return true, nil
}

// Sent returns every packet TxData has recorded, in order.
func (f *FakeSession) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

// LastSent returns the most recently transmitted packet, or nil.
func (f *FakeSession) LastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}
