package engine

import "time"

// RxByte feeds one incoming byte into the response buffer, for hosts
// that only have a byte-at-a-time transport (a UART, a push-model
// modem) rather than a socket they can read from directly. It mirrors
// ucoap_rx_byte exactly: a no-op error outside the response-wait window,
// and ErrRxBuffFull the moment MaxPDUSize would be exceeded.
func (h *Handle) RxByte(b byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.waitingResp {
		return ErrWrongState
	}

	if h.respLen >= len(h.respBuf) {
		h.emit(SignalResponseTooLongError, nil)
		return ErrRxBuffFull
	}

	h.respBuf[h.respLen] = b
	h.respLen++
	h.emit(SignalResponseByteDidReceive, nil)
	h.notifyLocked()
	return nil
}

// RxPacket feeds one complete incoming datagram, for hosts that read
// whole packets off a socket themselves and push them in rather than
// implementing EventWaiter directly. Mirrors ucoap_rx_packet.
func (h *Handle) RxPacket(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.waitingResp {
		return ErrWrongState
	}

	n := len(data)
	if n > len(h.respBuf) {
		n = len(h.respBuf)
	}
	copy(h.respBuf[:n], data[:n])
	h.respLen = n

	if len(data) > len(h.respBuf) {
		h.emit(SignalResponseTooLongError, nil)
		return ErrRxBuffFull
	}

	h.emit(SignalResponseDidReceive, nil)
	h.notifyLocked()
	return nil
}

// notifyLocked wakes a blocked PushWaiter. Called with h.mu held.
func (h *Handle) notifyLocked() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// PushWaiter returns an EventWaiter bound to this Handle's internal
// notify channel, woken by RxByte/RxPacket. Assign it to Handle.Wait for
// any transport that pushes data in rather than reading a socket itself
// -- the default for a byte- or packet-oriented host. Socket-based
// transports (transport/udpnet, transport/tcpnet) implement EventWaiter
// themselves instead: their Wait reads the socket and hands each
// received packet to RxPacket.
func (h *Handle) PushWaiter() EventWaiter {
	return pushWaiter{h}
}

type pushWaiter struct {
	h *Handle
}

func (p pushWaiter) Wait(timeout time.Duration) (bool, error) {
	select {
	case <-p.h.notify:
		return true, nil
	case <-time.After(timeout):
		return false, nil
	}
}
