// Package udpnet is the default RFC 7252 transport: a real UDP socket
// that Wait reads itself, handing each datagram to engine.Handle.RxPacket.
// Grounded on the shape of transport_uart.go's RoundTrip -- dial, write
// the outgoing packet, read with a deadline -- adapted from a
// per-request dial to a long-lived connected socket, since an
// engine.Handle owns one logical peer for its lifetime rather than
// dialing fresh per call the way a net/http-style transport does per
// RoundTrip.
package udpnet

import (
	"net"
	"time"

	"github.com/lobaro/coap-engine/engine"
	"github.com/pkg/errors"
)

// Conn is an engine.Transmitter and engine.EventWaiter over a connected
// UDP socket. It reads packets directly off the socket and hands them to
// the bound Handle via RxPacket, rather than implementing its own
// buffering -- the "pull" side of the push/pull transport split (see
// DESIGN.md).
type Conn struct {
	sock   *net.UDPConn
	handle *engine.Handle
}

// Dial opens a UDP socket connected to addr (host:port). Only unicast is
// supported -- multicast group membership is explicitly out of scope,
// and socket/udp6socket.go's golang.org/x/net/ipv6 dependency existed
// solely to join one.
func Dial(addr string) (*Conn, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "udpnet: resolve")
	}
	sock, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, errors.Wrap(err, "udpnet: dial")
	}
	return &Conn{sock: sock}, nil
}

// Bind gives the connection the Handle to deliver received packets to.
// Call it once, right after constructing the Handle with this Conn as
// both its Transmitter and EventWaiter.
func (c *Conn) Bind(h *engine.Handle) { c.handle = h }

func (c *Conn) Close() error { return c.sock.Close() }

func (c *Conn) TxData(data []byte) error {
	_, err := c.sock.Write(data)
	return err
}

// Wait reads one datagram with the given deadline. A read timeout is
// reported as ok=false, err=nil -- an ordinary "nothing arrived yet", not
// a failure -- matching engine.EventWaiter's contract.
func (c *Conn) Wait(timeout time.Duration) (bool, error) {
	if c.handle == nil {
		return false, errors.New("udpnet: Conn not bound to a Handle")
	}

	if err := c.sock.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return false, err
	}

	buf := make([]byte, 2048)
	n, err := c.sock.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return false, nil
		}
		return false, err
	}

	if err := c.handle.RxPacket(buf[:n]); err != nil {
		return false, err
	}
	return true, nil
}
