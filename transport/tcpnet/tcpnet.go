// Package tcpnet is the default RFC 8323 transport: a real TCP socket
// carrying CoAP's variable-length-header framing directly on the
// stream. Frames are read and reassembled here, then each complete frame
// is handed to engine.Handle.RxPacket. Grounded the same way transport/udpnet
// is, on transport_uart.go's dial/read shape.
package tcpnet

import (
	"bufio"
	"io"
	"net"
	"time"

	"github.com/lobaro/coap-engine/engine"
	"github.com/lobaro/coap-engine/pdu"
	"github.com/pkg/errors"
)

// Conn is an engine.Transmitter and engine.EventWaiter over a connected
// TCP socket. Unlike UDP, CoAP-over-TCP has no inherent datagram
// boundary, so Wait reassembles one complete frame -- the length/tkl
// byte, its length extension bytes, the code byte, the token, and the
// options+payload region -- before handing it to the bound Handle.
type Conn struct {
	sock   *net.TCPConn
	r      *bufio.Reader
	handle *engine.Handle
}

func Dial(addr string) (*Conn, error) {
	raddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "tcpnet: resolve")
	}
	sock, err := net.DialTCP("tcp", nil, raddr)
	if err != nil {
		return nil, errors.Wrap(err, "tcpnet: dial")
	}
	return &Conn{sock: sock, r: bufio.NewReader(sock)}, nil
}

func (c *Conn) Bind(h *engine.Handle) { c.handle = h }

func (c *Conn) Close() error { return c.sock.Close() }

func (c *Conn) TxData(data []byte) error {
	_, err := c.sock.Write(data)
	return err
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Wait reads and reassembles one complete TCP-framed CoAP message.
//
// A read timeout that lands exactly on a frame boundary is reported as
// ok=false, err=nil, same as udpnet.Conn.Wait. A timeout that lands
// mid-frame desynchronizes the stream -- the already-consumed header
// bytes can't be put back -- and is surfaced as an error; a production
// host should close and redial rather than keep reading after that.
func (c *Conn) Wait(timeout time.Duration) (bool, error) {
	if c.handle == nil {
		return false, errors.New("tcpnet: Conn not bound to a Handle")
	}

	if err := c.sock.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return false, err
	}

	b0, err := c.r.ReadByte()
	if err != nil {
		if isTimeout(err) {
			return false, nil
		}
		return false, err
	}

	tkl := int(b0 & 0x0f)
	nibble := b0 >> 4
	extN := pdu.ExtBytesForNibble(nibble)

	ext := make([]byte, extN)
	if extN > 0 {
		if _, err := io.ReadFull(c.r, ext); err != nil {
			return false, err
		}
	}

	dataLen, _, ok := pdu.ExtractDataLength(nibble, ext)
	if !ok {
		return false, pdu.ErrInvalidPacket
	}

	rest := make([]byte, 1+tkl+int(dataLen)) // code byte, token, options+payload
	if _, err := io.ReadFull(c.r, rest); err != nil {
		return false, err
	}

	frame := make([]byte, 0, 1+extN+len(rest))
	frame = append(frame, b0)
	frame = append(frame, ext...)
	frame = append(frame, rest...)

	if err := c.handle.RxPacket(frame); err != nil {
		return false, err
	}
	return true, nil
}
