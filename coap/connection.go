package coap

// peerConn abstracts the dialed udpnet.Conn/tcpnet.Conn enough for
// Transport to close it from Transport.Close, without depending on
// either transport package directly for anything but dialing.
type peerConn interface {
	Close() error
}
