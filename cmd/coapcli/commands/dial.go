package commands

import (
	"net/url"
	"time"

	"github.com/lobaro/coap-engine/coap"
	"github.com/lobaro/coap-engine/engine"
	"github.com/lobaro/coap-engine/transport/tcpnet"
	"github.com/lobaro/coap-engine/transport/udpnet"
	"github.com/pkg/errors"
)

// peerCloser is satisfied by both transport/udpnet.Conn and
// transport/tcpnet.Conn; coapcli dials exactly one peer per invocation
// and closes it before exiting.
type peerCloser interface {
	Close() error
}

// dial opens a Handle against u's host using the transport its scheme
// selects, wiring the logrus/nop SignalSink -v picks.
func dial(u *url.URL, cfg engine.Config) (*engine.Handle, peerCloser, error) {
	switch u.Scheme {
	case coap.SchemeUDP:
		conn, err := udpnet.Dial(u.Host)
		if err != nil {
			return nil, nil, err
		}
		h := engine.NewHandle(cfg, engine.TransportUDP, conn, conn)
		h.Signals = signalSink()
		conn.Bind(h)
		return h, conn, nil

	case coap.SchemeTCP:
		conn, err := tcpnet.Dial(u.Host)
		if err != nil {
			return nil, nil, err
		}
		h := engine.NewHandle(cfg, engine.TransportTCP, conn, conn)
		h.Signals = signalSink()
		conn.Bind(h)
		return h, conn, nil

	default:
		return nil, nil, errors.Errorf("coapcli: unsupported scheme %q (want %q or %q)", u.Scheme, coap.SchemeUDP, coap.SchemeTCP)
	}
}

func parseTimeout() (time.Duration, error) {
	return time.ParseDuration(flagTimeout)
}
