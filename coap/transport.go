package coap

import (
	"bytes"
	"io"
	"io/ioutil"
	"net/url"
	"strings"
	"sync"

	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/engine"
	"github.com/lobaro/coap-engine/pdu"
	"github.com/lobaro/coap-engine/transport/tcpnet"
	"github.com/lobaro/coap-engine/transport/udpnet"
)

// URL schemes this Transport understands, one per engine.TransportKind.
const (
	SchemeUDP = "coap"
	SchemeTCP = "coap+tcp"
)

// defaultTokenLength is the token length Transport asks engine.Handle to
// fill for every request; every request expects a matchable response, so
// an empty token (only legal for an empty-code message) never applies
// here.
const defaultTokenLength = 2

// RoundTripper is the CoAP counterpart to net/http.RoundTripper: it
// executes one request and returns its response.
type RoundTripper interface {
	RoundTrip(*Request) (*Response, error)
}

// Transport is the default RoundTripper. It keeps one engine.Handle
// alive per peer (scheme+host), dialing transport/udpnet or
// transport/tcpnet on first use -- the same long-lived-connection idea
// transport.go's Transport used, generalized from its single hardcoded
// TransUart field to a scheme-keyed map of peers.
type Transport struct {
	// Config is used for every Handle this Transport dials. The zero
	// value is replaced with engine.DefaultConfig().
	Config engine.Config

	mu    sync.Mutex
	peers map[string]*peer
}

type peer struct {
	handle *engine.Handle
	conn   peerConn
}

var DefaultTransport RoundTripper = &Transport{}

func (t *Transport) RoundTrip(req *Request) (*Response, error) {
	if req.URL == nil {
		req.closeBody()
		return nil, &coapError{err: "coap: nil Request.URL"}
	}

	p, err := t.peerFor(req.URL)
	if err != nil {
		req.closeBody()
		return nil, err
	}

	return roundTripOn(p.handle, req)
}

func (t *Transport) peerFor(u *url.URL) (*peer, error) {
	addr := canonicalAddr(u)
	key := u.Scheme + "://" + addr

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.peers == nil {
		t.peers = make(map[string]*peer)
	}
	if p, ok := t.peers[key]; ok {
		return p, nil
	}

	cfg := t.Config
	if cfg == (engine.Config{}) {
		cfg = engine.DefaultConfig()
	}

	var p *peer
	switch u.Scheme {
	case SchemeUDP:
		conn, err := udpnet.Dial(addr)
		if err != nil {
			return nil, err
		}
		h := engine.NewHandle(cfg, engine.TransportUDP, conn, conn)
		conn.Bind(h)
		p = &peer{handle: h, conn: conn}

	case SchemeTCP:
		conn, err := tcpnet.Dial(addr)
		if err != nil {
			return nil, err
		}
		h := engine.NewHandle(cfg, engine.TransportTCP, conn, conn)
		conn.Bind(h)
		p = &peer{handle: h, conn: conn}

	default:
		return nil, &coapError{err: "coap: unsupported scheme: " + u.Scheme}
	}

	t.peers[key] = p
	return p, nil
}

// Close tears down every peer connection this Transport has opened.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var firstErr error
	for key, p := range t.peers {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(t.peers, key)
	}
	return firstErr
}

// roundTripOn drives one request through h to completion and adapts its
// engine.Result into a Response. Grounded on transport_uart.go's
// RoundTrip: build the message, send it, read the response, check the
// token, wrap the payload in a Body.
func roundTripOn(h *engine.Handle, req *Request) (*Response, error) {
	defer req.closeBody()

	payload, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}

	opts := req.Options.SetPath(req.URL.Path)
	if req.URL.RawQuery != "" {
		for _, q := range strings.Split(req.URL.RawQuery, "&") {
			opts = opts.AddString(coapmsg.URIQuery, q)
		}
	}

	typ := pdu.NonConfirmable
	if req.Confirmable {
		typ = pdu.Confirmable
	}

	var result *engine.Result
	_, err = h.Do(engine.RequestDescriptor{
		Type:    typ,
		Code:    methodToCode(req.Method),
		TKL:     defaultTokenLength,
		Options: opts,
		Payload: payload,
		ResponseCallback: func(r *engine.Result) {
			result = r
		},
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, &coapError{err: "coap: request sent but no response was received", timeout: true}
	}

	return &Response{
		Code:    result.Code,
		Status:  result.Code.String(),
		Options: coapmsg.FromChain(result.Options),
		Body:    ioutil.NopCloser(bytes.NewReader(result.Payload)),
		Request: req,
	}, nil
}

var methodToCodeTable = map[string]pdu.Code{
	"GET":    pdu.GET,
	"POST":   pdu.POST,
	"PUT":    pdu.PUT,
	"DELETE": pdu.DELETE,
}

func methodToCode(method string) pdu.Code {
	if code, ok := methodToCodeTable[method]; ok {
		return code
	}
	return pdu.GET
}

var _ io.Closer = (*Transport)(nil)
