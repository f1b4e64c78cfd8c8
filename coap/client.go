// Package coap is a thin net/http-shaped facade over engine.Handle: a
// Client/Request/Response/RoundTripper API for anyone who'd rather call
// coap.Get("coap://host/path") than assemble a RequestDescriptor by
// hand. Request/Response/RoundTripper follow client.go's shape,
// retargeted from a single hardcoded UART RoundTripper onto Transport's
// scheme-dispatched engine.Handle peers.
package coap

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/lobaro/coap-engine/coapmsg"
)

// A Client sends CoAP requests through a RoundTripper. Its zero value is
// a usable client using DefaultTransport.
type Client struct {
	// Transport specifies how individual requests are carried out. If
	// nil, DefaultTransport is used.
	Transport RoundTripper

	// MaxParallelRequests limits in-flight requests, mirroring CoAP's
	// NSTART parameter (RFC 7252 section 4.7). 0 means no limit; the
	// default client uses NSTART's default of 1.
	MaxParallelRequests int32
	running             int32
	mu                  sync.Mutex
}

// DefaultClient is the default Client and is used by Get and Post.
var DefaultClient = &Client{MaxParallelRequests: 1}

func Get(url string) (*Response, error) { return DefaultClient.Get(url) }

func Post(url string, contentFormat uint16, body io.Reader) (*Response, error) {
	return DefaultClient.Post(url, contentFormat, body)
}

// Do sends req and returns its response.
func (c *Client) Do(req *Request) (*Response, error) {
	c.mu.Lock()
	if c.MaxParallelRequests != 0 && c.running >= c.MaxParallelRequests {
		c.mu.Unlock()
		return nil, &coapError{err: fmt.Sprintf("coap: MaxParallelRequests exhausted: %d", c.MaxParallelRequests)}
	}
	c.running++
	c.mu.Unlock()

	defer atomic.AddInt32(&c.running, -1)

	return c.transport().RoundTrip(req)
}

// Get issues a GET to the given URL.
func (c *Client) Get(url string) (*Response, error) {
	req, err := NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post issues a POST to the given URL with the given Content-Format.
func (c *Client) Post(url string, contentFormat uint16, body io.Reader) (*Response, error) {
	req, err := NewRequest("POST", url, body)
	if err != nil {
		return nil, err
	}
	req.Options = req.Options.AddUint(coapmsg.ContentFormat, uint64(contentFormat))
	return c.Do(req)
}

func (c *Client) transport() RoundTripper {
	if c.Transport != nil {
		return c.Transport
	}
	return DefaultTransport
}
