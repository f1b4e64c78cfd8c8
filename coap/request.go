package coap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"

	"github.com/lobaro/coap-engine/coapmsg"
)

// A Request represents a CoAP request to be sent by a Client. Its shape
// mirrors net/http.Request on purpose, to make the facade familiar to
// anyone who has used the standard library's HTTP client.
type Request struct {
	// Method is the CoAP request method (GET, POST, PUT, DELETE). An
	// empty string means GET.
	Method string

	// Confirmable requests are sent as CoAP Confirmable messages and
	// reliably retried by the underlying engine.Handle; Non-confirmable
	// requests are fired once with no retry.
	Confirmable bool

	// URL's Host selects the peer (host:port) and Scheme selects the
	// transport: "coap" for UDP, "coap+tcp" for TCP.
	URL *url.URL

	// Options carries any CoAP options beyond the Uri-Path/Uri-Query
	// pair Transport derives from URL when it sends the request.
	Options coapmsg.Options

	// Body is the request payload. A nil body means no payload, as for
	// a GET. Transport.RoundTrip closes it once the round trip completes.
	Body io.ReadCloser

	ctx context.Context
}

// NewRequest returns a new Request for the given method, URL, and
// optional body.
func NewRequest(method, urlStr string, body io.Reader) (*Request, error) {
	if method == "" {
		method = "GET"
	}
	if !ValidMethod(method) {
		return nil, fmt.Errorf("coap: invalid method %q", method)
	}

	if body == nil {
		body = &bytes.Buffer{}
	}
	rc, ok := body.(io.ReadCloser)
	if !ok {
		rc = ioutil.NopCloser(body)
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)

	return &Request{
		Method:      method,
		Confirmable: true,
		URL:         u,
		Body:        rc,
	}, nil
}

// Context returns the request's context, defaulting to context.Background.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of r with its context changed to ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("nil context")
	}
	r2 := new(Request)
	*r2 = *r
	r2.ctx = ctx
	return r2
}

func (r *Request) closeBody() {
	if r.Body != nil {
		r.Body.Close()
	}
}

var validMethods = []string{"GET", "POST", "PUT", "DELETE"}

func ValidMethod(method string) bool {
	for _, m := range validMethods {
		if method == m {
			return true
		}
	}
	return false
}
