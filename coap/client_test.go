package coap

import (
	"errors"
	"testing"

	"github.com/lobaro/coap-engine/coapmsg"
)

type recordingTransport struct {
	req *Request
}

func (t *recordingTransport) RoundTrip(req *Request) (resp *Response, err error) {
	t.req = req
	return nil, errors.New("dummy impl")
}

func TestGetRequestFormat(t *testing.T) {
	tr := &recordingTransport{}
	client := &Client{Transport: tr}
	url := "coap://dummy.faketld/sensors/temperature"
	_, err := client.Get(url)
	if err == nil {
		t.Fatal("expected the dummy RoundTripper's error to propagate")
	}

	if tr.req.Method != "GET" {
		t.Errorf("expected method %q; got %q", "GET", tr.req.Method)
	}
	if tr.req.URL.String() != url {
		t.Errorf("expected URL %q; got %q", url, tr.req.URL.String())
	}
	if !tr.req.Confirmable {
		t.Errorf("expected NewRequest to default Confirmable to true")
	}
}

func TestPostSetsContentFormat(t *testing.T) {
	tr := &recordingTransport{}
	client := &Client{Transport: tr}

	_, err := client.Post("coap://dummy.faketld/things", 50, nil)
	if err == nil {
		t.Fatal("expected the dummy RoundTripper's error to propagate")
	}

	if tr.req.Method != "POST" {
		t.Errorf("expected method %q; got %q", "POST", tr.req.Method)
	}
	v, ok := tr.req.Options.Get(coapmsg.ContentFormat)
	if !ok {
		t.Fatal("expected a Content-Format option to be set")
	}
	if v.AsUint16() != 50 {
		t.Errorf("expected Content-Format 50; got %d", v.AsUint16())
	}
}
