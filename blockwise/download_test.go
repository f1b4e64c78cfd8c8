package blockwise

import (
	"bytes"
	"testing"

	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/pdu"
)

type recordingSink struct {
	writes map[int64][]byte
}

func (s *recordingSink) WriteBlock(offset int64, data []byte) error {
	if s.writes == nil {
		s.writes = map[int64][]byte{}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.writes[offset] = cp
	return nil
}

func TestDownload_MultipleBlocks(t *testing.T) {
	blocks := [][]byte{
		bytes.Repeat([]byte{0xaa}, 64),
		bytes.Repeat([]byte{0xbb}, 64),
		{0xcc, 0xcc, 0xcc},
	}

	var requestedNums []uint32

	doGet := func(opts coapmsg.Options) (Response, error) {
		val, ok := opts.Get(coapmsg.Block2)
		if !ok {
			t.Fatalf("request missing Block2 option")
		}
		b := Decode(val)
		requestedNums = append(requestedNums, b.Num)

		payload := blocks[b.Num]
		more := int(b.Num) < len(blocks)-1

		respOpts := coapmsg.Options{}.Add(coapmsg.Block2, Encode(Block{Num: b.Num, More: more, SZX: SZX64}))
		return Response{Code: pdu.Content, Options: respOpts, Payload: payload}, nil
	}

	sink := &recordingSink{}
	if err := Download("config", SZX64, doGet, sink); err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	wantNums := []uint32{0, 1, 2}
	if len(requestedNums) != len(wantNums) {
		t.Fatalf("requested %v blocks, want %v", requestedNums, wantNums)
	}
	for i, n := range wantNums {
		if requestedNums[i] != n {
			t.Fatalf("requestedNums[%d] = %d, want %d", i, requestedNums[i], n)
		}
	}

	if !bytes.Equal(sink.writes[0], blocks[0]) {
		t.Fatalf("block 0 mismatch")
	}
	if !bytes.Equal(sink.writes[64], blocks[1]) {
		t.Fatalf("block 1 mismatch")
	}
	if !bytes.Equal(sink.writes[128], blocks[2]) {
		t.Fatalf("block 2 mismatch")
	}
}

func TestDownload_SingleBlockNoBlock2(t *testing.T) {
	doGet := func(coapmsg.Options) (Response, error) {
		return Response{Code: pdu.Content, Payload: []byte("hello")}, nil
	}

	sink := &recordingSink{}
	if err := Download("status", SZX64, doGet, sink); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if string(sink.writes[0]) != "hello" {
		t.Fatalf("writes[0] = %q, want %q", sink.writes[0], "hello")
	}
}

func TestEncodeDecodeBlock(t *testing.T) {
	b := Block{Num: 5, More: true, SZX: SZX256}
	got := Decode(Encode(b))
	if got != b {
		t.Fatalf("round trip = %+v, want %+v", got, b)
	}

	zero := Block{}
	if v := Encode(zero); len(v) != 0 {
		t.Fatalf("Encode(zero) = %v, want empty", v)
	}
}
