package blockwise

import (
	"fmt"

	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/pdu"
)

// Response is the decoded result of one block-wise GET, independent of
// the transport that produced it.
type Response struct {
	Code    pdu.Code
	Options coapmsg.Options
	Payload []byte
}

// Sink receives the payload of each fetched block at its absolute byte
// offset in the reassembled resource. Grounded on examples/_blockwise.c's
// write_config/cfg_write_raw_config.
type Sink interface {
	WriteBlock(offset int64, data []byte) error
}

// Download fetches a resource at path one Block2-sized chunk at a time,
// starting at block 0 and size szx, until the server reports no more
// blocks follow. doGet issues a single GET carrying the given options
// (Uri-Path plus Block2) and returns the decoded response.
//
// Grounded on examples/_blockwise.c's srv_get_config_task driver loop,
// simplified: the reference tracks the transfer's completion with a pair
// of block-number counters compared for equality each iteration; this is
// equivalent to, and implemented as, simply stopping once a response
// doesn't set Block2's more-flag.
func Download(path string, szx SZX, doGet func(coapmsg.Options) (Response, error), sink Sink) error {
	num := uint32(0)

	for {
		opts := coapmsg.Options{}.SetPath(path)
		opts = opts.Add(coapmsg.Block2, Encode(Block{Num: num, SZX: szx}))

		resp, err := doGet(opts)
		if err != nil {
			return err
		}
		if resp.Code.Class() != pdu.ClassSuccess {
			return fmt.Errorf("blockwise: unexpected response code %s", resp.Code)
		}
		if len(resp.Payload) == 0 {
			return nil
		}

		val, ok := resp.Options.Get(coapmsg.Block2)
		if !ok {
			// No Block2 in the reply: the whole resource fit in one block.
			return sink.WriteBlock(0, resp.Payload)
		}

		b := Decode(val)
		if err := sink.WriteBlock(int64(b.Num)*int64(b.SZX.Size()), resp.Payload); err != nil {
			return err
		}
		if !b.More {
			return nil
		}
		num = b.Num + 1
	}
}
