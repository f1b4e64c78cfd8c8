package commands

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/lobaro/coap-engine/blockwise"
	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/engine"
	"github.com/lobaro/coap-engine/pdu"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	flagBlock     bool
	flagBlockSize int
	flagOut       string
	flagNonCon    bool
)

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Issue a GET request",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().BoolVar(&flagBlock, "block", false, "fetch the resource block-wise (RFC 7959 Block2)")
	getCmd.Flags().IntVar(&flagBlockSize, "block-size", 64, "block size in bytes when --block is set (16, 32, ..., 1024)")
	getCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the payload here instead of stdout")
	getCmd.Flags().BoolVar(&flagNonCon, "non-confirmable", false, "send as NON instead of CON")
}

func runGet(cmd *cobra.Command, args []string) error {
	u, err := url.Parse(args[0])
	if err != nil {
		return errors.Wrap(err, "coapcli: invalid URL")
	}

	timeout, err := parseTimeout()
	if err != nil {
		return errors.Wrap(err, "coapcli: invalid --timeout")
	}
	cfg := engine.DefaultConfig()
	cfg.RespTimeout = timeout

	h, conn, err := dial(u, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	out := os.Stdout
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if flagBlock {
		return runBlockGet(h, u, out)
	}
	return runPlainGet(h, u, out)
}

func runPlainGet(h *engine.Handle, u *url.URL, out io.Writer) error {
	opts := coapmsg.Options{}.SetPath(u.Path)
	if u.RawQuery != "" {
		opts = opts.AddString(coapmsg.URIQuery, u.RawQuery)
	}

	typ := pdu.Confirmable
	if flagNonCon {
		typ = pdu.NonConfirmable
	}

	var result *engine.Result
	_, err := h.Do(engine.RequestDescriptor{
		Type:    typ,
		Code:    pdu.GET,
		TKL:     2,
		Options: opts,
		ResponseCallback: func(r *engine.Result) {
			result = r
		},
	})
	if err != nil {
		return err
	}
	if result == nil {
		return errors.New("coapcli: request sent but no response was received")
	}
	if result.Code.Class() != pdu.ClassSuccess {
		fmt.Fprintf(os.Stderr, "coapcli: response %s\n", result.Code)
	}
	_, err = out.Write(result.Payload)
	return err
}

// blockSink writes each fetched block at its offset directly to out,
// which is only correct because coapcli fetches sequentially and every
// prior offset has already been written -- a random-access Sink would
// need to seek instead.
type blockSink struct {
	w io.Writer
}

func (s blockSink) WriteBlock(offset int64, data []byte) error {
	_, err := s.w.Write(data)
	return err
}

func runBlockGet(h *engine.Handle, u *url.URL, out io.Writer) error {
	szx, err := blockSizeToSZX(flagBlockSize)
	if err != nil {
		return err
	}

	doGet := func(opts coapmsg.Options) (blockwise.Response, error) {
		var result *engine.Result
		_, err := h.Do(engine.RequestDescriptor{
			Type:    pdu.Confirmable,
			Code:    pdu.GET,
			TKL:     2,
			Options: opts,
			ResponseCallback: func(r *engine.Result) {
				result = r
			},
		})
		if err != nil {
			return blockwise.Response{}, err
		}
		if result == nil {
			return blockwise.Response{}, errors.New("coapcli: block request sent but no response was received")
		}
		return blockwise.Response{
			Code:    result.Code,
			Options: coapmsg.FromChain(result.Options),
			Payload: result.Payload,
		}, nil
	}

	return blockwise.Download(u.Path, szx, doGet, blockSink{out})
}

func blockSizeToSZX(size int) (blockwise.SZX, error) {
	for szx := blockwise.SZX16; szx <= blockwise.SZX1024; szx++ {
		if szx.Size() == size {
			return szx, nil
		}
	}
	return 0, errors.Errorf("coapcli: --block-size must be one of 16, 32, 64, 128, 256, 512, 1024; got %d", size)
}
