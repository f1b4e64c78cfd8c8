// Package blockwise implements the RFC 7959 Block2 option (the
// block-wise download direction only; upload via Block1 is out of
// scope) and a driver loop that repeats GET requests until a resource
// has been fully retrieved.
package blockwise

import "github.com/lobaro/coap-engine/coapmsg"

// SZX is the 3-bit block-size exponent carried in a Block1/Block2 option,
// grounded on ucoap_helpers.h's ucoap_blockwise_szx enum.
type SZX uint8

const (
	SZX16 SZX = iota
	SZX32
	SZX64
	SZX128
	SZX256
	SZX512
	SZX1024
	szxReserved // MUST NOT be sent; a server receiving it answers 4.00.
)

// Size returns the block size in bytes this SZX represents, or 0 for the
// reserved value 7.
func (s SZX) Size() int {
	if s >= szxReserved {
		return 0
	}
	return 16 << uint(s)
}

// Block is the decoded form of a Block1/Block2 option value (RFC 7959
// section 2.2): a block number of up to 20 bits, the more-blocks-follow flag, and
// the block size exponent. Mirrors ucoap_helpers.h's
// ucoap_blockwise_data bitfield union.
type Block struct {
	Num  uint32
	More bool
	SZX  SZX
}

// Encode packs b into its minimal 1-3 byte wire form, grounded on
// ucoap_fill_block2_opt.
func Encode(b Block) coapmsg.OptionValue {
	v := uint64(b.Num&0xfffff) << 4
	if b.More {
		v |= 1 << 3
	}
	v |= uint64(b.SZX) & 0x7
	return coapmsg.OptionValue(coapmsg.EncodeUint(v))
}

// Decode unpacks a Block1/Block2 option value, grounded on
// ucoap_extract_block2_from_opt.
func Decode(value coapmsg.OptionValue) Block {
	v := value.AsUint64()
	return Block{
		Num:  uint32(v >> 4),
		More: v&(1<<3) != 0,
		SZX:  SZX(v & 0x7),
	}
}
