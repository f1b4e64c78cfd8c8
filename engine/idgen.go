package engine

import (
	"math/rand"
	"sync"
	"time"
)

// SeqIDGenerator is the default IDGenerator: a counter seeded once from
// the clock, matching RandomTokenGenerator's seeding idiom (coap/token.go)
// but kept as a plain increasing sequence since message IDs, unlike
// tokens, don't need to be unguessable.
type SeqIDGenerator struct {
	mu   sync.Mutex
	next uint16
}

func NewSeqIDGenerator() *SeqIDGenerator {
	return &SeqIDGenerator{next: uint16(time.Now().UnixNano())}
}

func (g *SeqIDGenerator) NextMessageID() uint16 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	return id
}

// RandomTokenFiller is the default TokenFiller, grounded on the
// teacher's coap/token.go RandomTokenGenerator: a random token with a
// leading sequence byte, so two requests in flight never share a token
// even if the random source repeats.
type RandomTokenFiller struct {
	mu   sync.Mutex
	seq  uint8
	rand *rand.Rand
}

func NewRandomTokenFiller() *RandomTokenFiller {
	return &RandomTokenFiller{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (f *RandomTokenFiller) FillToken(tkl int) []byte {
	if tkl == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tok := make([]byte, tkl)
	f.rand.Read(tok)
	f.seq++
	tok[0] = f.seq
	return tok
}

// CountingTokenFiller hands out tokens of the requested length whose
// first byte simply counts up (any further bytes are zero), grounded on
// coap/token.go's CountingTokenGenerator. Mainly useful for
// deterministic tests.
type CountingTokenFiller struct {
	mu  sync.Mutex
	seq uint8
}

func (f *CountingTokenFiller) FillToken(tkl int) []byte {
	if tkl == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tok := make([]byte, tkl)
	f.seq++
	tok[0] = f.seq
	return tok
}
