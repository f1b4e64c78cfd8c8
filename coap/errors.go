package coap

// coapError is a minimal net.Error-shaped error for failures the facade
// itself raises (as opposed to ones bubbled up unwrapped from engine).
type coapError struct {
	err     string
	timeout bool
}

func (e *coapError) Error() string   { return e.err }
func (e *coapError) Timeout() bool   { return e.timeout }
func (e *coapError) Temporary() bool { return e.timeout }
