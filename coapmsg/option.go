package coapmsg

import "sort"

// Option is a single decoded or to-be-encoded CoAP option record. It
// mirrors the reference's ucoap_option_data: a record at a fixed position
// in an array that doubles as a singly linked list via Next, with Value
// borrowing directly from whichever buffer currently owns the bytes rather
// than holding an independent copy.
type Option struct {
	Number OptionId
	Value  OptionValue
	Next   *Option
}

func (o *Option) Length() int { return len(o.Value) }

// Find walks the linked list starting at o and returns the first option
// with the given number, or nil if none matches.
func (o *Option) Find(number OptionId) *Option {
	for c := o; c != nil; c = c.Next {
		if c.Number == number {
			return c
		}
	}
	return nil
}

// FindAll returns every option in the list with the given number, in order.
func (o *Option) FindAll(number OptionId) []*Option {
	var out []*Option
	for c := o; c != nil; c = c.Next {
		if c.Number == number {
			out = append(out, c)
		}
	}
	return out
}

// Options is a builder for a sorted set of options, the form request
// assembly works with before EncodeOptions walks it as a linked list.
// Options must stay sorted by ascending Number -- the delta encoding
// depends on it, same as the reference's pre-sorted ucoap_option_data list.
type Options []Option

func (o Options) Len() int           { return len(o) }
func (o Options) Less(i, j int) bool { return o[i].Number < o[j].Number }
func (o Options) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }

// Add appends an option and keeps the set sorted by ascending number.
func (o Options) Add(number OptionId, value OptionValue) Options {
	o = append(o, Option{Number: number, Value: value})
	sort.Stable(o)
	return o
}

func (o Options) AddString(number OptionId, value string) Options {
	return o.Add(number, OptionValue(value))
}

func (o Options) AddUint(number OptionId, value uint64) Options {
	return o.Add(number, OptionValue(EncodeUint(value)))
}

// Get returns the first value for number, and whether it was present.
func (o Options) Get(number OptionId) (OptionValue, bool) {
	for i := range o {
		if o[i].Number == number {
			return o[i].Value, true
		}
	}
	return nil, false
}

// GetAll returns every value for number, in the order they were added.
func (o Options) GetAll(number OptionId) []OptionValue {
	var out []OptionValue
	for i := range o {
		if o[i].Number == number {
			out = append(out, o[i].Value)
		}
	}
	return out
}

// Del removes every option with the given number.
func (o Options) Del(number OptionId) Options {
	kept := o[:0]
	for _, opt := range o {
		if opt.Number != number {
			kept = append(kept, opt)
		}
	}
	return kept
}

// Path joins the Uri-Path options with "/", in the order they were added.
func (o Options) Path() string {
	parts := o.GetAll(URIPath)
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += "/"
		}
		s += p.AsString()
	}
	return s
}

// SetPath replaces any existing Uri-Path options with one option per
// "/"-separated segment of path.
func (o Options) SetPath(path string) Options {
	o = o.Del(URIPath)
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				o = o.AddString(URIPath, path[start:i])
			}
			start = i + 1
		}
	}
	return o
}

// FromChain flattens a linked Option list (as Handle.decodeResult
// produces) back into an Options slice, the inverse of Chain. Useful
// wherever a caller wants Get/GetAll/Path rather than walking Next by
// hand.
func FromChain(head *Option) Options {
	var out Options
	for o := head; o != nil; o = o.Next {
		out = append(out, Option{Number: o.Number, Value: o.Value})
	}
	return out
}

// Chain links the sorted slice into the singly linked list that
// EncodeOptions and the block-wise helpers walk, matching
// ucoap_option_data.next. The slice must not be appended to afterward --
// the pointers reference its backing array by index.
func (o Options) Chain() *Option {
	if len(o) == 0 {
		return nil
	}
	for i := range o {
		if i+1 < len(o) {
			o[i].Next = &o[i+1]
		} else {
			o[i].Next = nil
		}
	}
	return &o[0]
}
