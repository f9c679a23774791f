package contracts

// Header is a single named byte value attached to a message.
type Header struct {
	Key   string
	Value []byte
}

// Headers is an ordered multimap of header name to byte values.
// Insertion order is preserved on the wire; the same name may appear
// more than once.
type Headers []Header

// Append returns a new Headers with the given entry added at the end.
// The receiver is not modified.
func (h Headers) Append(key string, value []byte) Headers {
	out := make(Headers, len(h), len(h)+1)
	copy(out, h)
	return append(out, Header{Key: key, Value: value})
}

// Get returns the value of the last header with the given name, or nil
// if the name is absent.
func (h Headers) Get(key string) []byte {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Key == key {
			return h[i].Value
		}
	}
	return nil
}

// Values returns every value recorded under the given name, in
// insertion order.
func (h Headers) Values(key string) [][]byte {
	var values [][]byte
	for _, entry := range h {
		if entry.Key == key {
			values = append(values, entry.Value)
		}
	}
	return values
}

// Has reports whether a header with the given name exists.
func (h Headers) Has(key string) bool {
	return h.Get(key) != nil
}

// Clone returns a copy of the headers sharing no backing storage with
// the receiver. Values are copied as well.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	for i, entry := range h {
		value := make([]byte, len(entry.Value))
		copy(value, entry.Value)
		out[i] = Header{Key: entry.Key, Value: value}
	}
	return out
}

// Len returns the number of header entries.
func (h Headers) Len() int {
	return len(h)
}
