package codec

// replyKind distinguishes the five RESP reply shapes.
type replyKind int

const (
	kindSimple replyKind = iota
	kindError
	kindInteger
	kindBulk
	kindArray
)

// Reply is the value a command handler produces; Encode renders it onto
// the wire in the RESP subset described by the protocol.
type Reply struct {
	kind replyKind

	simple string

	errCode string
	errMsg  string

	integer int

	// bulk is nil for a nil bulk reply ($-1).
	bulk *string

	// array holds one entry per element; a nil entry renders as a nil bulk
	// ($-1) inside the array.
	array []*string
}

// Simple builds a "+" simple-string reply.
func Simple(text string) Reply {
	return Reply{kind: kindSimple, simple: text}
}

// OK is the canonical "+OK" reply.
func OK() Reply {
	return Simple("OK")
}

// Err builds a "-" error reply with the given error code (e.g. "ERR",
// "WRONGTYPE") and message.
func Err(code, message string) Reply {
	return Reply{kind: kindError, errCode: code, errMsg: message}
}

// Integer builds a ":" integer reply.
func Integer(n int) Reply {
	return Reply{kind: kindInteger, integer: n}
}

// Bulk builds a "$" bulk-string reply holding value.
func Bulk(value string) Reply {
	return Reply{kind: kindBulk, bulk: &value}
}

// NilBulk builds the "$-1" nil bulk-string reply.
func NilBulk() Reply {
	return Reply{kind: kindBulk, bulk: nil}
}

// BulkPtr builds a bulk reply from a possibly-nil pointer: nil renders as
// NilBulk, otherwise as Bulk(*value).
func BulkPtr(value *string) Reply {
	if value == nil {
		return NilBulk()
	}
	return Bulk(*value)
}

// Array builds a "*" array reply of bulk strings; a nil entry renders as a
// nil bulk inside the array.
func Array(values []*string) Reply {
	return Reply{kind: kindArray, array: values}
}

// ArrayOfStrings builds an array reply where every element is present.
func ArrayOfStrings(values []string) Reply {
	out := make([]*string, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return Array(out)
}
