package codec

import (
	"bufio"
	"fmt"
)

// Encode writes reply onto w in the RESP subset: simple string "+", error
// "-", integer ":", bulk string "$" (or "$-1" for nil), array "*" of bulk
// strings (with "$-1" nil elements and "*0" for an empty array). Lengths
// are byte lengths of the UTF-8 payload.
func Encode(w *bufio.Writer, reply Reply) error {
	switch reply.kind {
	case kindSimple:
		_, err := fmt.Fprintf(w, "+%s\r\n", reply.simple)
		return err
	case kindError:
		_, err := fmt.Fprintf(w, "-%s %s\r\n", reply.errCode, reply.errMsg)
		return err
	case kindInteger:
		_, err := fmt.Fprintf(w, ":%d\r\n", reply.integer)
		return err
	case kindBulk:
		return encodeBulk(w, reply.bulk)
	case kindArray:
		if _, err := fmt.Fprintf(w, "*%d\r\n", len(reply.array)); err != nil {
			return err
		}
		for _, v := range reply.array {
			if err := encodeBulk(w, v); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("codec: unknown reply kind %d", reply.kind)
	}
}

func encodeBulk(w *bufio.Writer, v *string) error {
	if v == nil {
		_, err := w.WriteString("$-1\r\n")
		return err
	}
	if _, err := fmt.Fprintf(w, "$%d\r\n", len(*v)); err != nil {
		return err
	}
	if _, err := w.WriteString(*v); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}
