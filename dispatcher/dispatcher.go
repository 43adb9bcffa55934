// Package dispatcher turns decoded wire requests into Core operations and
// RESP replies: one command table, one switch, matching the teacher's
// controller.processCommand structure.
package dispatcher

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/mshaverdo/radish/codec"
	"github.com/mshaverdo/radish/core"
	"github.com/mshaverdo/radish/log"
	"github.com/mshaverdo/radish/snapshot"
)

// arityErr reports a command's argument count not matching what it expects,
// named the way the wire error text identifies the offending command.
func arityErr(cmd string) error {
	return fmt.Errorf("wrong number of arguments for '%s'", cmd)
}

// errNotInteger signals that an argument required to parse as an integer
// did not; it is always mapped to the wire ERR code, never WRONGTYPE.
var errNotInteger = errors.New("value is not an integer")

// Dispatcher owns the keyspace and the snapshot engine and turns decoded
// requests into replies.
type Dispatcher struct {
	core *core.Core
	snap *snapshot.Engine
}

// New builds a Dispatcher over c, persisting through snap.
func New(c *core.Core, snap *snapshot.Engine) *Dispatcher {
	return &Dispatcher{core: c, snap: snap}
}

// Serve reads and answers requests from conn until the client disconnects,
// a malformed frame arrives, or a write fails. It always closes conn on
// return.
func (d *Dispatcher) Serve(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		req, err := codec.Decode(reader)
		if err != nil {
			if err != io.EOF {
				log.Debugf("%s: closing connection: %s", conn.RemoteAddr(), err)
			}
			return
		}

		reply := d.dispatch(req)

		if err := codec.Encode(writer, reply); err != nil {
			log.Debugf("%s: write error: %s", conn.RemoteAddr(), err)
			return
		}
		if err := writer.Flush(); err != nil {
			log.Debugf("%s: flush error: %s", conn.RemoteAddr(), err)
			return
		}
	}
}

// dispatch runs one command to completion and produces its reply. Errors
// from Core are mapped to wire error codes; arity and argument parsing
// failures always become ERR, never WRONGTYPE.
func (d *Dispatcher) dispatch(req *codec.Request) codec.Reply {
	handler, ok := commandTable[req.Cmd]
	if !ok {
		return codec.Err("ERR", "unknown command '"+req.Cmd+"'")
	}
	return handler(d, req)
}

// replyForError maps a Core-layer error to its wire error code.
func replyForError(err error) codec.Reply {
	switch {
	case errors.Is(err, core.ErrWrongType):
		return codec.Err("WRONGTYPE", err.Error())
	default:
		return codec.Err("ERR", err.Error())
	}
}
