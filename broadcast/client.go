package broadcast

import (
	"errors"
	"net"
	"time"

	"github.com/rascol/lpximage"
	"github.com/rascol/lpximage/wire"
)

// sendBufferBytes is the SO_SNDBUF size spec.md section 6 mandates for
// every accepted client socket.
const sendBufferBytes = 65536

// commandPollTimeout bounds how long a single movement-command poll may
// wait before treating the socket as having nothing pending. It stands
// in for the non-blocking-read + EAGAIN behavior spec.md section 4.6
// describes on platforms whose net.Conn is always blocking-mode from
// Go's point of view; a near-zero deadline gives the same "poll, don't
// wait" semantics idiomatically.
const commandPollTimeout = time.Millisecond

// client wraps one accepted connection: the socket, and the per-client
// state the broadcast thread mutates (marked for removal on I/O error).
type client struct {
	conn    *net.TCPConn
	removed bool
}

// newClient configures conn per spec.md section 6 (TCP_NODELAY, 64 KiB
// send buffer) and wraps it.
func newClient(conn *net.TCPConn) (*client, error) {
	if err := conn.SetNoDelay(true); err != nil {
		return nil, err
	}
	if err := conn.SetWriteBuffer(sendBufferBytes); err != nil {
		return nil, err
	}
	return &client{conn: conn}, nil
}

// pollMovement attempts a non-blocking-equivalent read of one movement
// command, per spec.md section 4.4 Broadcast step (a). A timeout means
// "no command pending" and is not an error; any other read failure
// means the client disconnected.
func (c *client) pollMovement() (lpx.MovementCommand, bool, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(commandPollTimeout)); err != nil {
		return lpx.MovementCommand{}, false, err
	}
	cmd, _, err := wire.DecodeMovementCommand(c.conn)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return lpx.MovementCommand{}, false, nil
		}
		return lpx.MovementCommand{}, false, err
	}
	return cmd, true, nil
}

// sendFrame blocks writing frame to the client, per spec.md section 5:
// writes use the socket's default blocking mode even though reads are
// polled. maxCells is the scan tables' total cell count.
func (c *client) sendFrame(frame *lpx.Frame, maxCells int32) error {
	if err := c.conn.SetWriteDeadline(time.Time{}); err != nil {
		return err
	}
	return wire.EncodeFrame(c.conn, frame, maxCells)
}

// close shuts down both directions before closing, so a send blocked in
// another goroutine fails fast rather than hanging, per spec.md section
// 4.4's "issues shutdown(RDWR) and close on each client".
func (c *client) close() {
	_ = c.conn.CloseRead()
	_ = c.conn.CloseWrite()
	_ = c.conn.Close()
}
