package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ashgrove-labs/dnscamo/internal/errors"
	"github.com/ashgrove-labs/dnscamo/internal/protocol"
)

// UDPTransport is a unicast UDP transport. The server side binds a
// listening socket with platform socket-reuse options set; the client
// side opens an unconnected ephemeral socket and names the destination
// on each Send. Both share the same Send/Receive
// implementation once conn is established.
type UDPTransport struct {
	conn net.PacketConn
}

// Listen opens a server-side UDP socket bound to addr (host:port),
// configured via the platform-specific Control hook so the port can be
// rebound quickly across restarts.
func Listen(addr string) (*UDPTransport, error) {
	lc := net.ListenConfig{Control: PlatformControl}
	conn, err := lc.ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "listen",
			Err:       err,
			Details:   fmt.Sprintf("failed to bind %s", addr),
		}
	}
	return &UDPTransport{conn: conn}, nil
}

// Dial opens a client-side UDP socket with no fixed peer, ready to
// Send to an explicit destination and Receive the reply.
func Dial() (*UDPTransport, error) {
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "dial",
			Err:       err,
			Details:   "failed to open client socket",
		}
	}
	return &UDPTransport{conn: conn}, nil
}

// Send transmits packet to dest, respecting ctx cancellation.
func (t *UDPTransport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	select {
	case <-ctx.Done():
		return &errors.NetworkError{Operation: "send", Err: ctx.Err(), Details: "context canceled before send"}
	default:
	}

	n, err := t.conn.WriteTo(packet, dest)
	if err != nil {
		return &errors.NetworkError{
			Operation: "send",
			Err:       err,
			Details:   fmt.Sprintf("failed to send %d bytes to %s", len(packet), dest),
		}
	}
	if n != len(packet) {
		return &errors.NetworkError{
			Operation: "send",
			Err:       fmt.Errorf("partial write: %d/%d bytes", n, len(packet)),
			Details:   "incomplete transmission",
		}
	}
	return nil
}

// Receive waits for one inbound datagram, respecting ctx
// cancellation/deadline.
func (t *UDPTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, nil, &errors.NetworkError{Operation: "receive", Err: ctx.Err(), Details: "context canceled before receive"}
	default:
	}

	deadline, _ := ctx.Deadline()
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, nil, &errors.NetworkError{Operation: "set read deadline", Err: err}
	}
	// Cancelling ctx while ReadFrom is blocked expires the read deadline
	// so the call returns.
	stop := context.AfterFunc(ctx, func() { _ = t.conn.SetReadDeadline(time.Now()) })
	defer stop()

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buffer := *bufPtr

	n, srcAddr, err := t.conn.ReadFrom(buffer)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, &errors.NetworkError{Operation: "receive", Err: ctxErr, Details: "context done during receive"}
		}
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil, &errors.NetworkError{Operation: "receive", Err: err, Details: "timeout"}
		}
		return nil, nil, &errors.NetworkError{Operation: "receive", Err: err, Details: "failed to read from socket"}
	}
	if n > protocol.MaxDatagramSize {
		return nil, nil, &errors.NetworkError{
			Operation: "receive",
			Err:       fmt.Errorf("datagram of %d bytes exceeds max %d", n, protocol.MaxDatagramSize),
		}
	}

	result := make([]byte, n)
	copy(result, buffer[:n])
	return result, srcAddr, nil
}

// LocalAddr returns the address the underlying socket is bound to.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Close releases the underlying socket.
func (t *UDPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(); err != nil {
		return &errors.NetworkError{Operation: "close", Err: err, Details: "failed to close UDP connection"}
	}
	return nil
}

var _ Transport = (*UDPTransport)(nil)
