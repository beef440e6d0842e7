package app

import (
	"context"
	"log"
	"net"
	"time"

	goerrors "errors"

	"github.com/ashgrove-labs/dnscamo/internal/envelope"
	"github.com/ashgrove-labs/dnscamo/internal/message"
	"github.com/ashgrove-labs/dnscamo/internal/protocol"
	"github.com/ashgrove-labs/dnscamo/internal/security"
	"github.com/ashgrove-labs/dnscamo/internal/stego"
	"github.com/ashgrove-labs/dnscamo/internal/transport"
)

// Default rate-limit configuration: 100 datagrams/second per source
// IP, a 60-second cooldown once exceeded, and at most 10,000 tracked
// sources before the oldest are evicted.
const (
	defaultRateLimitThreshold  = 100
	defaultRateLimitCooldown   = 60 * time.Second
	defaultRateLimitMaxEntries = 10000
)

// Handler produces a response plaintext for a decrypted request
// plaintext. The default handler (spec.md §6 server CLI surface) is a
// placeholder: it returns a single octet, the request length modulo
// 256.
type Handler func(request []byte) []byte

// DefaultHandler implements the placeholder application logic from
// spec.md §6: "The response payload is a single octet: the length,
// modulo 256, of the decrypted request plaintext."
func DefaultHandler(request []byte) []byte {
	return []byte{byte(len(request) % 256)}
}

// Server binds a listening UDP socket and answers one request at a
// time, per the single-threaded, synchronous concurrency model of
// spec.md §5.
type Server struct {
	cipher      *envelope.Cipher
	transport   *transport.UDPTransport
	handler     Handler
	rateLimiter *security.RateLimiter
}

// NewServer binds addr (typically "0.0.0.0:<port>") and pairs the
// listening socket with cipher and handler. A nil handler defaults to
// DefaultHandler. A per-source-IP rate limiter guards the handler
// against datagram floods from a single sender.
func NewServer(addr string, cipher *envelope.Cipher, handler Handler) (*Server, error) {
	tr, err := transport.Listen(addr)
	if err != nil {
		return nil, err
	}
	if handler == nil {
		handler = DefaultHandler
	}
	rl := security.NewRateLimiter(defaultRateLimitThreshold, defaultRateLimitCooldown, defaultRateLimitMaxEntries)
	return &Server{cipher: cipher, transport: tr, handler: handler, rateLimiter: rl}, nil
}

// LocalAddr returns the address the server's socket is bound to.
func (s *Server) LocalAddr() net.Addr {
	return s.transport.LocalAddr()
}

// Close releases the server's socket.
func (s *Server) Close() error {
	return s.transport.Close()
}

// Serve loops forever (until ctx is cancelled): receive one datagram,
// process it, send one response to the datagram's source. Malformed
// or unauthenticated datagrams are logged and dropped; the loop
// continues (spec.md §7 propagation policy).
func (s *Server) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		wire, from, err := s.transport.Receive(ctx)
		if err != nil {
			if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.Printf("dnscamo-server: receive error: %v", err)
			continue
		}

		if !s.rateLimiter.Allow(sourceHost(from)) {
			log.Printf("dnscamo-server: rate-limiting %s", from)
			continue
		}

		if err := s.handleDatagram(ctx, wire, from); err != nil {
			log.Printf("dnscamo-server: dropping datagram from %s: %v", from, err)
		}
	}
}

func (s *Server) handleDatagram(ctx context.Context, wire []byte, from net.Addr) error {
	request, err := message.Parse(wire)
	if err != nil {
		return err
	}

	envlp, err := stego.Extract(request)
	if err != nil {
		return err
	}

	plaintext, err := s.cipher.Decrypt(envlp)
	if err != nil {
		return err
	}

	replyPlaintext := s.handler(plaintext)

	replyEnvelope, err := s.cipher.Encrypt(replyPlaintext)
	if err != nil {
		return err
	}

	response := message.NewMessage(true)
	stego.EmbedResponse(response, replyEnvelope, request)

	responseWire, err := message.Serialize(response, protocol.DatagramID)
	if err != nil {
		return err
	}

	return s.transport.Send(ctx, responseWire, from)
}

// sourceHost extracts the host portion of addr for use as a rate
// limiter key, falling back to addr's full string form if it cannot
// be split into host and port.
func sourceHost(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
