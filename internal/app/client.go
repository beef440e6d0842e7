// Package app wires the core components — envelope, stego, message —
// onto a transport, implementing the client and server sides of the
// covert channel (spec.md §2 data flow, §6 external interfaces).
package app

import (
	"context"
	"net"
	"strconv"

	"github.com/ashgrove-labs/dnscamo/internal/envelope"
	"github.com/ashgrove-labs/dnscamo/internal/errors"
	"github.com/ashgrove-labs/dnscamo/internal/message"
	"github.com/ashgrove-labs/dnscamo/internal/protocol"
	"github.com/ashgrove-labs/dnscamo/internal/stego"
	"github.com/ashgrove-labs/dnscamo/internal/transport"
)

// Client drives one request/response exchange: encrypt, embed,
// serialise, send, receive, parse, extract, decrypt.
type Client struct {
	cipher    *envelope.Cipher
	transport transport.Transport
}

// NewClient binds an ephemeral client-side UDP socket and pairs it
// with cipher.
func NewClient(cipher *envelope.Cipher) (*Client, error) {
	tr, err := transport.Dial()
	if err != nil {
		return nil, err
	}
	return &Client{cipher: cipher, transport: tr}, nil
}

// Close releases the client's socket.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Exchange sends plaintext to dest and returns the decrypted reply
// plaintext, per the client data flow of spec.md §2: user bytes →
// encrypt → embed (request) → serialise → send → recv → parse →
// extract → decrypt.
func (c *Client) Exchange(ctx context.Context, plaintext []byte, dest net.Addr) ([]byte, error) {
	envlp, err := c.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}

	request := message.NewMessage(false)
	stego.EmbedRequest(request, envlp)

	wire, err := message.Serialize(request, protocol.DatagramID)
	if err != nil {
		return nil, err
	}

	if err := c.transport.Send(ctx, wire, dest); err != nil {
		return nil, err
	}

	replyWire, _, err := c.transport.Receive(ctx)
	if err != nil {
		return nil, err
	}

	reply, err := message.Parse(replyWire)
	if err != nil {
		return nil, err
	}

	replyEnvelope, err := stego.Extract(reply)
	if err != nil {
		return nil, err
	}

	return c.cipher.Decrypt(replyEnvelope)
}

// ResolveDest parses host and port into a net.Addr suitable for
// Exchange, accepting either an IPv4 or IPv6 literal (spec.md §6
// client CLI surface).
func ResolveDest(host string, port int) (net.Addr, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, &errors.NetworkError{Operation: "resolve destination", Err: err}
	}
	return addr, nil
}
