package transport_test

import (
	"context"
	"testing"
	"time"

	"github.com/ashgrove-labs/dnscamo/internal/transport"
)

func TestUDPTransport_ImplementsTransportInterface(_ *testing.T) {
	var _ transport.Transport = (*transport.UDPTransport)(nil)
}

func TestUDPTransport_SendReceiveRoundTrip(t *testing.T) {
	server, err := transport.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer func() { _ = server.Close() }()

	client, err := transport.Dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	serverAddr := server.LocalAddr()
	packet := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	ctx := context.Background()
	if err := client.Send(ctx, packet, serverAddr); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	recvCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, from, err := server.Receive(recvCtx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if string(got) != string(packet) {
		t.Errorf("Receive() payload = % x, want % x", got, packet)
	}

	if err := server.Send(context.Background(), []byte("reply"), from); err != nil {
		t.Fatalf("Send() reply error = %v", err)
	}
	replyCtx, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	reply, _, err := client.Receive(replyCtx)
	if err != nil {
		t.Fatalf("Receive() reply error = %v", err)
	}
	if string(reply) != "reply" {
		t.Errorf("reply = %q, want %q", reply, "reply")
	}
}

func TestUDPTransport_ReceiveRespectsContextDeadline(t *testing.T) {
	server, err := transport.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer func() { _ = server.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err = server.Receive(ctx)
	if err == nil {
		t.Fatal("Receive() error = nil, want deadline-exceeded")
	}
	if time.Since(start) > 1*time.Second {
		t.Errorf("Receive() took %v, want it to return promptly on deadline", time.Since(start))
	}
}
