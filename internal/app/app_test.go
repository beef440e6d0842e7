package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/ashgrove-labs/dnscamo/internal/envelope"
)

func newTestCipher(t *testing.T) *envelope.Cipher {
	t.Helper()
	key := make([]byte, envelope.KeySize)
	for i := range key {
		key[i] = byte(i * 7)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		t.Fatalf("chacha20poly1305.New() error = %v", err)
	}
	return envelope.NewFromAEAD(aead)
}

func TestClientServer_FullStackRoundTrip(t *testing.T) {
	cipher := newTestCipher(t)

	srv, err := NewServer("127.0.0.1:0", cipher, DefaultHandler)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	defer func() { _ = srv.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	addr := srv.LocalAddr()

	client, err := NewClient(cipher)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer reqCancel()

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	reply, err := client.Exchange(reqCtx, plaintext, addr)
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	want := DefaultHandler(plaintext)
	if !bytes.Equal(reply, want) {
		t.Errorf("Exchange() reply = %v, want %v", reply, want)
	}
}

func TestClientServer_CustomHandlerEchoesRequestLength(t *testing.T) {
	cipher := newTestCipher(t)

	echoLen := func(request []byte) []byte {
		return []byte{byte(len(request))}
	}

	srv, err := NewServer("127.0.0.1:0", cipher, echoLen)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	defer func() { _ = srv.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	client, err := NewClient(cipher)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer reqCancel()

	plaintext := []byte("12345")
	reply, err := client.Exchange(reqCtx, plaintext, srv.LocalAddr())
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if len(reply) != 1 || reply[0] != byte(len(plaintext)) {
		t.Errorf("Exchange() reply = %v, want [%d]", reply, len(plaintext))
	}
}
