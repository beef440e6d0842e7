// Command dnscamo-server listens for dnscamo covert-channel requests
// on a UDP port, decrypts and answers each one, and runs until
// terminated.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ashgrove-labs/dnscamo/internal/app"
	"github.com/ashgrove-labs/dnscamo/internal/envelope"
)

var keyPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("dnscamo-server: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dnscamo-server <port>",
		Short: "Listen for dnscamo covert-channel requests and answer them",
		Args:  cobra.ExactArgs(1),
		RunE:  runServer,
	}

	cmd.Flags().StringVarP(&keyPath, "key", "k", "", "path to 32-octet key file (required)")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func runServer(cmd *cobra.Command, args []string) error {
	port, err := strconv.Atoi(args[0])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", args[0])
	}

	cipher, err := envelope.LoadKey(keyPath)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
	srv, err := app.NewServer(addr, cipher, app.DefaultHandler)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("dnscamo-server: listening on %s", addr)
	err = srv.Serve(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
