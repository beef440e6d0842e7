// Command dnscamo-client drives one request/response exchange of the
// covert channel: it encrypts a payload, embeds it in a synthetic DNS
// query, sends it to a server, and prints the decrypted reply.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashgrove-labs/dnscamo/internal/app"
	"github.com/ashgrove-labs/dnscamo/internal/envelope"
)

var (
	keyPath string
	data    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("dnscamo-client: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dnscamo-client <dest> <port>",
		Short: "Send one payload through the dnscamo covert channel and print the reply",
		Args:  cobra.ExactArgs(2),
		RunE:  runClient,
	}

	cmd.Flags().StringVarP(&keyPath, "key", "k", "", "path to 32-octet key file (required)")
	cmd.Flags().StringVar(&data, "data", "", "inline payload; if absent, read from standard input")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func runClient(cmd *cobra.Command, args []string) error {
	dest := args[0]
	port, err := strconv.Atoi(args[1])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", args[1])
	}

	payload, err := readPayload()
	if err != nil {
		return err
	}

	cipher, err := envelope.LoadKey(keyPath)
	if err != nil {
		return err
	}

	client, err := app.NewClient(cipher)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	addr, err := app.ResolveDest(dest, port)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := client.Exchange(ctx, payload, addr)
	if err != nil {
		return err
	}

	fmt.Println(string(reply))
	return nil
}

func readPayload() ([]byte, error) {
	if data != "" {
		return []byte(data), nil
	}
	return io.ReadAll(bufio.NewReader(os.Stdin))
}
