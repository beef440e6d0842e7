package transport_test

import (
	"testing"

	"github.com/ashgrove-labs/dnscamo/internal/transport"
)

// TestTransportInterface_HasRequiredMethods verifies the interface
// compiles with the expected method signatures and that both the live
// UDP transport and the test double satisfy it.
func TestTransportInterface_HasRequiredMethods(_ *testing.T) {
	var _ transport.Transport = (*transport.MockTransport)(nil)
	var _ transport.Transport = (*transport.UDPTransport)(nil)
}
