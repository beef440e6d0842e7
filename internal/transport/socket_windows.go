//go:build windows

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

// setSocketOptions configures the one portable socket option Windows
// offers for port-sharing: SO_REUSEADDR. Its semantics differ from
// POSIX (it permits concurrent binds rather than reuse of a TIME_WAIT
// socket), but it is the closest available analogue. SO_REUSEPORT has
// no Windows equivalent and golang.org/x/sys/windows does not define it.
func setSocketOptions(fd uintptr) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
	}
	return nil
}

// getKernelVersion is not meaningful on Windows; kept for parity with
// the Linux build so callers don't need a build-tagged branch.
func getKernelVersion() string {
	return ""
}

// Control function for net.ListenConfig on Windows.
// This is called by Listen during UDPTransport socket creation.
func platformControl(network, address string, c syscall.RawConn) error {
	var sockoptErr error
	err := c.Control(func(fd uintptr) {
		sockoptErr = setSocketOptions(fd)
	})
	if err != nil {
		return fmt.Errorf("raw conn control failed: %w", err)
	}
	return sockoptErr
}

// PlatformControl returns the platform-specific control function for net.ListenConfig.
// This is the public API for other packages to use socket options.
func PlatformControl(network, address string, c syscall.RawConn) error {
	return platformControl(network, address, c)
}
