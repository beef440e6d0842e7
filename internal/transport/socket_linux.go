//go:build linux

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// setSocketOptions configures platform-specific socket options for
// Linux: SO_REUSEADDR and, where the kernel supports it, SO_REUSEPORT,
// so the server can rebind its port quickly across restarts.
func setSocketOptions(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
	}

	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		// Older kernels (<3.9) lack SO_REUSEPORT; fall back to REUSEADDR only.
		if err != unix.ENOPROTOOPT {
			return fmt.Errorf("failed to set SO_REUSEPORT: %w", err)
		}
	}

	return nil
}

// getKernelVersion returns the Linux kernel version string for logging/debugging.
// Format: "3.10.0-1160.el7.x86_64"
func getKernelVersion() string {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return "unknown"
	}

	// Convert [65]int8 to string
	release := make([]byte, 0, 65)
	for _, b := range uname.Release {
		if b == 0 {
			break
		}
		release = append(release, byte(b))
	}

	return string(release)
}

// Control function for net.ListenConfig on Linux.
// This is called by Listen during UDPTransport socket creation.
func platformControl(_, _ string, c syscall.RawConn) error {
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
