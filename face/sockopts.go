package face

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddrControl is passed to net.ListenConfig.Control and net.Dialer.Control
// so multiple listeners (and the daemon restarting in place) can bind the
// same local port without waiting out TIME_WAIT, matching ccnd's historical
// SO_REUSEADDR behavior on its control-plane sockets.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// dualStackControl additionally clears IPV6_V6ONLY so a single wildcard
// "tcp6"/"udp6" listener also accepts IPv4-mapped connections, the same
// dual-stack default ccnd's wildcard listener relied on.
func dualStackControl(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); sockErr != nil {
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// sendQueueSize reports the kernel's outbound socket buffer backlog via
// TIOCOUTQ, used to populate Transport.GetSendQueueSize on stream and
// datagram sockets alike.
func sendQueueSize(rawConn syscall.RawConn) uint64 {
	var size int
	err := rawConn.Control(func(fd uintptr) {
		v, err := unix.IoctlGetInt(int(fd), unix.TIOCOUTQ)
		if err == nil {
			size = v
		}
	})
	if err != nil {
		return 0
	}
	if size < 0 {
		return 0
	}
	return uint64(size)
}
