package core

import (
	"fmt"
	"os"
)

// CleanupGuard owns the one piece of global state the C ccnd daemon
// kept outside any struct: the unix-domain socket path to unlink at exit.
// Close performs the unlink, replacing the atexit hook; it is that
// destructor. The zero value is a no-op guard.
type CleanupGuard struct {
	sockPath string
}

// NewCleanupGuard records the unix-domain listener path to remove on
// Close. Pass "" if the daemon has no unix listener (e.g. in tests).
func NewCleanupGuard(sockPath string) *CleanupGuard {
	return &CleanupGuard{sockPath: sockPath}
}

// Close unlinks the socket path, if one was set. Safe to call more than
// once.
func (g *CleanupGuard) Close() error {
	if g == nil || g.sockPath == "" {
		return nil
	}
	path := g.sockPath
	g.sockPath = ""
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cleanup: unlink %s: %w", path, err)
	}
	return nil
}

// CheckSocketGone reports whether the guarded unix socket has disappeared
// from disk — an external operator's signal to stop (missing unlinked socket reappearance).
func (g *CleanupGuard) CheckSocketGone() bool {
	if g == nil || g.sockPath == "" {
		return false
	}
	_, err := os.Stat(g.sockPath)
	return os.IsNotExist(err)
}
