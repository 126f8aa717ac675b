package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	// probeTimeout bounds one dial of the daemon socket.
	probeTimeout = 100 * time.Millisecond
	// startupWait is how long a freshly spawned daemon gets to bind its
	// socket before the caller gives up.
	startupWait = 5 * time.Second
)

// spawnDaemon re-executes the current binary with the daemon subcommand in
// its own session, so the daemon outlives the CLI process that started it.
// Output is dropped; the daemon writes to its own log file.
func spawnDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	cmd := exec.Command(exe, "daemon")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting daemon process: %w", err)
	}
	return cmd.Process.Release()
}

// waitUntilReady polls the socket until the daemon answers or the deadline
// passes.
func (c *Client) waitUntilReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.IsAvailable() {
			return nil
		}
		time.Sleep(probeTimeout)
	}
	return fmt.Errorf("daemon did not answer on %s within %s", c.socketPath, timeout)
}
