package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/cruciblehq/appdrawer/internal/client"
	"github.com/cruciblehq/appdrawer/internal/paths"
)

var ErrNotRunning = errors.New("server is not running")

// Represents the 'appdrawer status' command.
type StatusCmd struct {
	PIDFile string `name:"pid-file" help:"PID file written by the server." placeholder:"PATH"`
}

// Executes the status command.
//
// Reports whether the process named in the PID file is alive and whether
// the command socket answers a PING. Fails with [ErrNotRunning] when the
// socket does not answer.
func (c *StatusCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pidFile := c.PIDFile
	if pidFile == "" {
		pidFile = paths.PIDFile()
	}

	if pid, err := readPID(pidFile); err != nil {
		fmt.Printf("pid:     unknown (%v)\n", err)
	} else if processAlive(pid) {
		fmt.Printf("pid:     %d (alive)\n", pid)
	} else {
		fmt.Printf("pid:     %d (not running)\n", pid)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	rtt, err := ping(ctx, cfg.Socket, client.Options{Naming: cfg.Naming(), BufferDir: cfg.Buffers.Dir})
	if err != nil {
		fmt.Printf("socket:  %s (not answering)\n", cfg.Socket)
		return errors.Wrap(ErrNotRunning, err.Error())
	}

	fmt.Printf("socket:  %s (answered in %s)\n", cfg.Socket, rtt.Round(time.Microsecond))
	return nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrapf(err, "malformed PID file %s", path)
	}
	return pid, nil
}

// Reports whether a process with the given pid exists. EPERM means it
// exists but belongs to another user.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
