package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/cruciblehq/appdrawer/internal/client"
)

// Represents the 'appdrawer ping' command.
type PingCmd struct {
	Timeout time.Duration `default:"2s" help:"Give up after this long."`
}

// Executes the ping command.
func (c *PingCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	rtt, err := ping(ctx, cfg.Socket, client.Options{Naming: cfg.Naming(), BufferDir: cfg.Buffers.Dir})
	if err != nil {
		return err
	}

	fmt.Printf("pong from %s in %s\n", cfg.Socket, rtt.Round(time.Microsecond))
	return nil
}

// Performs one PING round-trip and returns its duration.
func ping(ctx context.Context, socket string, opts client.Options) (time.Duration, error) {
	c, err := client.Dial(ctx, socket, opts)
	if err != nil {
		return 0, err
	}
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		c.SetDeadline(deadline)
	}

	start := time.Now()
	if err := c.Ping(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
