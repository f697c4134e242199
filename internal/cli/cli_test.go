package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cruciblehq/appdrawer/internal/client"
	"github.com/cruciblehq/appdrawer/internal/server"
)

func TestReadPID(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.pid")
	os.WriteFile(good, []byte("1234\n"), 0644)
	pid, err := readPID(good)
	if err != nil {
		t.Fatalf("readPID: %v", err)
	}
	if pid != 1234 {
		t.Fatalf("pid = %d, want 1234", pid)
	}

	bad := filepath.Join(dir, "bad.pid")
	os.WriteFile(bad, []byte("abc"), 0644)
	if _, err := readPID(bad); err == nil {
		t.Fatal("readPID accepted a malformed file")
	}

	if _, err := readPID(filepath.Join(dir, "missing.pid")); err == nil {
		t.Fatal("readPID accepted a missing file")
	}
}

func TestProcessAlive(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Fatal("processAlive(self) = false")
	}
}

func TestPing(t *testing.T) {
	dir, err := os.MkdirTemp("", "cli")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	socket := filepath.Join(dir, "s")
	srv, err := server.New(server.Config{
		SocketPath: socket,
		PIDFile:    "-",
		BufferDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := ping(ctx, socket, client.Options{}); err != nil {
		t.Fatalf("ping: %v", err)
	}

	srv.Stop()
	if _, err := ping(ctx, socket, client.Options{}); err == nil {
		t.Fatal("ping succeeded after Stop")
	}
}

func TestLoadConfigSocketOverride(t *testing.T) {
	saved := RootCmd
	defer func() { RootCmd = saved }()

	RootCmd.Config = filepath.Join(t.TempDir(), "missing.yaml")
	RootCmd.Socket = "/tmp/override.sock"

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Socket != "/tmp/override.sock" {
		t.Fatalf("Socket = %q, want /tmp/override.sock", cfg.Socket)
	}
}
