// Package config loads the appdrawer configuration file.
//
// Settings come from three layers, lowest first: built-in defaults, the
// YAML file (by default $XDG_CONFIG_HOME/appdrawer/config.yaml) and command
// line flags applied by the caller. A missing file is not an error; unknown
// keys are.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cruciblehq/appdrawer/internal/paths"
	"github.com/cruciblehq/appdrawer/internal/protocol"
	"github.com/cruciblehq/appdrawer/internal/server"
)

var ErrConfig = errors.New("invalid configuration")

// Server settings.
type Config struct {
	Socket           string  `yaml:"socket"`
	Backlog          int     `yaml:"backlog"`
	Events           Events  `yaml:"events"`
	Buffers          Buffers `yaml:"buffers"`
	Screen           Screen  `yaml:"screen"`
	ReapOnDisconnect bool    `yaml:"reap_on_disconnect"`
	Admin            Admin   `yaml:"admin"`
}

// Per-window event sockets.
type Events struct {
	Dir          string        `yaml:"dir"`
	Prefix       string        `yaml:"prefix"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
}

// Shared-memory pixel buffers.
type Buffers struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

// Screen size used to centre new windows.
type Screen struct {
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

// Optional HTTP admin endpoint.
type Admin struct {
	Address string `yaml:"address"`
}

// Returns the built-in defaults.
func Default() Config {
	return Config{
		Backlog: server.DefaultBacklog,
		Events: Events{
			Prefix:       paths.DefaultEventPrefix,
			ReadyTimeout: 2 * time.Second,
		},
		Buffers: Buffers{
			Dir:    paths.DefaultBufferDir,
			Prefix: paths.DefaultBufferPrefix,
		},
		Screen: Screen{
			Width:  640,
			Height: 480,
		},
	}
}

// Reads the file at path over the defaults and validates the result. A
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(ErrConfig, "read %s: %v", path, err)
	}

	if err := decodeStrict(data, &cfg); err != nil {
		return cfg, errors.Wrapf(ErrConfig, "parse %s: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Backlog <= 0:
		return errors.Wrapf(ErrConfig, "backlog must be positive, got %d", c.Backlog)
	case c.Events.ReadyTimeout <= 0:
		return errors.Wrapf(ErrConfig, "events.ready_timeout must be positive, got %s", c.Events.ReadyTimeout)
	case c.Events.Prefix == "":
		return errors.Wrap(ErrConfig, "events.prefix must not be empty")
	case c.Buffers.Prefix == "":
		return errors.Wrap(ErrConfig, "buffers.prefix must not be empty")
	case filepath.Base(c.Buffers.Prefix) != c.Buffers.Prefix:
		return errors.Wrapf(ErrConfig, "buffers.prefix %q must not contain a slash", c.Buffers.Prefix)
	case c.Buffers.Dir != "" && !filepath.IsAbs(c.Buffers.Dir):
		return errors.Wrapf(ErrConfig, "buffers.dir %q must be absolute", c.Buffers.Dir)
	case c.Screen.Width == 0 || c.Screen.Height == 0:
		return errors.Wrapf(ErrConfig, "screen size %dx%d must be positive", c.Screen.Width, c.Screen.Height)
	}
	return nil
}

// Resolves per-window naming, filling the event directory from the runtime
// directory when unset.
func (c Config) Naming() paths.Naming {
	dir := c.Events.Dir
	if dir == "" {
		dir = paths.Runtime()
	}
	return paths.Naming{
		EventDir:     dir,
		EventPrefix:  c.Events.Prefix,
		BufferPrefix: c.Buffers.Prefix,
	}
}

// Translates the configuration into server settings.
func (c Config) Server() server.Config {
	return server.Config{
		SocketPath:       c.Socket,
		Backlog:          c.Backlog,
		Naming:           c.Naming(),
		BufferDir:        c.Buffers.Dir,
		Screen:           protocol.Vec2{X: c.Screen.Width, Y: c.Screen.Height},
		ReadyTimeout:     c.Events.ReadyTimeout,
		ReapOnDisconnect: c.ReapOnDisconnect,
	}
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}
