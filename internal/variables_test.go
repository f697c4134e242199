package internal

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestVersionStringLocal(t *testing.T) {
	if got := VersionString(); got != defaultLocalBuild {
		t.Fatalf("VersionString() = %q, want %q", got, defaultLocalBuild)
	}
}

func TestVersionStringStamped(t *testing.T) {
	oldVersion, oldStage, oldCommit := version, stage, gitCommit
	t.Cleanup(func() { version, stage, gitCommit = oldVersion, oldStage, oldCommit })

	version, stage, gitCommit = "V1.4.0", "main", "abc123"
	if got := VersionString(); !strings.HasPrefix(got, "1.4.0 abc123 [") {
		t.Fatalf("VersionString() = %q, want 1.4.0 abc123 [...]", got)
	}

	stage = "Staging"
	if got := VersionString(); !strings.HasPrefix(got, "1.4.0+staging abc123 [") {
		t.Fatalf("VersionString() = %q, want 1.4.0+staging abc123 [...]", got)
	}
}

func TestLogLevel(t *testing.T) {
	t.Cleanup(func() {
		SetDebug(false)
		SetQuiet(false)
	})

	if got := LogLevel(); got != slog.LevelInfo {
		t.Fatalf("LogLevel() = %v, want info", got)
	}
	SetQuiet(true)
	if got := LogLevel(); got != slog.LevelWarn {
		t.Fatalf("LogLevel() = %v, want warn", got)
	}
	SetDebug(true)
	if got := LogLevel(); got != slog.LevelDebug {
		t.Fatalf("LogLevel() = %v, want debug", got)
	}
}

func TestNewLogHandlerNonTerminalIsJSON(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewLogHandler(&buf, slog.LevelInfo, false)).Info("hello", "id", 7)

	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("output = %q, want a JSON object", buf.String())
	}
	if !strings.Contains(buf.String(), `"id":7`) {
		t.Fatalf("output = %q, missing id attribute", buf.String())
	}
}
