package internal

import (
	"strconv"
	"sync/atomic"
)

var (
	quietMode   atomic.Bool
	debugMode   atomic.Bool
	verboseMode atomic.Bool
)

// Seeds the output modes from linker flags. Values that do not parse as a
// boolean leave the mode disabled.
func init() {
	if v, err := strconv.ParseBool(rawQuiet); err == nil {
		quietMode.Store(v)
	}
	if v, err := strconv.ParseBool(rawDebug); err == nil {
		debugMode.Store(v)
	}
	if v, err := strconv.ParseBool(rawVerbose); err == nil {
		verboseMode.Store(v)
	}
}

func SetQuiet(enabled bool)   { quietMode.Store(enabled) }
func IsQuiet() bool           { return quietMode.Load() }
func SetDebug(enabled bool)   { debugMode.Store(enabled) }
func IsDebug() bool           { return debugMode.Load() }
func SetVerbose(enabled bool) { verboseMode.Store(enabled) }
func IsVerbose() bool         { return verboseMode.Load() }
