package common

import (
	"darsig/status"
)

// Compiled-in debugging switch, turns up the log level for every run.
const DEBUG = false

// MT: Constant after initialization; thread-safe
var Log status.Logger = status.Default()

func init() {
	if DEBUG {
		Log.SetLevel(status.LogLevelInfo)
	}
}
