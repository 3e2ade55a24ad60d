// Except.go: Contains functions to make handling panics less PITA

package helpers

import (
	"fmt"
	"runtime"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/getsentry/raven-go"
)

// DEBUG_MODE adds stack traces to recovered panics
var DEBUG_MODE = false

// Recover recover()s, logs the error and sends it to sentry
func Recover() {
	err := recover()
	if err != nil {
		fields := map[string]string{}
		if DEBUG_MODE {
			buf := make([]byte, 1<<16)
			stackSize := runtime.Stack(buf, false)
			fields["Stack"] = string(buf[0:stackSize])
		}

		cache.GetLogger().WithField("module", "except").Error(fmt.Sprintf("recovered from panic: %#v", err))
		raven.CaptureError(fmt.Errorf("%#v", err), fields)
	}
}

// RelaxLog logs $err if it is not nil, without panicking
func RelaxLog(err error) {
	if err != nil {
		cache.GetLogger().WithField("module", "except").Error(err.Error())
		raven.CaptureError(err, map[string]string{})
	}
}
