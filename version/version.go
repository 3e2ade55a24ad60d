package version

import "github.com/Seklfreak/Pebble/cache"

// Version related vars
// Set by compiler
var (
	// BOT_VERSION example: 0.5.2-4-g205bbb8
	BOT_VERSION string = "DEV_SNAPSHOT"

	// BUILD_TIME example: Fri Jan  6 00:45:46 CET 2017
	BUILD_TIME string = "UNSET"
)

// DumpInfo logs the build information
func DumpInfo() {
	log := cache.GetLogger().WithField("module", "version")
	log.Info("PEBBLE VERSION: " + BOT_VERSION)
	log.Debug("BUILD TIME: " + BUILD_TIME)
}
