package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "DISPATCH_TEST_MODE"

var (
	testModeMu     sync.RWMutex
	testModeLoaded bool
	testMode       bool
)

// InTestMode reports whether DISPATCH_TEST_MODE is set to a true value. The
// binaries return early when it is, so package tests can import them.
func InTestMode() bool {
	testModeMu.RLock()
	loaded, on := testModeLoaded, testMode
	testModeMu.RUnlock()
	if loaded {
		return on
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads the environment and returns the new value.
func RefreshTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testModeMu.Lock()
	testModeLoaded, testMode = true, on
	testModeMu.Unlock()
	return on
}
