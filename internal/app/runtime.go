package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "FINDASH_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

// InTestMode reports whether FINDASH_TEST_MODE=1. In test mode .env files are
// not read and the serve and worker entrypoints return before dialling Redis.
func InTestMode() bool {
	testModeOnce.Do(RefreshTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads FINDASH_TEST_MODE.
func RefreshTestMode() {
	testMode.Store(os.Getenv(testModeEnv) == "1")
}
