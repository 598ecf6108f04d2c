package app

import (
	"os"
	"sync"
)

// TestModeEnv is set by the testing package so binaries imported by tests do not
// open listeners or connections.
const TestModeEnv = "COLLEGEOS_TEST_MODE"

// InTestMode reports whether TestModeEnv was "1" when first asked.
var InTestMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})
