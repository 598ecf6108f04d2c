// Package testing flips the process into test mode when imported for side effects.
package testing

import (
	"os"
	stdtesting "testing"
)

func init() {
	setTestEnv()
}

func setTestEnv() {
	defaults := map[string]string{
		"COLLEGEOS_TEST_MODE": "1",
		"SESSION_SECRET":      "test-session-secret",
		"CSRF_SECRET":         "test-csrf-secret",
		"CATALOG_SOURCE":      "seed",
		"DIRECTORY_SOURCE":    "seed",
	}
	for key, value := range defaults {
		if key == "COLLEGEOS_TEST_MODE" || os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}

// TestMain lets packages delegate their TestMain here.
func TestMain(m *stdtesting.M) {
	setTestEnv()
	os.Exit(m.Run())
}
