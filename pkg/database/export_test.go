package database

import "sync"

// ResetInstance clears the process-wide connection between tests.
func ResetInstance() {
	instance = nil
	instanceErr = nil
	instanceOnce = sync.Once{}
}
