// File: cmd/hioload-agent/lock.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"fmt"

	"github.com/gofrs/flock"
)

// acquireLock takes an exclusive advisory lock on path so that two agents
// with the same lock file never run at once.
func acquireLock(path string) (func() error, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another agent holds %s", path)
	}
	return lock.Unlock, nil
}
