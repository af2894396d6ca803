//go:build !linux
// +build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package affinity

import "github.com/momentics/hioload-reactor/api"

func setAffinityPlatform(int) (func() error, error) {
	return nil, api.ErrNotSupported
}

func currentPlatform() ([]int, error) {
	return nil, api.ErrNotSupported
}
