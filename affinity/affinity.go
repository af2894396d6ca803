// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for pinning the reactor goroutine. Platform-specific
// implementations are located in separate files guarded by build tags.

package affinity

import (
	"runtime"

	"github.com/momentics/hioload-reactor/api"
)

// MaxCPU bounds the CPU numbers accepted by Pin (CPU_SETSIZE).
const MaxCPU = 1024

// Pin locks the calling goroutine to its OS thread and restricts that thread
// to the logical CPU cpuID. The returned function restores the previous mask
// and unlocks the thread; call it from the same goroutine.
func Pin(cpuID int) (func() error, error) {
	if cpuID < 0 || cpuID >= MaxCPU {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "cpu out of range").WithContext("cpu", cpuID)
	}
	runtime.LockOSThread()
	restore, err := setAffinityPlatform(cpuID)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return func() error {
		defer runtime.UnlockOSThread()
		return restore()
	}, nil
}

// Current returns the CPUs the calling thread may run on.
func Current() ([]int, error) {
	return currentPlatform()
}
