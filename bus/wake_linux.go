//go:build linux

package bus

import "golang.org/x/sys/unix"

// newWakePipe returns a non-blocking, close-on-exec pipe.
func newWakePipe() (rfd, wfd int, err error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return -1, -1, err
	}
	return p[0], p[1], nil
}
