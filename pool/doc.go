// Package pool
// Author: momentics <momentics@gmail.com>
//
// Buffer pooling for hioload-reactor connections. Read buffers are large and
// short-lived compared to the process, so connections borrow them from a
// BytePool and hand them back on Close.
package pool
