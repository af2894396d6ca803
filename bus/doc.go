// Package bus
// Author: momentics <momentics@gmail.com>
//
// D-Bus endpoint for the reactor. The bus client delivers signals on its own
// goroutine; the Adapter queues them and writes one byte to a wake pipe whose
// read end is the descriptor the Agent waits on. HandleRead then dispatches
// the queued signals on the reactor goroutine, so user handlers never run
// concurrently with other readiness callbacks.
package bus
