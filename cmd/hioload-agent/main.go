// hioload-agent is an echo server driven by a single-threaded reactor.
package main

import "os"

func main() {
	os.Exit(execute())
}
