package main

import "runtime"

func init() {
	// GTK and the web views must be driven from the main thread.
	runtime.LockOSThread()
}
