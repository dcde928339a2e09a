// xemuctl drives a xemu instance over its QMP control socket: run
// control, screenshots, synthetic key and gamepad input, and scripted
// input sequences for automated menu navigation.
//
// Start xemu with the control listener enabled:
//
//	xemu -qmp tcp:localhost:4444,server,nowait
//
// Then, for example:
//
//	xemuctl status
//	xemuctl key ret
//	xemuctl run menu-start
package main

func main() {
	Execute()
}
