//go:build windows

package usbrelay

// Windows has no kernel driver to detach; the WinUSB/libusbK driver is bound
// out of band and auto-detach is unsupported by libusb there.
const detachKernelDriver = false
