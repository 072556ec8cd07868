//go:build !windows

package usbrelay

// detachKernelDriver reports whether the platform binds a kernel driver
// (ftdi_sio) to the board that must be detached before the interface can be
// claimed. On these platforms libusb reattaches it on release.
const detachKernelDriver = true
