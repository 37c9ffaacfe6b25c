//go:build !windows
// +build !windows

package ifexists

import (
	"syscall"
	"unsafe"
)

func terminalWidth() uint {
	const (
		maxWidth     = 140 // don't go over 140 chars anyway
		defaultWidth = 110 // in case we can't get the terminal width
	)

	ws := &struct{ Row, Col, Xpixel, Ypixel uint16 }{}
	retCode, _, _ := syscall.Syscall(syscall.SYS_IOCTL,
		uintptr(syscall.Stdout),
		uintptr(syscall.TIOCGWINSZ),
		uintptr(unsafe.Pointer(ws)))

	switch {
	case int(retCode) == -1 || ws.Col == 0:
		return defaultWidth
	case ws.Col > maxWidth:
		return maxWidth
	}
	return uint(ws.Col)
}
