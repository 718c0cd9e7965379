//go:build windows

package main

import (
	"os"

	. "golang.org/x/sys/windows"
)

// enableANSI turns on virtual-terminal processing for stdout/stderr so the
// PASS/FAIL colour codes render instead of leaking raw escape sequences,
// matching ratsum/init0.go's console-mode handshake.
func enableANSI() bool {
	for _, h := range [2]Handle{Handle(os.Stdout.Fd()), Handle(os.Stderr.Fd())} {
		var mode uint32
		if err := GetConsoleMode(h, &mode); err != nil {
			return false
		}
		if mode&ENABLE_VIRTUAL_TERMINAL_PROCESSING == 0 {
			if err := SetConsoleMode(h, mode|ENABLE_VIRTUAL_TERMINAL_PROCESSING); err != nil {
				return false
			}
		}
	}
	return true
}
