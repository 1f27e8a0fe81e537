//go:build windows

package optio

import (
	"os"

	"golang.org/x/sys/windows"
)

type windowsPlatform struct{}

func newPlatform() platform { return windowsPlatform{} }

func stdoutMode() (windows.Handle, uint32, bool) {
	h := windows.Handle(os.Stdout.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return h, 0, false
	}
	return h, mode, true
}

func (windowsPlatform) enableVirtualTerminal() bool {
	h, mode, ok := stdoutMode()
	if !ok {
		return false
	}
	if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
		return true
	}
	return windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}

func (windowsPlatform) vtEnabled() bool {
	_, mode, ok := stdoutMode()
	return ok && mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0
}

func (w windowsPlatform) colorCapabilityLevel() int {
	if os.Getenv("WT_SESSION") != "" || os.Getenv("WT_PROFILE_ID") != "" || os.Getenv("ConEmuANSI") == "ON" {
		return 3
	}
	if w.vtEnabled() {
		return 3
	}
	return 1
}
