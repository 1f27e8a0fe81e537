//go:build !windows

package optio

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

type unixPlatform struct {
	once   sync.Once
	colors int
}

func newPlatform() platform { return &unixPlatform{} }

func (u *unixPlatform) enableVirtualTerminal() bool { return true }
func (u *unixPlatform) vtEnabled() bool             { return true }

// colorCount asks terminfo through tput, falling back to TERM hints. The
// answer is cached for the life of the process.
func (u *unixPlatform) colorCount() int {
	u.once.Do(func() {
		if exec.Command("tput", "RGB").Run() == nil {
			u.colors = 1 << 24
			return
		}
		if out, err := exec.Command("tput", "colors").Output(); err == nil {
			if n, err := strconv.Atoi(strings.TrimSpace(string(out))); err == nil {
				u.colors = n
				return
			}
		}
		t := os.Getenv("TERM")
		switch {
		case strings.Contains(t, "256"):
			u.colors = 256
		case t != "" && t != "dumb":
			u.colors = 8
		}
	})
	return u.colors
}

func (u *unixPlatform) colorCapabilityLevel() int {
	switch n := u.colorCount(); {
	case n >= 1<<24:
		return 3
	case n >= 256:
		return 2
	case n >= 8:
		return 1
	default:
		return 0
	}
}
