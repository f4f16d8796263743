package session

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync/atomic"
)

// ExecOpener opens the authorization URL by spawning a browser process and
// treats process exit as window closure. The command is configurable because
// launchers differ in whether they block until the window closes
// (e.g. "open -W" on macOS, "chromium --app=%s" on Linux); a non-blocking
// launcher makes closure fire immediately, which degrades the detector to
// the grace-delay path.
type ExecOpener struct {
	// Command template; a "%s" placeholder receives the URL, otherwise the
	// URL is appended as the last argument.
	Command []string
}

// DefaultOpener picks a platform launcher.
func DefaultOpener() *ExecOpener {
	switch runtime.GOOS {
	case "darwin":
		return &ExecOpener{Command: []string{"open", "-W"}}
	case "windows":
		return &ExecOpener{Command: []string{"rundll32", "url.dll,FileProtocolHandler"}}
	default:
		return &ExecOpener{Command: []string{"xdg-open"}}
	}
}

type processWindow struct {
	closed atomic.Bool
}

func (w *processWindow) Closed() bool { return w.closed.Load() }

func (o *ExecOpener) Open(url string) (Window, error) {
	if len(o.Command) == 0 {
		return nil, fmt.Errorf("no browser command configured")
	}

	args := make([]string, 0, len(o.Command))
	substituted := false
	for _, part := range o.Command {
		if strings.Contains(part, "%s") {
			part = strings.ReplaceAll(part, "%s", url)
			substituted = true
		}
		args = append(args, part)
	}
	if !substituted {
		args = append(args, url)
	}

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	win := &processWindow{}
	go func() {
		cmd.Wait()
		win.closed.Store(true)
	}()
	return win, nil
}
