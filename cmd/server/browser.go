package main

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"
)

func localURL(port int) string {
	return fmt.Sprintf("http://localhost:%d/", port)
}

// openBrowserLater opens url in the default browser after delay. Failures
// are logged and otherwise ignored.
func openBrowserLater(logger *slog.Logger, url string, delay time.Duration) *time.Timer {
	return time.AfterFunc(delay, func() {
		if err := launch(browserCommand(runtime.GOOS, url)); err != nil {
			logger.Warn("could not open browser", "url", url, "error", err)
		}
	})
}

// launch runs cmd to completion so the child is reaped.
func launch(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Wait()
}

func browserCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.Command("xdg-open", url)
	}
}
