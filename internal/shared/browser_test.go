package shared

import (
	"errors"
	"os/exec"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCmd
	t.Cleanup(func() { getRuntime, startCmd = origRuntime, origStart })

	var started []string
	startCmd = func(c *exec.Cmd) error {
		started = c.Args
		return nil
	}

	t.Run("linux", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		if err := OpenBrowser("https://music.apple.com/us/album/1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(started) != 2 || started[0] != "xdg-open" {
			t.Errorf("expected xdg-open invocation, got %v", started)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("rejects non web links", func(t *testing.T) {
		getRuntime = func() string { return "darwin" }
		for _, u := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "/relative"} {
			if err := OpenBrowser(u); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("OpenBrowser(%q): expected ErrInvalidArgument, got %v", u, err)
			}
		}
	})
}
