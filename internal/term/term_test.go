package term

import (
	"os"
	"testing"

	"github.com/backmassage/magickbatch/internal/config"
)

func TestConfigure(t *testing.T) {
	Configure(config.ColorAlways)
	if !Enabled() || Red == "" || NC == "" {
		t.Error("ColorAlways should set escape codes")
	}
	Configure(config.ColorNever)
	if Enabled() || Red != "" || NC != "" {
		t.Error("ColorNever should clear escape codes")
	}
}

func TestConfigure_AutoHonoursNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	Configure(config.ColorAuto)
	if Enabled() {
		t.Error("NO_COLOR must disable auto colours")
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("nil file is not a terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "plain")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("regular file reported as terminal")
	}
}

func TestPaint(t *testing.T) {
	Configure(config.ColorNever)
	if got := Paint(Red, "x"); got != "x" {
		t.Errorf("disabled: got %q", got)
	}
	Configure(config.ColorAlways)
	defer Configure(config.ColorNever)
	if got := Paint(Green, "ok"); got != "\033[1;92mok\033[0m" {
		t.Errorf("enabled: got %q", got)
	}
}
