package passconfig

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestRegisterFlagsBindsFields(t *testing.T) {
	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)

	if err := fs.Parse([]string{"-v", "--disable-view-inverse"}); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !cfg.Verbose {
		t.Error("expected -v to set Verbose")
	}
	if !cfg.DisableViewInverse {
		t.Error("expected --disable-view-inverse to set DisableViewInverse")
	}
}

func TestDefaultIsSilentAndConservativeOff(t *testing.T) {
	cfg := Default()
	if cfg.Verbose || cfg.DisableViewInverse {
		t.Errorf("expected zero-value defaults, got %+v", cfg)
	}
}
