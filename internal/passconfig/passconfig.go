// Package passconfig is the pass's tuning/debugging surface: whether
// to log rewrite decisions and whether the view-inverse optimization
// is enabled, settable from flags without recompiling.
// Flags are parsed with github.com/spf13/pflag, the POSIX-style flag
// package the broader corpus's cmd/ front-ends standardize on.
package passconfig

import "github.com/spf13/pflag"

// Config is the pass's tunable surface.
type Config struct {
	// Verbose gates internal/obslog's structured rewrite-decision log.
	Verbose bool

	// DisableViewInverse turns off the view-inverse matcher: every
	// candidate with a surviving later use is skipped, even one a
	// scatter would otherwise prove safe. Exists purely for debugging
	// regressions in the matcher itself; the pass is correct with it
	// either on or off, just more conservative when off.
	DisableViewInverse bool
}

// RegisterFlags binds c's fields onto fs under the given prefix-free
// flag names, mirroring the teacher corpus's convention of a plain
// struct bound once at startup rather than package-level flag vars.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "log one structured record per rewrite decision")
	fs.BoolVar(&c.DisableViewInverse, "disable-view-inverse", false, "disable the view-inverse matcher (more conservative rewriting)")
}

// Default returns the pass's default configuration: silent, with the
// view-inverse optimization enabled.
func Default() *Config {
	return &Config{}
}
