package input

import (
	"context"
	"runtime"

	"github.com/dshills/keybind/internal/input/key"
)

// PlatformDetector resolves the platform the engine runs on.
type PlatformDetector interface {
	Detect(ctx context.Context) (key.Platform, error)
}

// DetectorFunc adapts a function to the PlatformDetector interface.
type DetectorFunc func(ctx context.Context) (key.Platform, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context) (key.Platform, error) {
	return f(ctx)
}

// RuntimeDetector returns a detector that maps runtime.GOOS.
func RuntimeDetector() PlatformDetector {
	return DetectorFunc(func(context.Context) (key.Platform, error) {
		return PlatformFromGOOS(runtime.GOOS), nil
	})
}

// PlatformFromGOOS maps a GOOS value to a platform.
// BSDs and other unixes are reported as linux.
func PlatformFromGOOS(goos string) key.Platform {
	switch goos {
	case "darwin", "ios":
		return key.PlatformMacOS
	case "windows":
		return key.PlatformWindows
	case "linux", "android", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos":
		return key.PlatformLinux
	}
	return key.PlatformUnknown
}

// Platform returns the resolved platform, or key.PlatformUnknown while
// detection is pending or has failed.
func (e *Engine) Platform() key.Platform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.platform
}

// detectPlatform consults the detector in the background and caches the
// first known result.
func (e *Engine) detectPlatform() {
	e.group.Go(func() error {
		p, err := e.opts.Detector.Detect(e.ctx)
		if err != nil {
			e.logger.Debug().Err(err).Msg("platform detection failed")
			return nil
		}
		if !p.IsKnown() {
			e.logger.Debug().Str("platform", string(p)).Msg("platform unresolved")
			return nil
		}

		e.mu.Lock()
		if !e.platform.IsKnown() {
			e.platform = p
		}
		e.mu.Unlock()

		e.logger.Debug().Str("platform", string(p)).Msg("platform detected")
		return nil
	})
}
