package render

import "github.com/cockroachdb/errors"

var (
	// ErrNoSuitableDevice means no physical device satisfies the
	// selection criteria. Fatal.
	ErrNoSuitableDevice = errors.New("no suitable GPU")
	// ErrDeviceCreation means the logical device could not be opened. Fatal.
	ErrDeviceCreation = errors.New("logical device creation failed")
	// ErrSwapchainCreation means the driver rejected the swapchain
	// configuration. Fatal at startup; retried on the next tick during
	// recreation.
	ErrSwapchainCreation = errors.New("swapchain creation failed")
	// ErrNoSurfaceFormat means the surface reports no format at all. Fatal.
	ErrNoSurfaceFormat = errors.New("surface reports no formats")
	// ErrZeroExtent means the framebuffer has no area (minimised window).
	ErrZeroExtent = errors.New("framebuffer has zero extent")
	// ErrSwapchainOutOfDate means the chain no longer matches its surface.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
	// ErrTimeout means a fence or acquire wait expired.
	ErrTimeout = errors.New("gpu wait timed out")
)

// IsRecoverable reports whether err describes a transient condition that
// the render loop handles by skipping the frame.
func IsRecoverable(err error) bool {
	return errors.IsAny(err, ErrSwapchainOutOfDate, ErrTimeout, ErrZeroExtent)
}
