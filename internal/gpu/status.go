package gpu

// Status is the non-fatal outcome of an acquire, present or wait.
type Status int

const (
	// StatusSuccess means the operation completed.
	StatusSuccess Status = iota
	// StatusSuboptimal means the swapchain still works but no longer
	// matches the surface exactly.
	StatusSuboptimal
	// StatusOutOfDate means the swapchain can no longer be used.
	StatusOutOfDate
	// StatusTimeout means the wait expired before the GPU signaled.
	StatusTimeout
	// StatusNotReady is a timeout on a zero-length wait.
	StatusNotReady
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	case StatusTimeout:
		return "timeout"
	case StatusNotReady:
		return "not ready"
	}
	return "unknown"
}

// Expired reports whether s is a timeout of either kind.
func (s Status) Expired() bool {
	return s == StatusTimeout || s == StatusNotReady
}
