package render

import (
	"github.com/cockroachdb/errors"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// Context is the process-scoped device state every component borrows. It
// owns the logical device; the surface and physical device belong to the
// caller.
type Context struct {
	Surface        gpu.Surface
	PhysicalDevice gpu.PhysicalDevice
	Device         gpu.Device
	Families       QueueFamilyIndices

	GraphicsQueue gpu.Queue
	PresentQueue  gpu.Queue
}

// NewContext opens a logical device on the selected physical device with one
// queue per unique family.
func NewContext(sel Selection, surface gpu.Surface, extensions []string) (*Context, error) {
	if !sel.Families.IsComplete() {
		return nil, errors.Mark(errors.New("selection has incomplete queue families"), ErrDeviceCreation)
	}

	device, err := sel.Device.CreateDevice(sel.Families.Unique(), extensions)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "create logical device on %s", sel.Device.Name()), ErrDeviceCreation)
	}

	return &Context{
		Surface:        surface,
		PhysicalDevice: sel.Device,
		Device:         device,
		Families:       sel.Families,
		GraphicsQueue:  device.Queue(*sel.Families.GraphicsFamily),
		PresentQueue:   device.Queue(*sel.Families.PresentFamily),
	}, nil
}

// WaitIdle blocks until no submitted work references any device object.
func (c *Context) WaitIdle() error {
	return errors.Wrap(c.Device.WaitIdle(), "wait for device idle")
}

func (c *Context) Destroy() {
	if c.Device != nil {
		c.Device.Destroy()
		c.Device = nil
	}
}
