package vk

import (
	"github.com/vkngwrapper/extensions/khr_surface"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// Surface is a khr_surface presentation target.
type Surface struct {
	handle khr_surface.Surface
}

func physical(dev gpu.PhysicalDevice) *PhysicalDevice {
	return dev.(*PhysicalDevice)
}

func (s *Surface) SupportsPresent(dev gpu.PhysicalDevice, family int) (bool, error) {
	supported, _, err := s.handle.PhysicalDeviceSurfaceSupport(physical(dev).handle, family)
	return supported, err
}

func (s *Surface) Capabilities(dev gpu.PhysicalDevice) (*khr_surface.SurfaceCapabilities, error) {
	capabilities, _, err := s.handle.PhysicalDeviceSurfaceCapabilities(physical(dev).handle)
	return capabilities, err
}

func (s *Surface) Formats(dev gpu.PhysicalDevice) ([]khr_surface.SurfaceFormat, error) {
	formats, _, err := s.handle.PhysicalDeviceSurfaceFormats(physical(dev).handle)
	return formats, err
}

func (s *Surface) PresentModes(dev gpu.PhysicalDevice) ([]khr_surface.PresentMode, error) {
	presentModes, _, err := s.handle.PhysicalDeviceSurfacePresentModes(physical(dev).handle)
	return presentModes, err
}

func (s *Surface) Destroy() {
	if s.handle != nil {
		s.handle.Destroy(nil)
		s.handle = nil
	}
}
