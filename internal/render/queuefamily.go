package render

import (
	"github.com/cockroachdb/errors"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// QueueFamilyIndices maps the two queue roles onto a device's families.
type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// Shared reports whether graphics and presentation use the same family.
// Only meaningful on a complete result.
func (i *QueueFamilyIndices) Shared() bool {
	return *i.GraphicsFamily == *i.PresentFamily
}

// Unique returns the distinct families, graphics first.
func (i *QueueFamilyIndices) Unique() []int {
	families := []int{*i.GraphicsFamily}
	if !i.Shared() {
		families = append(families, *i.PresentFamily)
	}
	return families
}

// FindQueueFamilies scans the families of device once, recording the first
// graphics-capable family and the first family able to present to surface.
func FindQueueFamilies(device gpu.PhysicalDevice, surface gpu.Surface) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}

	for queueFamilyIdx, queueFamily := range device.QueueFamilies() {
		if indices.GraphicsFamily == nil && queueFamily.Graphics {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		if indices.PresentFamily == nil {
			supported, err := surface.SupportsPresent(device, queueFamilyIdx)
			if err != nil {
				return indices, errors.Wrapf(err, "query present support of family %d", queueFamilyIdx)
			}

			if supported {
				indices.PresentFamily = new(int)
				*indices.PresentFamily = queueFamilyIdx
			}
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}
