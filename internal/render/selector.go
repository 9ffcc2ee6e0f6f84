package render

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// DeviceSelector picks the physical device to render with.
//
// A device qualifies when it has a graphics family, a family that can
// present to the surface, every required extension, and at least one
// surface format and present mode. Among qualifying devices the highest
// score wins; ties go to the earliest in enumeration order, so the choice is
// deterministic for given hardware. Without PreferDiscrete every qualifying
// device scores the same and the first one is chosen.
type DeviceSelector struct {
	RequiredExtensions []string
	PreferDiscrete     bool
}

// Selection is the outcome of DeviceSelector.Select.
type Selection struct {
	Device   gpu.PhysicalDevice
	Index    int
	Type     gpu.DeviceType
	Families QueueFamilyIndices
}

func (s DeviceSelector) Select(devices []gpu.PhysicalDevice, surface gpu.Surface) (Selection, error) {
	var best Selection
	bestScore := -1
	var rejected []string

	for idx, device := range devices {
		families, reason := s.isDeviceSuitable(device, surface)
		if reason != "" {
			Logger().Debug("rejecting device", "index", idx, "name", device.Name(), "reason", reason)
			rejected = append(rejected, fmt.Sprintf("%s: %s", device.Name(), reason))
			continue
		}

		deviceType, err := device.Type()
		if err != nil {
			Logger().Debug("could not read device type", "index", idx, "error", err)
			deviceType = gpu.DeviceTypeOther
		}

		score := s.rateDevice(deviceType)
		if score > bestScore {
			bestScore = score
			best = Selection{
				Device:   device,
				Index:    idx,
				Type:     deviceType,
				Families: families,
			}
		}
	}

	if best.Device == nil {
		err := errors.Mark(errors.Newf("failed to find a suitable GPU among %d candidates", len(devices)), ErrNoSuitableDevice)
		if len(rejected) > 0 {
			err = errors.WithDetail(err, strings.Join(rejected, "\n"))
		}
		return Selection{}, err
	}

	Logger().Info("selected device",
		"index", best.Index,
		"name", best.Device.Name(),
		"type", best.Type,
		"graphicsFamily", *best.Families.GraphicsFamily,
		"presentFamily", *best.Families.PresentFamily)
	return best, nil
}

func (s DeviceSelector) rateDevice(deviceType gpu.DeviceType) int {
	if !s.PreferDiscrete {
		return 0
	}

	switch deviceType {
	case gpu.DeviceTypeDiscrete:
		return 3
	case gpu.DeviceTypeIntegrated:
		return 2
	case gpu.DeviceTypeVirtual:
		return 1
	}
	return 0
}

// isDeviceSuitable returns a non-empty reason when the device is rejected.
func (s DeviceSelector) isDeviceSuitable(device gpu.PhysicalDevice, surface gpu.Surface) (QueueFamilyIndices, string) {
	indices, err := FindQueueFamilies(device, surface)
	if err != nil {
		return indices, err.Error()
	}
	if !indices.IsComplete() {
		return indices, "missing graphics or present queue family"
	}

	if missing := s.missingExtensions(device); len(missing) > 0 {
		return indices, "missing extensions " + strings.Join(missing, ", ")
	}

	formats, err := surface.Formats(device)
	if err != nil {
		return indices, err.Error()
	}
	presentModes, err := surface.PresentModes(device)
	if err != nil {
		return indices, err.Error()
	}
	if len(formats) == 0 || len(presentModes) == 0 {
		return indices, "no surface format or present mode"
	}

	return indices, ""
}

func (s DeviceSelector) missingExtensions(device gpu.PhysicalDevice) []string {
	available, err := device.Extensions()
	if err != nil {
		return s.RequiredExtensions
	}

	has := make(map[string]bool, len(available))
	for _, ext := range available {
		has[ext] = true
	}

	var missing []string
	for _, extension := range s.RequiredExtensions {
		if !has[extension] {
			missing = append(missing, extension)
		}
	}
	return missing
}
