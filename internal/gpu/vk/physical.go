package vk

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// PhysicalDevice is a GPU reported by the instance.
type PhysicalDevice struct {
	handle core1_0.PhysicalDevice
	name   string
}

func newPhysicalDevice(handle core1_0.PhysicalDevice) *PhysicalDevice {
	d := &PhysicalDevice{handle: handle, name: "unknown device"}
	if properties, err := handle.Properties(); err == nil {
		d.name = properties.DriverName
	}
	return d
}

func (d *PhysicalDevice) Name() string {
	return d.name
}

func (d *PhysicalDevice) Type() (gpu.DeviceType, error) {
	properties, err := d.handle.Properties()
	if err != nil {
		return gpu.DeviceTypeOther, errors.Wrapf(err, "read properties of %s", d.name)
	}
	return deviceType(properties.DriverType), nil
}

func deviceType(t core1_0.PhysicalDeviceType) gpu.DeviceType {
	switch t {
	case core1_0.PhysicalDeviceTypeDiscreteGPU:
		return gpu.DeviceTypeDiscrete
	case core1_0.PhysicalDeviceTypeIntegratedGPU:
		return gpu.DeviceTypeIntegrated
	case core1_0.PhysicalDeviceTypeVirtualGPU:
		return gpu.DeviceTypeVirtual
	case core1_0.PhysicalDeviceTypeCPU:
		return gpu.DeviceTypeCPU
	}
	return gpu.DeviceTypeOther
}

func (d *PhysicalDevice) QueueFamilies() []gpu.QueueFamily {
	queueFamilies := d.handle.QueueFamilyProperties()

	families := make([]gpu.QueueFamily, len(queueFamilies))
	for queueFamilyIdx, queueFamily := range queueFamilies {
		families[queueFamilyIdx].Graphics = (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0
	}
	return families
}

// Extensions lists the device extensions in name order.
func (d *PhysicalDevice) Extensions() ([]string, error) {
	extensions, _, err := d.handle.EnumerateDeviceExtensionProperties()
	if err != nil {
		return nil, errors.Wrapf(err, "list extensions of %s", d.name)
	}

	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateDevice opens a logical device. VK_KHR_portability_subset is added
// whenever the device offers it.
func (d *PhysicalDevice) CreateDevice(families []int, extensions []string) (gpu.Device, error) {
	available, err := d.Extensions()
	if err != nil {
		return nil, err
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range families {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	device, _, err := d.handle.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: deviceExtensions(extensions, available),
	})
	if err != nil {
		return nil, err
	}

	return &Device{
		handle:    device,
		swapchain: khr_swapchain.CreateExtensionFromDevice(device),
	}, nil
}

func deviceExtensions(required, available []string) []string {
	extensionNames := append([]string(nil), required...)
	for _, name := range available {
		if name == khr_portability_subset.ExtensionName {
			extensionNames = append(extensionNames, name)
			break
		}
	}
	return extensionNames
}
