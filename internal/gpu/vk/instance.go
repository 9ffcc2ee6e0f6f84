// Package vk implements the gpu interfaces on top of vkngwrapper.
package vk

import (
	"context"
	"log/slog"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// InstanceOptions configures NewInstance.
type InstanceOptions struct {
	ApplicationName string
	// WindowExtensions are the instance extensions the window system needs.
	// All of them must be available.
	WindowExtensions []string
	ValidationLayers []string
	EnableValidation bool
	// Logger receives validation messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// Instance owns the Vulkan instance and, when validation is active, the
// debug messenger.
type Instance struct {
	loader    core.Loader
	handle    core1_0.Instance
	messenger ext_debug_utils.DebugUtilsMessenger
	logger    *slog.Logger

	// Validation reports whether validation layers ended up enabled.
	Validation bool
}

// NewInstance loads Vulkan from procAddr and creates an instance. Requested
// validation layers that are not installed disable validation with a
// warning instead of failing.
func NewInstance(procAddr unsafe.Pointer, opts InstanceOptions) (*Instance, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	loader, err := core.CreateLoaderFromProcAddr(procAddr)
	if err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "load vulkan"), "install a Vulkan driver or the LunarG Vulkan SDK")
	}

	i := &Instance{loader: loader, logger: opts.Logger}

	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := loader.AvailableExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "list instance extensions")
	}

	for _, ext := range opts.WindowExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return nil, errors.Newf("missing instance extension %s required by the window", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if opts.EnableValidation {
		layers, _, err := loader.AvailableLayers()
		if err != nil {
			return nil, errors.Wrap(err, "list instance layers")
		}

		available := make(map[string]bool, len(layers))
		for name := range layers {
			available[name] = true
		}
		_, debugUtils := extensions[ext_debug_utils.ExtensionName]

		enabled, missing := resolveLayers(opts.ValidationLayers, available)
		switch {
		case len(missing) > 0:
			opts.Logger.Warn("validation layers unavailable, continuing without validation",
				"missing", missing,
				"hint", "install the LunarG Vulkan SDK")
		case len(enabled) == 0:
			opts.Logger.Warn("validation requested without any layer, continuing without validation")
		case !debugUtils:
			opts.Logger.Warn("debug utils extension unavailable, continuing without validation")
		default:
			i.Validation = true
			instanceOptions.EnabledLayerNames = enabled
			instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
			instanceOptions.Next = i.debugMessengerOptions()
		}
	}

	i.handle, _, err = loader.CreateInstance(nil, instanceOptions)
	if err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "create instance"), "check that a Vulkan capable driver is installed")
	}

	if i.Validation {
		debugLoader := ext_debug_utils.CreateExtensionFromInstance(i.handle)
		i.messenger, _, err = debugLoader.CreateDebugUtilsMessenger(i.handle, nil, i.debugMessengerOptions())
		if err != nil {
			i.Destroy()
			return nil, errors.Wrap(err, "create debug messenger")
		}
	}

	opts.Logger.Info("created vulkan instance",
		"extensions", instanceOptions.EnabledExtensionNames,
		"layers", instanceOptions.EnabledLayerNames)
	return i, nil
}

// resolveLayers splits the requested layers into those installed and those
// missing. Validation is all or nothing, so any missing layer disables it.
func resolveLayers(requested []string, available map[string]bool) (enabled, missing []string) {
	for _, layer := range requested {
		if available[layer] {
			enabled = append(enabled, layer)
		} else {
			missing = append(missing, layer)
		}
	}
	return enabled, missing
}

func (i *Instance) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    i.logDebug,
	}
}

func messageLevel(severity ext_debug_utils.DebugUtilsMessageSeverityFlags) slog.Level {
	if severity&ext_debug_utils.SeverityError != 0 {
		return slog.LevelError
	}
	return slog.LevelWarn
}

func (i *Instance) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	i.logger.Log(context.Background(), messageLevel(severity), data.Message,
		"source", "validation",
		"type", msgType.String())
	return false
}

func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, error) {
	physicalDevices, _, err := i.handle.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	devices := make([]gpu.PhysicalDevice, 0, len(physicalDevices))
	for _, device := range physicalDevices {
		devices = append(devices, newPhysicalDevice(device))
	}
	return devices, nil
}

// CreateSurface creates the presentation surface for window.
func (i *Instance) CreateSurface(window *sdl.Window) (*Surface, error) {
	surfaceLoader := khr_surface.CreateExtensionFromInstance(i.handle)

	surface, err := vkng_sdl2.CreateSurface(i.handle, surfaceLoader, window)
	if err != nil {
		return nil, errors.Wrap(err, "create window surface")
	}

	return &Surface{handle: surface}, nil
}

// Destroy releases the messenger and the instance. Every object created
// from the instance must already be gone.
func (i *Instance) Destroy() {
	if i.messenger != nil {
		i.messenger.Destroy(nil)
		i.messenger = nil
	}

	if i.handle != nil {
		i.handle.Destroy(nil)
		i.handle = nil
	}
}
