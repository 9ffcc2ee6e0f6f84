// Package gpu defines the narrow set of graphics objects the renderer needs
// from a Vulkan implementation. Package vk implements it on top of
// vkngwrapper; tests provide in-memory fakes.
//
// Plain data such as surface capabilities, formats and present modes uses the
// vkngwrapper types directly, since they carry no handles.
package gpu

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

// NoTimeout makes a wait block until the GPU signals.
const NoTimeout time.Duration = 0

// Destroyer is implemented by every object that owns a driver handle.
// Destroy must be called exactly once.
type Destroyer interface {
	Destroy()
}

// DeviceType classifies a physical device.
type DeviceType int

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegrated
	DeviceTypeDiscrete
	DeviceTypeVirtual
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegrated:
		return "integrated"
	case DeviceTypeDiscrete:
		return "discrete"
	case DeviceTypeVirtual:
		return "virtual"
	case DeviceTypeCPU:
		return "cpu"
	}
	return "other"
}

// QueueFamily describes one queue family of a physical device.
type QueueFamily struct {
	Graphics bool
}

// Instance enumerates the physical devices visible to the process.
type Instance interface {
	Destroyer
	PhysicalDevices() ([]PhysicalDevice, error)
}

// PhysicalDevice is a candidate GPU. It is never destroyed.
type PhysicalDevice interface {
	Name() string
	Type() (DeviceType, error)
	QueueFamilies() []QueueFamily
	Extensions() ([]string, error)
	// CreateDevice opens a logical device with one queue in each of the
	// given families and the given device extensions enabled.
	CreateDevice(families []int, extensions []string) (Device, error)
}

// Surface is the presentation target created from the window.
type Surface interface {
	Destroyer
	SupportsPresent(dev PhysicalDevice, family int) (bool, error)
	Capabilities(dev PhysicalDevice) (*khr_surface.SurfaceCapabilities, error)
	Formats(dev PhysicalDevice) ([]khr_surface.SurfaceFormat, error)
	PresentModes(dev PhysicalDevice) ([]khr_surface.PresentMode, error)
}

// SwapchainInfo is the fully resolved configuration of a swapchain.
type SwapchainInfo struct {
	Surface            Surface
	MinImageCount      int
	Format             khr_surface.SurfaceFormat
	Extent             core1_0.Extent2D
	PresentMode        khr_surface.PresentMode
	PreTransform       khr_surface.SurfaceTransformFlags
	SharingMode        core1_0.SharingMode
	QueueFamilyIndices []int
}

// PipelineInfo carries what the fixed triangle pipeline needs beyond its
// static fixed-function table.
type PipelineInfo struct {
	Vertex     ShaderModule
	Fragment   ShaderModule
	Layout     PipelineLayout
	RenderPass RenderPass
	Extent     core1_0.Extent2D
}

// Device is a logical device.
type Device interface {
	Destroyer
	Queue(family int) Queue
	WaitIdle() error

	CreateSwapchain(info SwapchainInfo) (Swapchain, error)
	CreateImageView(image Image, format core1_0.Format) (ImageView, error)
	CreateRenderPass(format core1_0.Format) (RenderPass, error)
	CreateShaderModule(code []uint32) (ShaderModule, error)
	CreatePipelineLayout() (PipelineLayout, error)
	CreateGraphicsPipeline(info PipelineInfo) (Pipeline, error)
	CreateFramebuffer(pass RenderPass, view ImageView, extent core1_0.Extent2D) (Framebuffer, error)
	CreateCommandPool(family int) (CommandPool, error)
	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)
}

// Image is a swapchain-owned image. It is released with its swapchain.
type Image interface{}

// Swapchain is a chain of presentable images.
type Swapchain interface {
	Destroyer
	Images() ([]Image, error)
	// AcquireNextImage returns the index of the next image to render into.
	// signal is signaled once the image is actually available. Out-of-date,
	// suboptimal and timeout conditions are reported through Status with a
	// nil error.
	AcquireNextImage(timeout time.Duration, signal Semaphore) (int, Status, error)
}

// SubmitInfo describes one command buffer submission.
type SubmitInfo struct {
	Wait          Semaphore
	WaitStage     core1_0.PipelineStageFlags
	CommandBuffer CommandBuffer
	Signal        Semaphore
}

// Queue is a device queue. Graphics and presentation may share one.
type Queue interface {
	Submit(fence Fence, info SubmitInfo) error
	Present(swapchain Swapchain, imageIndex int, wait Semaphore) (Status, error)
}

// CommandPool allocates command buffers. Destroying the pool frees them.
type CommandPool interface {
	Destroyer
	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
}

// CommandBuffer records the triangle draw.
type CommandBuffer interface {
	Reset() error
	Begin() error
	BeginRenderPass(pass RenderPass, framebuffer Framebuffer, extent core1_0.Extent2D, clear mgl32.Vec4) error
	SetViewport(extent core1_0.Extent2D)
	BindPipeline(pipeline Pipeline)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance int)
	EndRenderPass()
	End() error
}

// Fence signals the CPU that submitted work completed.
type Fence interface {
	Destroyer
	Wait(timeout time.Duration) (Status, error)
	Reset() error
}

type (
	Semaphore      interface{ Destroyer }
	ImageView      interface{ Destroyer }
	RenderPass     interface{ Destroyer }
	ShaderModule   interface{ Destroyer }
	PipelineLayout interface{ Destroyer }
	Pipeline       interface{ Destroyer }
	Framebuffer    interface{ Destroyer }
)
