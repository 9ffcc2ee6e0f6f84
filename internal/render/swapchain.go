package render

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// FramebufferSizer reports the current drawable size of the window in
// pixels.
type FramebufferSizer interface {
	FramebufferSize() (width, height int)
}

// SwapchainDependent owns objects derived from the swapchain images. The
// manager releases dependents before destroying a chain and rebuilds them,
// in registration order, once a new chain exists.
type SwapchainDependent interface {
	ReleaseSwapchainResources()
	RebuildSwapchainResources(chain *Swapchain) error
}

// SwapchainSupport is what a surface offers on a given device.
type SwapchainSupport struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

func QuerySwapchainSupport(device gpu.PhysicalDevice, surface gpu.Surface) (SwapchainSupport, error) {
	var details SwapchainSupport
	var err error

	details.Capabilities, err = surface.Capabilities(device)
	if err != nil {
		return details, errors.Wrap(err, "query surface capabilities")
	}

	details.Formats, err = surface.Formats(device)
	if err != nil {
		return details, errors.Wrap(err, "query surface formats")
	}

	details.PresentModes, err = surface.PresentModes(device)
	return details, errors.Wrap(err, "query surface present modes")
}

// PreferredSurfaceFormat is chosen whenever the surface offers it.
var PreferredSurfaceFormat = khr_surface.SurfaceFormat{
	Format:     core1_0.FormatB8G8R8A8SRGB,
	ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
}

// ChooseSurfaceFormat returns the preferred 8-bit sRGB format if offered and
// the first offered format otherwise.
func ChooseSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) (khr_surface.SurfaceFormat, error) {
	if len(availableFormats) == 0 {
		return khr_surface.SurfaceFormat{}, errors.WithStack(ErrNoSurfaceFormat)
	}

	for _, format := range availableFormats {
		if format == PreferredSurfaceFormat {
			return format, nil
		}
	}

	return availableFormats[0], nil
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, which every
// surface supports.
func ChoosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// extentUndefined reports the special current extent meaning "the swapchain
// decides".
func extentUndefined(extent core1_0.Extent2D) bool {
	return uint32(extent.Width) == math.MaxUint32 || uint32(extent.Height) == math.MaxUint32
}

// ChooseExtent uses the surface's current extent when it is fixed and
// otherwise clamps the framebuffer size into the supported bounds per axis.
func ChooseExtent(capabilities *khr_surface.SurfaceCapabilities, width, height int) core1_0.Extent2D {
	if !extentUndefined(capabilities.CurrentExtent) {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// ChooseImageCount asks for one image more than the minimum, bounded by the
// maximum when the surface has one (zero means unbounded).
func ChooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// ChooseSharing shares images concurrently between two distinct families and
// exclusively otherwise.
func ChooseSharing(families QueueFamilyIndices) (core1_0.SharingMode, []int) {
	if families.Shared() {
		return core1_0.SharingModeExclusive, nil
	}
	return core1_0.SharingModeConcurrent, []int{*families.GraphicsFamily, *families.PresentFamily}
}

// Swapchain is one built chain: the presentable images, one view per image
// and the parameters they share. Everything in it is destroyed together.
type Swapchain struct {
	Handle      gpu.Swapchain
	Images      []gpu.Image
	Views       []gpu.ImageView
	Format      khr_surface.SurfaceFormat
	Extent      core1_0.Extent2D
	PresentMode khr_surface.PresentMode
	Generation  int

	arena *Arena
}

func (c *Swapchain) ImageCount() int {
	return len(c.Images)
}

// SwapchainManager builds the chain and rebuilds it, together with its
// dependents, whenever it becomes invalid.
type SwapchainManager struct {
	ctx        *Context
	sizer      FramebufferSizer
	current    *Swapchain
	dependents []SwapchainDependent
	generation int
}

func NewSwapchainManager(ctx *Context, sizer FramebufferSizer) *SwapchainManager {
	return &SwapchainManager{
		ctx:   ctx,
		sizer: sizer,
	}
}

// AddDependent registers d for release and rebuild around recreation.
func (m *SwapchainManager) AddDependent(d SwapchainDependent) {
	m.dependents = append(m.dependents, d)
}

// Ready reports whether a usable chain exists.
func (m *SwapchainManager) Ready() bool {
	return m.current != nil
}

func (m *SwapchainManager) Current() *Swapchain {
	return m.current
}

// Build creates the chain and its image views from the current surface
// state and framebuffer size. It does nothing when a chain already exists.
// A configuration the driver rejects is reported as ErrSwapchainCreation and
// leaves no objects behind.
func (m *SwapchainManager) Build() error {
	if m.current != nil {
		return nil
	}

	support, err := QuerySwapchainSupport(m.ctx.PhysicalDevice, m.ctx.Surface)
	if err != nil {
		return errors.Mark(err, ErrSwapchainCreation)
	}

	surfaceFormat, err := ChooseSurfaceFormat(support.Formats)
	if err != nil {
		return err
	}
	presentMode := ChoosePresentMode(support.PresentModes)

	width, height := m.sizer.FramebufferSize()
	extent := ChooseExtent(support.Capabilities, width, height)
	if width <= 0 || height <= 0 || extent.Width <= 0 || extent.Height <= 0 {
		return errors.Mark(errors.Newf("framebuffer is %dx%d", width, height), ErrZeroExtent)
	}

	imageCount := ChooseImageCount(support.Capabilities)
	sharingMode, queueFamilyIndices := ChooseSharing(m.ctx.Families)

	arena := NewArena("swapchain")
	swapchain, err := m.ctx.Device.CreateSwapchain(gpu.SwapchainInfo{
		Surface:            m.ctx.Surface,
		MinImageCount:      imageCount,
		Format:             surfaceFormat,
		Extent:             extent,
		PresentMode:        presentMode,
		PreTransform:       support.Capabilities.CurrentTransform,
		SharingMode:        sharingMode,
		QueueFamilyIndices: queueFamilyIndices,
	})
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "create %dx%d swapchain with %d images", extent.Width, extent.Height, imageCount), ErrSwapchainCreation)
	}
	arena.Track(swapchain)

	images, err := swapchain.Images()
	if err != nil {
		arena.Release()
		return errors.Mark(errors.Wrap(err, "get swapchain images"), ErrSwapchainCreation)
	}

	views := make([]gpu.ImageView, 0, len(images))
	for i, image := range images {
		view, err := m.ctx.Device.CreateImageView(image, surfaceFormat.Format)
		if err != nil {
			arena.Release()
			return errors.Mark(errors.Wrapf(err, "create view of swapchain image %d", i), ErrSwapchainCreation)
		}
		arena.Track(view)
		views = append(views, view)
	}

	m.generation++
	m.current = &Swapchain{
		Handle:      swapchain,
		Images:      images,
		Views:       views,
		Format:      surfaceFormat,
		Extent:      extent,
		PresentMode: presentMode,
		Generation:  m.generation,
		arena:       arena,
	}

	Logger().Info("built swapchain",
		"generation", m.generation,
		"images", len(images),
		"width", extent.Width,
		"height", extent.Height,
		"format", surfaceFormat.Format,
		"presentMode", presentMode,
		"sharing", sharingMode)
	return nil
}

// Recreate waits for the device to go idle, tears down dependents and the
// chain, builds a new chain against the current framebuffer size and
// rebuilds the dependents against it.
//
// On ErrZeroExtent or ErrSwapchainCreation the old chain stays torn down;
// calling Recreate again later retries the build.
func (m *SwapchainManager) Recreate() error {
	if err := m.ctx.WaitIdle(); err != nil {
		return err
	}

	m.teardown()

	if err := m.Build(); err != nil {
		return err
	}

	for _, d := range m.dependents {
		if err := d.RebuildSwapchainResources(m.current); err != nil {
			m.teardown()
			return errors.Mark(errors.Wrap(err, "rebuild swapchain resources"), ErrSwapchainCreation)
		}
	}

	return nil
}

func (m *SwapchainManager) teardown() {
	if m.current == nil {
		return
	}

	for i := len(m.dependents) - 1; i >= 0; i-- {
		m.dependents[i].ReleaseSwapchainResources()
	}

	m.current.arena.Release()
	m.current = nil
}

// Destroy releases the chain and its dependents' swapchain resources. The
// caller must ensure the device is idle.
func (m *SwapchainManager) Destroy() {
	m.teardown()
}
