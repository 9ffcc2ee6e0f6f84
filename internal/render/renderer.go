package render

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// Options configures a Renderer.
type Options struct {
	RequiredExtensions []string
	// PreferDiscrete ranks discrete GPUs above integrated ones; otherwise
	// the first qualifying device wins.
	PreferDiscrete      bool
	MaxFramesInFlight   int
	AcquireTimeout      time.Duration
	FenceTimeout        time.Duration
	MaxRecreateAttempts int
	ClearColor          mgl32.Vec4
}

// Renderer bootstraps the core in dependency order (device selection,
// logical device, swapchain, pipeline, frame scheduler) and tears it down in
// reverse. It does not own the instance or the surface.
type Renderer struct {
	ctx        *Context
	swapchains *SwapchainManager
	pipeline   *RenderPipeline
	scheduler  *FrameScheduler
}

func NewRenderer(instance gpu.Instance, surface gpu.Surface, sizer FramebufferSizer, shaders ShaderSource, opts Options) (*Renderer, error) {
	devices, err := instance.PhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	selector := DeviceSelector{
		RequiredExtensions: opts.RequiredExtensions,
		PreferDiscrete:     opts.PreferDiscrete,
	}
	selection, err := selector.Select(devices, surface)
	if err != nil {
		return nil, err
	}

	r := &Renderer{}
	r.ctx, err = NewContext(selection, surface, opts.RequiredExtensions)
	if err != nil {
		return nil, err
	}

	if err := r.build(sizer, shaders, opts); err != nil {
		return nil, errors.CombineErrors(err, r.Close())
	}
	return r, nil
}

func (r *Renderer) build(sizer FramebufferSizer, shaders ShaderSource, opts Options) error {
	r.swapchains = NewSwapchainManager(r.ctx, sizer)
	if err := r.swapchains.Build(); err != nil {
		return err
	}

	r.pipeline = NewRenderPipeline(r.ctx, shaders)
	if err := r.pipeline.Build(r.swapchains.Current()); err != nil {
		return err
	}
	r.swapchains.AddDependent(r.pipeline)

	scheduler, err := NewFrameScheduler(r.ctx, r.swapchains, r.pipeline, FrameOptions{
		MaxFramesInFlight:   opts.MaxFramesInFlight,
		AcquireTimeout:      opts.AcquireTimeout,
		FenceTimeout:        opts.FenceTimeout,
		MaxRecreateAttempts: opts.MaxRecreateAttempts,
		ClearColor:          opts.ClearColor,
	})
	if err != nil {
		return err
	}
	r.scheduler = scheduler
	r.swapchains.AddDependent(r.scheduler)
	return nil
}

// Tick renders one frame. See FrameScheduler.Tick.
func (r *Renderer) Tick() (TickResult, error) {
	return r.scheduler.Tick()
}

func (r *Renderer) NotifyResized() {
	r.scheduler.NotifyResized()
}

func (r *Renderer) Scheduler() *FrameScheduler {
	return r.scheduler
}

func (r *Renderer) Swapchains() *SwapchainManager {
	return r.swapchains
}

// Close waits for the device to go idle and destroys everything the
// renderer created, in reverse creation order.
func (r *Renderer) Close() error {
	if r.ctx == nil {
		return nil
	}

	var err error
	if r.scheduler != nil {
		err = r.scheduler.Destroy()
		r.scheduler = nil
	} else {
		err = r.ctx.WaitIdle()
	}

	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}
	if r.swapchains != nil {
		r.swapchains.Destroy()
		r.swapchains = nil
	}

	r.ctx.Destroy()
	r.ctx = nil
	return err
}
