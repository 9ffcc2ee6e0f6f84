package render

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

const (
	DefaultMaxFramesInFlight   = 2
	DefaultMaxRecreateAttempts = 3
)

// SlotState is the CPU-side view of a frame slot.
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotSubmitted
)

func (s SlotState) String() string {
	if s == SlotSubmitted {
		return "submitted"
	}
	return "idle"
}

// FrameSlot is one of the reusable synchronization bundles. Slots are
// created once and outlive every swapchain.
type FrameSlot struct {
	ImageAvailable gpu.Semaphore
	RenderFinished gpu.Semaphore
	InFlight       gpu.Fence
	Commands       gpu.CommandBuffer
	State          SlotState
}

type FrameOptions struct {
	MaxFramesInFlight int
	// AcquireTimeout and FenceTimeout bound the CPU waits of a tick; zero
	// waits indefinitely. An expired wait skips the tick.
	AcquireTimeout      time.Duration
	FenceTimeout        time.Duration
	MaxRecreateAttempts int
	ClearColor          mgl32.Vec4
}

// TickResult describes what one tick did.
type TickResult struct {
	Presented  bool
	Recreated  bool
	ImageIndex int
	Elapsed    time.Duration
}

// FrameScheduler drives acquire, record, submit and present against a
// bounded set of frame slots.
type FrameScheduler struct {
	ctx        *Context
	swapchains *SwapchainManager
	pipeline   *RenderPipeline
	opts       FrameOptions

	arena *Arena
	pool  gpu.CommandPool
	slots []FrameSlot

	// imagesInFlight maps a swapchain image index to the fence of the slot
	// that last rendered into it.
	imagesInFlight []gpu.Fence
	currentFrame   int

	resized         bool
	recreatePending bool
	failedRecreates int
}

func NewFrameScheduler(ctx *Context, swapchains *SwapchainManager, pipeline *RenderPipeline, opts FrameOptions) (*FrameScheduler, error) {
	if opts.MaxFramesInFlight < 1 {
		opts.MaxFramesInFlight = DefaultMaxFramesInFlight
	}
	if opts.MaxRecreateAttempts < 1 {
		opts.MaxRecreateAttempts = DefaultMaxRecreateAttempts
	}

	s := &FrameScheduler{
		ctx:        ctx,
		swapchains: swapchains,
		pipeline:   pipeline,
		opts:       opts,
		arena:      NewArena("frame slots"),
	}

	if err := s.createSyncObjects(); err != nil {
		s.arena.Release()
		return nil, err
	}

	if chain := swapchains.Current(); chain != nil {
		s.imagesInFlight = make([]gpu.Fence, chain.ImageCount())
	}
	return s, nil
}

func (s *FrameScheduler) createSyncObjects() error {
	pool, err := s.ctx.Device.CreateCommandPool(*s.ctx.Families.GraphicsFamily)
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}
	s.arena.Track(pool)
	s.pool = pool

	buffers, err := pool.AllocateCommandBuffers(s.opts.MaxFramesInFlight)
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}

	s.slots = make([]FrameSlot, s.opts.MaxFramesInFlight)
	for i := range s.slots {
		imageAvailable, err := s.ctx.Device.CreateSemaphore()
		if err != nil {
			return errors.Wrapf(err, "create image-available semaphore %d", i)
		}
		s.arena.Track(imageAvailable)

		renderFinished, err := s.ctx.Device.CreateSemaphore()
		if err != nil {
			return errors.Wrapf(err, "create render-finished semaphore %d", i)
		}
		s.arena.Track(renderFinished)

		// Signaled so the first wait on each slot returns at once.
		fence, err := s.ctx.Device.CreateFence(true)
		if err != nil {
			return errors.Wrapf(err, "create in-flight fence %d", i)
		}
		s.arena.Track(fence)

		s.slots[i] = FrameSlot{
			ImageAvailable: imageAvailable,
			RenderFinished: renderFinished,
			InFlight:       fence,
			Commands:       buffers[i],
		}
	}

	return nil
}

// NotifyResized flags that the window size changed. The flag is consumed
// by the next recreation.
func (s *FrameScheduler) NotifyResized() {
	s.resized = true
}

// CurrentFrame is the index of the slot the next tick uses.
func (s *FrameScheduler) CurrentFrame() int {
	return s.currentFrame
}

func (s *FrameScheduler) Slot(i int) FrameSlot {
	return s.slots[i]
}

func (s *FrameScheduler) SlotCount() int {
	return len(s.slots)
}

// Tick runs one frame. Recoverable conditions (out-of-date or suboptimal
// chain, expired waits, zero framebuffer, a rejected rebuild within the
// retry budget) are handled here and yield a nil error; any error returned is
// fatal.
func (s *FrameScheduler) Tick() (TickResult, error) {
	start := hrtime.Now()
	result, err := s.tick()
	result.Elapsed = hrtime.Now() - start
	return result, err
}

func (s *FrameScheduler) tick() (TickResult, error) {
	result := TickResult{ImageIndex: -1}

	if !s.swapchains.Ready() {
		return s.recreate(result)
	}

	slot := &s.slots[s.currentFrame]

	status, err := slot.InFlight.Wait(s.opts.FenceTimeout)
	if err != nil {
		return result, errors.Wrapf(err, "wait for frame %d", s.currentFrame)
	}
	if status.Expired() {
		Logger().Warn("frame fence wait expired, skipping frame",
			"frame", s.currentFrame,
			"error", errors.Mark(errors.Newf("fence of frame %d: %s", s.currentFrame, status), ErrTimeout))
		return result, nil
	}
	slot.State = SlotIdle

	chain := s.swapchains.Current()
	imageIndex, status, err := chain.Handle.AcquireNextImage(s.opts.AcquireTimeout, slot.ImageAvailable)
	if err != nil {
		return result, errors.Wrap(err, "acquire swapchain image")
	}
	switch status {
	case gpu.StatusOutOfDate:
		Logger().Debug("recreating swapchain",
			"generation", chain.Generation,
			"error", errors.Wrap(ErrSwapchainOutOfDate, "acquire"))
		return s.recreate(result)
	case gpu.StatusTimeout, gpu.StatusNotReady:
		Logger().Warn("image acquire expired, skipping frame",
			"frame", s.currentFrame,
			"error", errors.Mark(errors.Newf("acquire: %s", status), ErrTimeout))
		return result, nil
	case gpu.StatusSuboptimal:
		s.recreatePending = true
	}
	result.ImageIndex = imageIndex

	// A previous frame from another slot may still be rendering into this
	// image when the slot count does not divide the image count.
	if prev := s.imagesInFlight[imageIndex]; prev != nil && prev != slot.InFlight {
		if _, err := prev.Wait(gpu.NoTimeout); err != nil {
			return result, errors.Wrapf(err, "wait for image %d", imageIndex)
		}
	}
	s.imagesInFlight[imageIndex] = slot.InFlight

	if err := s.record(slot.Commands, imageIndex, chain); err != nil {
		return result, errors.Wrapf(err, "record frame %d", s.currentFrame)
	}

	if err := slot.InFlight.Reset(); err != nil {
		return result, errors.Wrapf(err, "reset fence of frame %d", s.currentFrame)
	}

	err = s.ctx.GraphicsQueue.Submit(slot.InFlight, gpu.SubmitInfo{
		Wait:          slot.ImageAvailable,
		WaitStage:     core1_0.PipelineStageColorAttachmentOutput,
		CommandBuffer: slot.Commands,
		Signal:        slot.RenderFinished,
	})
	if err != nil {
		return result, errors.Wrap(err, "submit draw command buffer")
	}
	slot.State = SlotSubmitted

	status, err = s.ctx.PresentQueue.Present(chain.Handle, imageIndex, slot.RenderFinished)
	if err != nil {
		return result, errors.Wrap(err, "present")
	}
	result.Presented = status != gpu.StatusOutOfDate

	s.currentFrame = (s.currentFrame + 1) % len(s.slots)

	if status == gpu.StatusOutOfDate || status == gpu.StatusSuboptimal || s.resized || s.recreatePending {
		Logger().Debug("recreating swapchain after present",
			"status", status,
			"resized", s.resized,
			"suboptimalAcquire", s.recreatePending)
		return s.recreate(result)
	}

	return result, nil
}

func (s *FrameScheduler) record(commandBuffer gpu.CommandBuffer, imageIndex int, chain *Swapchain) error {
	if err := commandBuffer.Reset(); err != nil {
		return err
	}

	if err := commandBuffer.Begin(); err != nil {
		return err
	}

	err := commandBuffer.BeginRenderPass(s.pipeline.RenderPass(), s.pipeline.Framebuffer(imageIndex), chain.Extent, s.opts.ClearColor)
	if err != nil {
		return err
	}

	commandBuffer.SetViewport(chain.Extent)
	commandBuffer.BindPipeline(s.pipeline.Pipeline())
	commandBuffer.Draw(3, 1, 0, 0)
	commandBuffer.EndRenderPass()

	return commandBuffer.End()
}

func (s *FrameScheduler) recreate(result TickResult) (TickResult, error) {
	s.resized = false
	s.recreatePending = false

	err := s.swapchains.Recreate()
	switch {
	case err == nil:
		s.failedRecreates = 0
		result.Recreated = true
		return result, nil
	case IsRecoverable(err):
		Logger().Debug("deferring swapchain recreation", "error", err)
		return result, nil
	case errors.Is(err, ErrSwapchainCreation):
		s.failedRecreates++
		if s.failedRecreates >= s.opts.MaxRecreateAttempts {
			return result, errors.Wrapf(err, "swapchain recreation failed %d times in a row", s.failedRecreates)
		}
		Logger().Warn("swapchain recreation failed, retrying next frame",
			"attempt", s.failedRecreates,
			"error", err)
		return result, nil
	}
	return result, err
}

// ReleaseSwapchainResources forgets which fence guards which image. The
// manager has already waited for the device, so every slot is idle.
func (s *FrameScheduler) ReleaseSwapchainResources() {
	s.imagesInFlight = nil
	for i := range s.slots {
		s.slots[i].State = SlotIdle
	}
}

func (s *FrameScheduler) RebuildSwapchainResources(chain *Swapchain) error {
	s.imagesInFlight = make([]gpu.Fence, chain.ImageCount())
	return nil
}

// Destroy waits for the device to go idle and then releases the slots and
// the command pool.
func (s *FrameScheduler) Destroy() error {
	err := s.ctx.WaitIdle()
	s.arena.Release()
	s.slots = nil
	s.imagesInFlight = nil
	return err
}
