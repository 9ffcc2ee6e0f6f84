package vk

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

type Queue struct {
	handle    core1_0.Queue
	swapchain khr_swapchain.Extension
}

func (q *Queue) Submit(fence gpu.Fence, info gpu.SubmitInfo) error {
	_, err := q.handle.Submit(fence.(*Fence).handle, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{info.Wait.(*Semaphore).handle},
			WaitDstStageMask: []core1_0.PipelineStageFlags{info.WaitStage},
			CommandBuffers:   []core1_0.CommandBuffer{info.CommandBuffer.(*CommandBuffer).handle},
			SignalSemaphores: []core1_0.Semaphore{info.Signal.(*Semaphore).handle},
		},
	})
	return err
}

func (q *Queue) Present(swapchain gpu.Swapchain, imageIndex int, wait gpu.Semaphore) (gpu.Status, error) {
	res, err := q.swapchain.QueuePresent(q.handle, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait.(*Semaphore).handle},
		Swapchains:     []khr_swapchain.Swapchain{swapchain.(*Swapchain).handle},
		ImageIndices:   []int{imageIndex},
	})
	return resultStatus(res, err)
}

// CommandPool allocates resettable primary command buffers.
type CommandPool struct {
	device core1_0.Device
	handle core1_0.CommandPool
}

func (p *CommandPool) AllocateCommandBuffers(count int) ([]gpu.CommandBuffer, error) {
	buffers, _, err := p.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.handle,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, err
	}

	result := make([]gpu.CommandBuffer, len(buffers))
	for i, buffer := range buffers {
		result[i] = &CommandBuffer{handle: buffer}
	}
	return result, nil
}

// Destroy frees the pool and every buffer allocated from it.
func (p *CommandPool) Destroy() {
	if p.handle != nil {
		p.handle.Destroy(nil)
		p.handle = nil
	}
}

type CommandBuffer struct {
	handle core1_0.CommandBuffer
}

func (b *CommandBuffer) Reset() error {
	_, err := b.handle.Reset(0)
	return err
}

func (b *CommandBuffer) Begin() error {
	_, err := b.handle.Begin(core1_0.CommandBufferBeginInfo{})
	return err
}

func (b *CommandBuffer) BeginRenderPass(pass gpu.RenderPass, framebuffer gpu.Framebuffer, extent core1_0.Extent2D, clear mgl32.Vec4) error {
	return b.handle.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  pass.(*RenderPass).handle,
			Framebuffer: framebuffer.(*Framebuffer).handle,
			RenderArea:  fullScissor(extent),
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{clear[0], clear[1], clear[2], clear[3]},
			},
		})
}

func (b *CommandBuffer) SetViewport(extent core1_0.Extent2D) {
	b.handle.CmdSetViewport([]core1_0.Viewport{fullViewport(extent)})
	b.handle.CmdSetScissor([]core1_0.Rect2D{fullScissor(extent)})
}

func (b *CommandBuffer) BindPipeline(pipeline gpu.Pipeline) {
	b.handle.CmdBindPipeline(core1_0.PipelineBindPointGraphics, pipeline.(*Pipeline).handle)
}

func (b *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	b.handle.CmdDraw(vertexCount, instanceCount, uint32(firstVertex), uint32(firstInstance))
}

func (b *CommandBuffer) EndRenderPass() {
	b.handle.CmdEndRenderPass()
}

func (b *CommandBuffer) End() error {
	_, err := b.handle.End()
	return err
}

type Semaphore struct {
	handle core1_0.Semaphore
}

func (s *Semaphore) Destroy() {
	if s.handle != nil {
		s.handle.Destroy(nil)
		s.handle = nil
	}
}

type Fence struct {
	device core1_0.Device
	handle core1_0.Fence
}

func (f *Fence) Wait(t time.Duration) (gpu.Status, error) {
	res, err := f.device.WaitForFences(true, timeout(t), []core1_0.Fence{f.handle})
	return resultStatus(res, err)
}

func (f *Fence) Reset() error {
	_, err := f.device.ResetFences([]core1_0.Fence{f.handle})
	return err
}

func (f *Fence) Destroy() {
	if f.handle != nil {
		f.handle.Destroy(nil)
		f.handle = nil
	}
}
