package vk

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// Device is a logical device together with its swapchain extension.
type Device struct {
	handle    core1_0.Device
	swapchain khr_swapchain.Extension
}

func (d *Device) Queue(family int) gpu.Queue {
	return &Queue{
		handle:    d.handle.GetQueue(family, 0),
		swapchain: d.swapchain,
	}
}

func (d *Device) WaitIdle() error {
	_, err := d.handle.WaitIdle()
	return err
}

func (d *Device) CreateSwapchain(info gpu.SwapchainInfo) (gpu.Swapchain, error) {
	swapchain, _, err := d.swapchain.CreateSwapchain(d.handle, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: info.Surface.(*Surface).handle,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      info.Format.Format,
		ImageColorSpace:  info.Format.ColorSpace,
		ImageExtent:      info.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   info.SharingMode,
		QueueFamilyIndices: info.QueueFamilyIndices,

		PreTransform:   info.PreTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    info.PresentMode,
		Clipped:        true,
	})
	if err != nil {
		return nil, err
	}

	return &Swapchain{handle: swapchain}, nil
}

func (d *Device) CreateImageView(image gpu.Image, format core1_0.Format) (gpu.ImageView, error) {
	imageView, _, err := d.handle.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image.(core1_0.Image),
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, err
	}
	return &ImageView{handle: imageView}, nil
}

func (d *Device) CreateRenderPass(format core1_0.Format) (gpu.RenderPass, error) {
	renderPass, _, err := d.handle.CreateRenderPass(nil, renderPassInfo(format))
	if err != nil {
		return nil, err
	}
	return &RenderPass{handle: renderPass}, nil
}

func (d *Device) CreateShaderModule(code []uint32) (gpu.ShaderModule, error) {
	module, _, err := d.handle.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, err
	}
	return &ShaderModule{handle: module}, nil
}

func (d *Device) CreatePipelineLayout() (gpu.PipelineLayout, error) {
	layout, _, err := d.handle.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return nil, err
	}
	return &PipelineLayout{handle: layout}, nil
}

func (d *Device) CreateGraphicsPipeline(info gpu.PipelineInfo) (gpu.Pipeline, error) {
	pipelines, _, err := d.handle.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		graphicsPipelineInfo(
			info.Vertex.(*ShaderModule).handle,
			info.Fragment.(*ShaderModule).handle,
			info.Layout.(*PipelineLayout).handle,
			info.RenderPass.(*RenderPass).handle,
			info.Extent,
		),
	})
	if err != nil {
		return nil, err
	}
	if len(pipelines) != 1 {
		return nil, errors.Newf("expected one pipeline, got %d", len(pipelines))
	}
	return &Pipeline{handle: pipelines[0]}, nil
}

func (d *Device) CreateFramebuffer(pass gpu.RenderPass, view gpu.ImageView, extent core1_0.Extent2D) (gpu.Framebuffer, error) {
	framebuffer, _, err := d.handle.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass: pass.(*RenderPass).handle,
		Layers:     1,
		Attachments: []core1_0.ImageView{
			view.(*ImageView).handle,
		},
		Width:  extent.Width,
		Height: extent.Height,
	})
	if err != nil {
		return nil, err
	}
	return &Framebuffer{handle: framebuffer}, nil
}

func (d *Device) CreateCommandPool(family int) (gpu.CommandPool, error) {
	pool, _, err := d.handle.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: family,
	})
	if err != nil {
		return nil, err
	}
	return &CommandPool{device: d.handle, handle: pool}, nil
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	semaphore, _, err := d.handle.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, err
	}
	return &Semaphore{handle: semaphore}, nil
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	var options core1_0.FenceCreateInfo
	if signaled {
		options.Flags = core1_0.FenceCreateSignaled
	}

	fence, _, err := d.handle.CreateFence(nil, options)
	if err != nil {
		return nil, err
	}
	return &Fence{device: d.handle, handle: fence}, nil
}

func (d *Device) Destroy() {
	if d.handle != nil {
		d.handle.Destroy(nil)
		d.handle = nil
	}
}

// Swapchain wraps a khr_swapchain chain. Its images are owned by the chain.
type Swapchain struct {
	handle khr_swapchain.Swapchain
}

func (s *Swapchain) Images() ([]gpu.Image, error) {
	images, _, err := s.handle.SwapchainImages()
	if err != nil {
		return nil, err
	}

	result := make([]gpu.Image, len(images))
	for i, image := range images {
		result[i] = image
	}
	return result, nil
}

func (s *Swapchain) AcquireNextImage(t time.Duration, signal gpu.Semaphore) (int, gpu.Status, error) {
	imageIndex, res, err := s.handle.AcquireNextImage(timeout(t), signal.(*Semaphore).handle, nil)
	st, err := resultStatus(res, err)
	return imageIndex, st, err
}

func (s *Swapchain) Destroy() {
	if s.handle != nil {
		s.handle.Destroy(nil)
		s.handle = nil
	}
}

type ImageView struct{ handle core1_0.ImageView }

func (v *ImageView) Destroy() { v.handle.Destroy(nil) }

type RenderPass struct{ handle core1_0.RenderPass }

func (p *RenderPass) Destroy() { p.handle.Destroy(nil) }

type ShaderModule struct{ handle core1_0.ShaderModule }

func (m *ShaderModule) Destroy() { m.handle.Destroy(nil) }

type PipelineLayout struct{ handle core1_0.PipelineLayout }

func (l *PipelineLayout) Destroy() { l.handle.Destroy(nil) }

type Pipeline struct{ handle core1_0.Pipeline }

func (p *Pipeline) Destroy() { p.handle.Destroy(nil) }

type Framebuffer struct{ handle core1_0.Framebuffer }

func (f *Framebuffer) Destroy() { f.handle.Destroy(nil) }
