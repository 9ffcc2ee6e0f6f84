package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// ShaderSource provides the vertex and fragment SPIR-V words.
type ShaderSource interface {
	Load() (vertex, fragment []uint32, err error)
}

// RenderPipeline owns the render pass, the pipeline layout, the triangle
// pipeline and one framebuffer per swapchain image view.
//
// Viewport and scissor are dynamic, so a resize only rebuilds framebuffers.
// The pass and pipeline are rebuilt when the surface format changes.
type RenderPipeline struct {
	ctx     *Context
	shaders ShaderSource

	format     core1_0.Format
	renderPass gpu.RenderPass
	layout     gpu.PipelineLayout
	pipeline   gpu.Pipeline
	passArena  *Arena

	framebuffers []gpu.Framebuffer
	fbArena      *Arena
}

func NewRenderPipeline(ctx *Context, shaders ShaderSource) *RenderPipeline {
	return &RenderPipeline{
		ctx:       ctx,
		shaders:   shaders,
		passArena: NewArena("render pass"),
		fbArena:   NewArena("framebuffers"),
	}
}

// Build creates the pass and pipeline for the chain's format and the
// framebuffers for its views.
func (p *RenderPipeline) Build(chain *Swapchain) error {
	if p.renderPass == nil || p.format != chain.Format.Format {
		p.ReleaseSwapchainResources()
		p.passArena.Release()
		p.renderPass, p.layout, p.pipeline = nil, nil, nil

		if err := p.createPass(chain); err != nil {
			p.passArena.Release()
			p.renderPass, p.layout, p.pipeline = nil, nil, nil
			return err
		}
	}

	return p.createFramebuffers(chain)
}

func (p *RenderPipeline) createPass(chain *Swapchain) error {
	renderPass, err := p.ctx.Device.CreateRenderPass(chain.Format.Format)
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}
	p.passArena.Track(renderPass)

	layout, err := p.ctx.Device.CreatePipelineLayout()
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}
	p.passArena.Track(layout)

	vertexCode, fragmentCode, err := p.shaders.Load()
	if err != nil {
		return errors.Wrap(err, "load shaders")
	}

	// Shader modules only live until the pipeline exists.
	modules := NewArena("shader modules")
	defer modules.Release()

	vertShader, err := p.ctx.Device.CreateShaderModule(vertexCode)
	if err != nil {
		return errors.Wrap(err, "create vertex shader module")
	}
	modules.Track(vertShader)

	fragShader, err := p.ctx.Device.CreateShaderModule(fragmentCode)
	if err != nil {
		return errors.Wrap(err, "create fragment shader module")
	}
	modules.Track(fragShader)

	pipeline, err := p.ctx.Device.CreateGraphicsPipeline(gpu.PipelineInfo{
		Vertex:     vertShader,
		Fragment:   fragShader,
		Layout:     layout,
		RenderPass: renderPass,
		Extent:     chain.Extent,
	})
	if err != nil {
		return errors.Wrap(err, "create graphics pipeline")
	}
	p.passArena.Track(pipeline)

	p.format = chain.Format.Format
	p.renderPass = renderPass
	p.layout = layout
	p.pipeline = pipeline
	Logger().Debug("built render pass and pipeline", "format", p.format)
	return nil
}

func (p *RenderPipeline) createFramebuffers(chain *Swapchain) error {
	p.fbArena.Release()
	p.framebuffers = p.framebuffers[:0]

	for i, imageView := range chain.Views {
		framebuffer, err := p.ctx.Device.CreateFramebuffer(p.renderPass, imageView, chain.Extent)
		if err != nil {
			p.ReleaseSwapchainResources()
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		p.fbArena.Track(framebuffer)
		p.framebuffers = append(p.framebuffers, framebuffer)
	}

	return nil
}

// ReleaseSwapchainResources destroys the framebuffers.
func (p *RenderPipeline) ReleaseSwapchainResources() {
	p.fbArena.Release()
	p.framebuffers = p.framebuffers[:0]
}

// RebuildSwapchainResources recreates framebuffers for the new chain and,
// when its format differs, the pass and pipeline too.
func (p *RenderPipeline) RebuildSwapchainResources(chain *Swapchain) error {
	return p.Build(chain)
}

func (p *RenderPipeline) RenderPass() gpu.RenderPass {
	return p.renderPass
}

func (p *RenderPipeline) Pipeline() gpu.Pipeline {
	return p.pipeline
}

func (p *RenderPipeline) Framebuffer(imageIndex int) gpu.Framebuffer {
	return p.framebuffers[imageIndex]
}

func (p *RenderPipeline) Framebuffers() []gpu.Framebuffer {
	return p.framebuffers
}

// Destroy releases everything. The caller must ensure the device is idle.
func (p *RenderPipeline) Destroy() {
	p.ReleaseSwapchainResources()
	p.passArena.Release()
	p.renderPass, p.layout, p.pipeline = nil, nil, nil
}
