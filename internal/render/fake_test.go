package render

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// fakeGPU is an in-memory backend. It counts live objects per kind, keeps
// an ordered event log and records protocol violations.
type fakeGPU struct {
	nextID     int
	live       map[string]int
	created    map[string]int
	destroyed  map[string]int
	events     []string
	violations []string

	// acquireScript is consumed one entry per AcquireNextImage call; when
	// empty, images are handed out round-robin.
	acquireScript []acquireStep
	// presentScript is consumed one entry per Present call.
	presentScript []gpu.Status
	// swapchainErrs is consumed one entry per CreateSwapchain call.
	swapchainErrs []error
	// fenceTimeouts makes that many slot fence waits expire.
	fenceTimeouts int

	fences     []*fakeFence
	swapchains []*fakeSwapchain
	// imageFence tracks the fence guarding the last submission per image of
	// the current swapchain generation.
	imageFence map[string]*fakeFence
	submitted  []int
	presented  []int
}

type acquireStep struct {
	index  int
	status gpu.Status
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{
		live:       map[string]int{},
		created:    map[string]int{},
		destroyed:  map[string]int{},
		imageFence: map[string]*fakeFence{},
	}
}

func (g *fakeGPU) log(format string, args ...interface{}) {
	g.events = append(g.events, fmt.Sprintf(format, args...))
}

func (g *fakeGPU) violate(format string, args ...interface{}) {
	g.violations = append(g.violations, fmt.Sprintf(format, args...))
}

func (g *fakeGPU) totalLive() int {
	n := 0
	for _, c := range g.live {
		n += c
	}
	return n
}

type fakeObject struct {
	gpu       *fakeGPU
	kind      string
	id        int
	destroyed bool
}

func (g *fakeGPU) newObject(kind string) fakeObject {
	g.nextID++
	g.live[kind]++
	g.created[kind]++
	return fakeObject{gpu: g, kind: kind, id: g.nextID}
}

func (o *fakeObject) Destroy() {
	if o.destroyed {
		o.gpu.violate("double destroy of %s %d", o.kind, o.id)
		return
	}
	o.destroyed = true
	o.gpu.live[o.kind]--
	o.gpu.destroyed[o.kind]++
	o.gpu.log("destroy %s", o.kind)
}

type fakeInstance struct {
	fakeObject
	devices []gpu.PhysicalDevice
}

func (i *fakeInstance) PhysicalDevices() ([]gpu.PhysicalDevice, error) {
	return i.devices, nil
}

// fakePhysicalDevice also carries what the surface reports for it.
type fakePhysicalDevice struct {
	gpu        *fakeGPU
	name       string
	deviceType gpu.DeviceType
	families   []gpu.QueueFamily
	present    map[int]bool
	extensions []string

	caps         khr_surface.SurfaceCapabilities
	formats      []khr_surface.SurfaceFormat
	presentModes []khr_surface.PresentMode

	deviceErr   error
	lastDevice  *fakeDevice
	openedWith  []int
	presentErrs map[int]error
}

func goodPhysicalDevice(g *fakeGPU, name string, deviceType gpu.DeviceType) *fakePhysicalDevice {
	return &fakePhysicalDevice{
		gpu:        g,
		name:       name,
		deviceType: deviceType,
		families:   []gpu.QueueFamily{{Graphics: true}},
		present:    map[int]bool{0: true},
		extensions: []string{khr_swapchain.ExtensionName},
		caps: khr_surface.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  0,
			CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
			MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
		},
		formats:      []khr_surface.SurfaceFormat{PreferredSurfaceFormat},
		presentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
	}
}

func (d *fakePhysicalDevice) Name() string { return d.name }

func (d *fakePhysicalDevice) Type() (gpu.DeviceType, error) { return d.deviceType, nil }

func (d *fakePhysicalDevice) QueueFamilies() []gpu.QueueFamily { return d.families }

func (d *fakePhysicalDevice) Extensions() ([]string, error) { return d.extensions, nil }

func (d *fakePhysicalDevice) CreateDevice(families []int, extensions []string) (gpu.Device, error) {
	if d.deviceErr != nil {
		return nil, d.deviceErr
	}
	d.openedWith = families
	dev := &fakeDevice{
		fakeObject: d.gpu.newObject("device"),
		physical:   d,
		queues:     map[int]*fakeQueue{},
	}
	for _, f := range families {
		dev.queues[f] = &fakeQueue{gpu: d.gpu, family: f}
	}
	d.lastDevice = dev
	return dev, nil
}

type fakeSurface struct {
	fakeObject
}

func newFakeSurface(g *fakeGPU) *fakeSurface {
	return &fakeSurface{fakeObject: g.newObject("surface")}
}

func (s *fakeSurface) SupportsPresent(dev gpu.PhysicalDevice, family int) (bool, error) {
	d := dev.(*fakePhysicalDevice)
	if err := d.presentErrs[family]; err != nil {
		return false, err
	}
	return d.present[family], nil
}

func (s *fakeSurface) Capabilities(dev gpu.PhysicalDevice) (*khr_surface.SurfaceCapabilities, error) {
	caps := dev.(*fakePhysicalDevice).caps
	return &caps, nil
}

func (s *fakeSurface) Formats(dev gpu.PhysicalDevice) ([]khr_surface.SurfaceFormat, error) {
	return dev.(*fakePhysicalDevice).formats, nil
}

func (s *fakeSurface) PresentModes(dev gpu.PhysicalDevice) ([]khr_surface.PresentMode, error) {
	return dev.(*fakePhysicalDevice).presentModes, nil
}

type fakeDevice struct {
	fakeObject
	physical      *fakePhysicalDevice
	queues        map[int]*fakeQueue
	lastSwapchain gpu.SwapchainInfo
	waitIdles     int
	pipelineErr   error
}

func (d *fakeDevice) Queue(family int) gpu.Queue {
	return d.queues[family]
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdles++
	d.gpu.log("wait idle")
	for _, f := range d.gpu.fences {
		f.signaled = true
	}
	return nil
}

func (d *fakeDevice) CreateSwapchain(info gpu.SwapchainInfo) (gpu.Swapchain, error) {
	d.lastSwapchain = info
	if len(d.gpu.swapchainErrs) > 0 {
		err := d.gpu.swapchainErrs[0]
		d.gpu.swapchainErrs = d.gpu.swapchainErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	sc := &fakeSwapchain{
		fakeObject: d.gpu.newObject("swapchain"),
		imageCount: info.MinImageCount,
	}
	d.gpu.swapchains = append(d.gpu.swapchains, sc)
	d.gpu.log("create swapchain %d", sc.id)
	return sc, nil
}

type fakeImage struct {
	swapchain *fakeSwapchain
	index     int
}

type fakeImageView struct {
	fakeObject
	image *fakeImage
}

func (d *fakeDevice) CreateImageView(image gpu.Image, format core1_0.Format) (gpu.ImageView, error) {
	return &fakeImageView{fakeObject: d.gpu.newObject("image view"), image: image.(*fakeImage)}, nil
}

type fakeRenderPass struct {
	fakeObject
	format core1_0.Format
}

func (d *fakeDevice) CreateRenderPass(format core1_0.Format) (gpu.RenderPass, error) {
	return &fakeRenderPass{fakeObject: d.gpu.newObject("render pass"), format: format}, nil
}

func (d *fakeDevice) CreateShaderModule(code []uint32) (gpu.ShaderModule, error) {
	m := d.gpu.newObject("shader module")
	return &m, nil
}

func (d *fakeDevice) CreatePipelineLayout() (gpu.PipelineLayout, error) {
	l := d.gpu.newObject("pipeline layout")
	return &l, nil
}

func (d *fakeDevice) CreateGraphicsPipeline(info gpu.PipelineInfo) (gpu.Pipeline, error) {
	if d.pipelineErr != nil {
		return nil, d.pipelineErr
	}
	if d.gpu.live["shader module"] != 2 {
		d.gpu.violate("pipeline created with %d live shader modules", d.gpu.live["shader module"])
	}
	p := d.gpu.newObject("pipeline")
	return &p, nil
}

type fakeFramebuffer struct {
	fakeObject
	view *fakeImageView
}

func (d *fakeDevice) CreateFramebuffer(pass gpu.RenderPass, view gpu.ImageView, extent core1_0.Extent2D) (gpu.Framebuffer, error) {
	v := view.(*fakeImageView)
	if v.destroyed {
		d.gpu.violate("framebuffer over destroyed view %d", v.id)
	}
	return &fakeFramebuffer{fakeObject: d.gpu.newObject("framebuffer"), view: v}, nil
}

type fakeCommandPool struct {
	fakeObject
}

func (d *fakeDevice) CreateCommandPool(family int) (gpu.CommandPool, error) {
	return &fakeCommandPool{fakeObject: d.gpu.newObject("command pool")}, nil
}

func (p *fakeCommandPool) AllocateCommandBuffers(count int) ([]gpu.CommandBuffer, error) {
	buffers := make([]gpu.CommandBuffer, count)
	for i := range buffers {
		buffers[i] = &fakeCommandBuffer{gpu: p.gpu}
	}
	return buffers, nil
}

func (d *fakeDevice) CreateSemaphore() (gpu.Semaphore, error) {
	s := d.gpu.newObject("semaphore")
	return &s, nil
}

func (d *fakeDevice) CreateFence(signaled bool) (gpu.Fence, error) {
	f := &fakeFence{fakeObject: d.gpu.newObject("fence"), signaled: signaled}
	d.gpu.fences = append(d.gpu.fences, f)
	return f, nil
}

type fakeSwapchain struct {
	fakeObject
	imageCount int
	images     []gpu.Image
	next       int
}

func (s *fakeSwapchain) Images() ([]gpu.Image, error) {
	if s.images == nil {
		for i := 0; i < s.imageCount; i++ {
			s.images = append(s.images, &fakeImage{swapchain: s, index: i})
		}
	}
	return s.images, nil
}

func (s *fakeSwapchain) AcquireNextImage(timeout time.Duration, signal gpu.Semaphore) (int, gpu.Status, error) {
	if s.destroyed {
		s.gpu.violate("acquire on destroyed swapchain %d", s.id)
	}
	if len(s.gpu.acquireScript) > 0 {
		step := s.gpu.acquireScript[0]
		s.gpu.acquireScript = s.gpu.acquireScript[1:]
		s.gpu.log("acquire %d %s", step.index, step.status)
		return step.index, step.status, nil
	}
	idx := s.next
	s.next = (s.next + 1) % s.imageCount
	s.gpu.log("acquire %d %s", idx, gpu.StatusSuccess)
	return idx, gpu.StatusSuccess, nil
}

type fakeQueue struct {
	gpu    *fakeGPU
	family int
}

func (q *fakeQueue) Submit(fence gpu.Fence, info gpu.SubmitInfo) error {
	f := fence.(*fakeFence)
	cb := info.CommandBuffer.(*fakeCommandBuffer)
	if !cb.ended {
		q.gpu.violate("submit of a command buffer still recording")
	}
	if f.signaled {
		q.gpu.violate("submit with signaled fence %d", f.id)
	}

	image := cb.framebuffer.view.image
	key := fmt.Sprintf("%d/%d", image.swapchain.id, image.index)
	if prev := q.gpu.imageFence[key]; prev != nil && prev != f && !prev.signaled {
		q.gpu.violate("image %d reused while fence %d pending", image.index, prev.id)
	}
	q.gpu.imageFence[key] = f

	q.gpu.submitted = append(q.gpu.submitted, image.index)
	q.gpu.log("submit image %d fence %d", image.index, f.id)
	return nil
}

func (q *fakeQueue) Present(swapchain gpu.Swapchain, imageIndex int, wait gpu.Semaphore) (gpu.Status, error) {
	status := gpu.StatusSuccess
	if len(q.gpu.presentScript) > 0 {
		status = q.gpu.presentScript[0]
		q.gpu.presentScript = q.gpu.presentScript[1:]
	}
	if status != gpu.StatusOutOfDate {
		q.gpu.presented = append(q.gpu.presented, imageIndex)
	}
	q.gpu.log("present %d %s", imageIndex, status)
	return status, nil
}

type fakeCommandBuffer struct {
	gpu         *fakeGPU
	recording   bool
	ended       bool
	framebuffer *fakeFramebuffer
	viewport    core1_0.Extent2D
	clear       mgl32.Vec4
	draws       int
}

func (b *fakeCommandBuffer) Reset() error {
	b.recording, b.ended, b.framebuffer, b.draws = false, false, nil, 0
	return nil
}

func (b *fakeCommandBuffer) Begin() error {
	if b.recording {
		return errors.New("already recording")
	}
	b.recording = true
	return nil
}

func (b *fakeCommandBuffer) BeginRenderPass(pass gpu.RenderPass, framebuffer gpu.Framebuffer, extent core1_0.Extent2D, clear mgl32.Vec4) error {
	fb := framebuffer.(*fakeFramebuffer)
	if fb.destroyed {
		b.gpu.violate("render pass on destroyed framebuffer %d", fb.id)
	}
	b.framebuffer = fb
	b.clear = clear
	return nil
}

func (b *fakeCommandBuffer) SetViewport(extent core1_0.Extent2D) { b.viewport = extent }

func (b *fakeCommandBuffer) BindPipeline(pipeline gpu.Pipeline) {}

func (b *fakeCommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	b.draws++
}

func (b *fakeCommandBuffer) EndRenderPass() {}

func (b *fakeCommandBuffer) End() error {
	b.recording = false
	b.ended = true
	return nil
}

type fakeFence struct {
	fakeObject
	signaled bool
	waits    int
}

// Wait models the GPU finishing the fenced work by the time the CPU asks.
func (f *fakeFence) Wait(timeout time.Duration) (gpu.Status, error) {
	if f.destroyed {
		f.gpu.violate("wait on destroyed fence %d", f.id)
	}
	if !f.signaled && f.gpu.fenceTimeouts > 0 {
		f.gpu.fenceTimeouts--
		f.gpu.log("wait fence %d timeout", f.id)
		return gpu.StatusTimeout, nil
	}
	f.waits++
	f.signaled = true
	f.gpu.log("wait fence %d", f.id)
	return gpu.StatusSuccess, nil
}

func (f *fakeFence) Reset() error {
	f.signaled = false
	return nil
}

type staticShaders struct{}

func (staticShaders) Load() ([]uint32, []uint32, error) {
	return []uint32{0x07230203}, []uint32{0x07230203}, nil
}

type fixedSize struct{ width, height int }

func (s *fixedSize) FramebufferSize() (int, int) { return s.width, s.height }

// newTestContext opens a context on a default single-family device.
func newTestContext(g *fakeGPU) (*Context, *fakePhysicalDevice, *fakeSurface) {
	pd := goodPhysicalDevice(g, "gpu0", gpu.DeviceTypeDiscrete)
	surface := newFakeSurface(g)
	sel, err := DeviceSelector{RequiredExtensions: []string{khr_swapchain.ExtensionName}}.Select([]gpu.PhysicalDevice{pd}, surface)
	if err != nil {
		panic(err)
	}
	ctx, err := NewContext(sel, surface, []string{khr_swapchain.ExtensionName})
	if err != nil {
		panic(err)
	}
	return ctx, pd, surface
}

func testOptions() Options {
	return Options{
		RequiredExtensions: []string{khr_swapchain.ExtensionName},
		PreferDiscrete:     true,
		ClearColor:         mgl32.Vec4{0, 0, 0, 1},
	}
}

// newTestRenderer bootstraps a renderer on a single discrete fake device
// with an 800x600 framebuffer.
func newTestRenderer(g *fakeGPU, opts Options) (*Renderer, *fakePhysicalDevice, *fixedSize, error) {
	pd := goodPhysicalDevice(g, "gpu0", gpu.DeviceTypeDiscrete)
	instance := &fakeInstance{fakeObject: g.newObject("instance"), devices: []gpu.PhysicalDevice{pd}}
	surface := newFakeSurface(g)
	sizer := &fixedSize{width: 800, height: 600}

	r, err := NewRenderer(instance, surface, sizer, staticShaders{}, opts)
	return r, pd, sizer, err
}
