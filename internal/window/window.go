// Package window wraps the SDL2 window the renderer presents to.
package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
)

// Events is what happened since the previous poll.
type Events struct {
	Quit      bool
	Resized   bool
	Minimized bool
	Restored  bool
}

// Window is an SDL2 window created for Vulkan rendering.
type Window struct {
	handle *sdl.Window
}

// New initialises SDL video and opens a resizable Vulkan window.
func New(title string, width, height int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}

	handle, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrapf(err, "create %dx%d window", width, height)
	}

	return &Window{handle: handle}, nil
}

func (w *Window) Handle() *sdl.Window {
	return w.handle
}

// ProcAddr is the loader entry point the Vulkan instance is bootstrapped
// from.
func (w *Window) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// InstanceExtensions lists the instance extensions SDL needs to create a
// surface for this window.
func (w *Window) InstanceExtensions() []string {
	return w.handle.VulkanGetInstanceExtensions()
}

// FramebufferSize is the drawable size in pixels, which differs from the
// window size on high-DPI displays.
func (w *Window) FramebufferSize() (width, height int) {
	dw, dh := w.handle.VulkanGetDrawableSize()
	return int(dw), int(dh)
}

func (w *Window) Minimized() bool {
	return w.handle.GetFlags()&sdl.WINDOW_MINIMIZED != 0
}

// Poll drains pending events without blocking.
func (w *Window) Poll() Events {
	var events Events
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		classify(event, &events)
	}
	return events
}

// Wait blocks until at least one event arrives, then drains the queue.
func (w *Window) Wait() Events {
	var events Events
	if event := sdl.WaitEvent(); event != nil {
		classify(event, &events)
	}
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		classify(event, &events)
	}
	return events
}

func classify(event sdl.Event, events *Events) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		events.Quit = true
	case *sdl.KeyboardEvent:
		if e.Keysym.Sym == sdl.K_ESCAPE && e.State == sdl.PRESSED {
			events.Quit = true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_MINIMIZED:
			events.Minimized = true
			events.Restored = false
		case sdl.WINDOWEVENT_RESTORED:
			events.Restored = true
			events.Minimized = false
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			events.Resized = true
		}
	}
}

// Destroy closes the window and shuts SDL down.
func (w *Window) Destroy() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
	sdl.Quit()
}
