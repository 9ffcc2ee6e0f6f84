package app

import (
	"log/slog"
	"time"

	"github.com/loov/hrtime"

	"github.com/Fabpk90/VulkanDiscovery/internal/render"
	"github.com/Fabpk90/VulkanDiscovery/internal/window"
)

// Window is the part of the window the loop drives.
type Window interface {
	Poll() window.Events
	Wait() window.Events
	Minimized() bool
	FramebufferSize() (width, height int)
}

type Renderer interface {
	Tick() (render.TickResult, error)
	NotifyResized()
}

type loop struct {
	win      Window
	renderer Renderer
	logger   *slog.Logger
	stats    *frameStats
}

func newLoop(win Window, renderer Renderer, statsInterval time.Duration, logger *slog.Logger) *loop {
	return &loop{
		win:      win,
		renderer: renderer,
		logger:   logger,
		stats:    newFrameStats(statsInterval, hrtime.Now),
	}
}

// run ticks the renderer until the window asks to quit. A minimised window
// or an empty drawable blocks on window events instead of rendering.
func (l *loop) run() error {
	paused := l.win.Minimized()

	for {
		var events window.Events
		if paused {
			events = l.win.Wait()
		} else {
			events = l.win.Poll()
		}

		if events.Quit {
			l.stats.flush(l.logger)
			return nil
		}
		if events.Minimized {
			l.logger.Debug("window minimised, pausing")
			paused = true
		}
		if events.Restored {
			paused = false
			l.renderer.NotifyResized()
		}
		if events.Resized {
			paused = false
			l.renderer.NotifyResized()
		}

		if width, height := l.win.FramebufferSize(); width == 0 || height == 0 {
			paused = true
		}
		if paused {
			continue
		}

		result, err := l.renderer.Tick()
		if err != nil {
			return err
		}
		l.stats.record(result)
		l.stats.report(l.logger)
	}
}
