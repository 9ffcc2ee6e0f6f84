// Package app wires the window, the Vulkan backend and the renderer
// together and runs the frame loop.
package app

import (
	"io/fs"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/Fabpk90/VulkanDiscovery/internal/config"
	"github.com/Fabpk90/VulkanDiscovery/internal/gpu/vk"
	"github.com/Fabpk90/VulkanDiscovery/internal/render"
	"github.com/Fabpk90/VulkanDiscovery/internal/shader"
	"github.com/Fabpk90/VulkanDiscovery/internal/window"
	"github.com/Fabpk90/VulkanDiscovery/shaders"
)

// Run opens the window, renders until the user quits and tears everything
// down in reverse creation order.
func Run(cfg config.Config, logger *slog.Logger) (err error) {
	win, err := window.New(cfg.Title, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer win.Destroy()

	instance, err := vk.NewInstance(win.ProcAddr(), vk.InstanceOptions{
		ApplicationName:  cfg.Title,
		WindowExtensions: win.InstanceExtensions(),
		ValidationLayers: cfg.ValidationLayers,
		EnableValidation: cfg.EnableValidation,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer instance.Destroy()

	surface, err := instance.CreateSurface(win.Handle())
	if err != nil {
		return err
	}
	defer surface.Destroy()

	renderer, err := render.NewRenderer(instance, surface, win, shaderLoader(cfg), render.Options{
		RequiredExtensions:  cfg.RequiredExtensions,
		PreferDiscrete:      cfg.PreferDiscrete,
		MaxFramesInFlight:   cfg.MaxFramesInFlight,
		AcquireTimeout:      cfg.AcquireTimeout,
		FenceTimeout:        cfg.FenceTimeout,
		MaxRecreateAttempts: cfg.MaxRecreateAttempts,
		ClearColor:          cfg.ClearColor,
	})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, renderer.Close())
	}()

	l := newLoop(win, renderer, cfg.StatsInterval, logger)
	return l.run()
}

// shaderLoader reads the embedded shaders unless a directory overrides them.
func shaderLoader(cfg config.Config) shader.Loader {
	var fsys fs.FS = shaders.FS
	if cfg.ShaderDir != "" {
		fsys = os.DirFS(cfg.ShaderDir)
	}
	return shader.Loader{
		FS:       fsys,
		Vertex:   cfg.VertexShader,
		Fragment: cfg.FragmentShader,
	}
}
