// Command triangle opens a window and renders a single triangle with
// Vulkan until Escape is pressed or the window is closed.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"

	"github.com/Fabpk90/VulkanDiscovery/internal/app"
	"github.com/Fabpk90/VulkanDiscovery/internal/config"
	"github.com/Fabpk90/VulkanDiscovery/internal/render"
)

func main() {
	// SDL must stay on the main thread.
	runtime.LockOSThread()

	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("%+v\n", err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	render.SetLogger(logger)

	err = app.Run(cfg, logger)
	if err != nil {
		logger.Error("fatal", "error", err)
		log.Fatalf("%+v\n", err)
	}
}
