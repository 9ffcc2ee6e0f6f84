// Package config holds the application settings and their command-line
// form.
package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

type Config struct {
	Title  string
	Width  int
	Height int

	RequiredExtensions []string
	ValidationLayers   []string
	EnableValidation   bool

	MaxFramesInFlight   int
	PreferDiscrete      bool
	AcquireTimeout      time.Duration
	FenceTimeout        time.Duration
	MaxRecreateAttempts int
	ClearColor          mgl32.Vec4

	// ShaderDir overrides the embedded shaders with files on disk.
	ShaderDir      string
	VertexShader   string
	FragmentShader string

	StatsInterval time.Duration
	Verbose       bool
}

func Default() Config {
	return Config{
		Title:               "Vulkan",
		Width:               800,
		Height:              600,
		RequiredExtensions:  []string{khr_swapchain.ExtensionName},
		ValidationLayers:    []string{"VK_LAYER_KHRONOS_validation"},
		EnableValidation:    true,
		MaxFramesInFlight:   2,
		PreferDiscrete:      true,
		MaxRecreateAttempts: 3,
		ClearColor:          mgl32.Vec4{0, 0, 0, 1},
		VertexShader:        "vert.spv",
		FragmentShader:      "frag.spv",
		StatsInterval:       5 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.MaxFramesInFlight < 1 {
		return errors.Newf("frames in flight must be at least 1, got %d", c.MaxFramesInFlight)
	}
	if c.MaxRecreateAttempts < 1 {
		return errors.Newf("recreate attempts must be at least 1, got %d", c.MaxRecreateAttempts)
	}
	if c.AcquireTimeout < 0 || c.FenceTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.StatsInterval < 0 {
		return errors.New("stats interval must not be negative")
	}
	for _, ext := range c.RequiredExtensions {
		if ext == "" {
			return errors.New("empty device extension name")
		}
	}
	for _, layer := range c.ValidationLayers {
		if layer == "" {
			return errors.New("empty validation layer name")
		}
	}
	if c.VertexShader == "" || c.FragmentShader == "" {
		return errors.New("shader file names must not be empty")
	}
	return nil
}

// Parse builds a Config from the defaults overridden by args (without the
// program name) and validates it.
func Parse(args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("triangle", flag.ContinueOnError)
	fs.StringVar(&cfg.Title, "title", cfg.Title, "window title")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "initial window width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "initial window height")
	fs.Var((*stringList)(&cfg.RequiredExtensions), "extensions", "comma-separated required device extensions")
	fs.Var((*stringList)(&cfg.ValidationLayers), "layers", "comma-separated validation layers")
	fs.BoolVar(&cfg.EnableValidation, "validation", cfg.EnableValidation, "enable validation layers when available")
	fs.IntVar(&cfg.MaxFramesInFlight, "frames", cfg.MaxFramesInFlight, "frames in flight")
	fs.BoolVar(&cfg.PreferDiscrete, "prefer-discrete", cfg.PreferDiscrete, "rank discrete GPUs above integrated ones")
	fs.DurationVar(&cfg.AcquireTimeout, "acquire-timeout", cfg.AcquireTimeout, "image acquire timeout (0 waits forever)")
	fs.DurationVar(&cfg.FenceTimeout, "fence-timeout", cfg.FenceTimeout, "frame fence timeout (0 waits forever)")
	fs.IntVar(&cfg.MaxRecreateAttempts, "recreate-attempts", cfg.MaxRecreateAttempts, "consecutive failed swapchain rebuilds before giving up")
	fs.Var((*colorValue)(&cfg.ClearColor), "clear", "clear color as r,g,b,a")
	fs.StringVar(&cfg.ShaderDir, "shaders", cfg.ShaderDir, "load compiled shaders from this directory instead of the embedded ones")
	fs.StringVar(&cfg.VertexShader, "vert", cfg.VertexShader, "vertex shader file")
	fs.StringVar(&cfg.FragmentShader, "frag", cfg.FragmentShader, "fragment shader file")
	fs.DurationVar(&cfg.StatsInterval, "stats", cfg.StatsInterval, "frame statistics interval (0 disables)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "debug logging")

	if err := fs.Parse(args); err != nil {
		return cfg, errors.Wrap(err, "parse flags")
	}
	if fs.NArg() > 0 {
		return cfg, errors.Newf("unexpected arguments %v", fs.Args())
	}

	return cfg, errors.Wrap(cfg.Validate(), "invalid configuration")
}

type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(s string) error {
	*l = nil
	if s == "" {
		return nil
	}
	for _, item := range strings.Split(s, ",") {
		*l = append(*l, strings.TrimSpace(item))
	}
	return nil
}

type colorValue mgl32.Vec4

func (c *colorValue) String() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g,%g", c[0], c[1], c[2], c[3])
}

func (c *colorValue) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return errors.Newf("want four components, got %d", len(parts))
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return errors.Wrapf(err, "component %d", i)
		}
		if v < 0 || v > 1 {
			return errors.Newf("component %d out of range [0,1]: %g", i, v)
		}
		c[i] = float32(v)
	}
	return nil
}
