// Package shaders embeds the compiled triangle shaders.
package shaders

import "embed"

//go:generate glslc shader.vert -o vert.spv
//go:generate glslc shader.frag -o frag.spv

// FS holds vert.spv and frag.spv.
//
//go:embed *.spv
var FS embed.FS
