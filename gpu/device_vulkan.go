//go:build !nogpu

package gpu

import (
	"github.com/gogpu/gputypes"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// OpenDefault opens a Vulkan device on the first discrete or integrated
// adapter and returns a Renderer that owns it.
func OpenDefault(opts ...Option) (*Renderer, error) {
	return openBackend(gputypes.BackendVulkan, opts...)
}
