package vk

import (
	"time"

	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/Fabpk90/VulkanDiscovery/internal/gpu"
)

// status maps the result codes the frame loop reacts to. The second return
// is false for any other code.
func status(res common.VkResult) (gpu.Status, bool) {
	switch res {
	case core1_0.VKSuccess:
		return gpu.StatusSuccess, true
	case khr_swapchain.VKSuboptimal:
		return gpu.StatusSuboptimal, true
	case khr_swapchain.VKErrorOutOfDate:
		return gpu.StatusOutOfDate, true
	case core1_0.VKTimeout:
		return gpu.StatusTimeout, true
	case core1_0.VKNotReady:
		return gpu.StatusNotReady, true
	}
	return gpu.StatusSuccess, false
}

// resultStatus classifies a call's outcome. Recognised conditions are
// returned as a status with a nil error, whatever error the wrapper attached
// to them.
func resultStatus(res common.VkResult, err error) (gpu.Status, error) {
	if s, ok := status(res); ok && s != gpu.StatusSuccess {
		return s, nil
	}
	if err != nil {
		return gpu.StatusSuccess, err
	}
	return gpu.StatusSuccess, nil
}

func timeout(d time.Duration) time.Duration {
	if d <= gpu.NoTimeout {
		return common.NoTimeout
	}
	return d
}
