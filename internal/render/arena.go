package render

import "github.com/Fabpk90/VulkanDiscovery/internal/gpu"

// Arena owns a group of driver objects that live and die together.
// Release destroys them in reverse creation order, exactly once.
type Arena struct {
	owner string
	items []gpu.Destroyer
}

func NewArena(owner string) *Arena {
	return &Arena{owner: owner}
}

// Track hands ownership of d to the arena.
func (a *Arena) Track(d gpu.Destroyer) {
	a.items = append(a.items, d)
}

func (a *Arena) Len() int {
	return len(a.items)
}

// Release destroys every tracked object and leaves the arena empty and
// reusable.
func (a *Arena) Release() {
	if len(a.items) == 0 {
		return
	}
	Logger().Debug("releasing arena", "owner", a.owner, "objects", len(a.items))
	for i := len(a.items) - 1; i >= 0; i-- {
		a.items[i].Destroy()
		a.items[i] = nil
	}
	a.items = a.items[:0]
}
