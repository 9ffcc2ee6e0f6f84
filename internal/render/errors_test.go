package render

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestIsRecoverable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"out of date", errors.Wrap(ErrSwapchainOutOfDate, "acquire"), true},
		{"timeout", errors.Mark(errors.New("fence"), ErrTimeout), true},
		{"zero extent", errors.Mark(errors.New("0x0"), ErrZeroExtent), true},
		{"no device", errors.WithStack(ErrNoSuitableDevice), false},
		{"swapchain creation", errors.Mark(errors.New("rejected"), ErrSwapchainCreation), false},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsRecoverable(c.err); got != c.want {
				t.Errorf("IsRecoverable(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}
