package window

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		events []sdl.Event
		want   Events
	}{
		{"quit", []sdl.Event{&sdl.QuitEvent{}}, Events{Quit: true}},
		{"escape pressed", []sdl.Event{&sdl.KeyboardEvent{State: sdl.PRESSED, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}}, Events{Quit: true}},
		{"escape released", []sdl.Event{&sdl.KeyboardEvent{State: sdl.RELEASED, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}}, Events{}},
		{"other key", []sdl.Event{&sdl.KeyboardEvent{State: sdl.PRESSED, Keysym: sdl.Keysym{Sym: sdl.K_SPACE}}}, Events{}},
		{"resize", []sdl.Event{&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED}}, Events{Resized: true}},
		{"minimise then restore", []sdl.Event{
			&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MINIMIZED},
			&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESTORED},
		}, Events{Restored: true}},
		{"restore then minimise", []sdl.Event{
			&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESTORED},
			&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MINIMIZED},
		}, Events{Minimized: true}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var got Events
			for _, e := range c.events {
				classify(e, &got)
			}
			if got != c.want {
				t.Errorf("got %+v, want %+v", got, c.want)
			}
		})
	}
}
