package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		event sdl.Event
		want  Event
		ok    bool
	}{
		{"quit", &sdl.QuitEvent{Type: sdl.QUIT}, Event{Type: EventQuit}, true},
		{
			"resize",
			&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600},
			Event{Type: EventWindowResize, Width: 800, Height: 600},
			true,
		},
		{"window focus", &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_FOCUS_GAINED}, Event{}, false},
		{
			"key down",
			&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_N}},
			Event{Type: EventKeyDown, Key: sdl.SCANCODE_N},
			true,
		},
		{"key repeat", &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Repeat: 1, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_N}}, Event{}, false},
		{
			"drag",
			&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, State: 1, X: 10, Y: 20, XRel: 3, YRel: -2},
			Event{Type: EventMouseMove, MouseX: 10, MouseY: 20, DeltaX: 3, DeltaY: -2, Dragging: true},
			true,
		},
		{
			"hover",
			&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, X: 1, Y: 1, XRel: 1},
			Event{Type: EventMouseMove, MouseX: 1, MouseY: 1, DeltaX: 1},
			true,
		},
		{
			"button up",
			&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONUP, Button: sdl.BUTTON_LEFT, X: 4, Y: 5},
			Event{Type: EventMouseUp, Button: sdl.BUTTON_LEFT, MouseX: 4, MouseY: 5},
			true,
		},
		{
			"wheel",
			&sdl.MouseWheelEvent{Type: sdl.MOUSEWHEEL, Y: 2},
			Event{Type: EventMouseWheel, DeltaY: 2},
			true,
		},
		{
			"flipped wheel",
			&sdl.MouseWheelEvent{Type: sdl.MOUSEWHEEL, Y: 2, Direction: sdl.MOUSEWHEEL_FLIPPED},
			Event{Type: EventMouseWheel, DeltaY: -2},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Translate(tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsKeyPressed(t *testing.T) {
	in := New()
	in.events = append(in.events,
		Event{Type: EventKeyUp, Key: sdl.SCANCODE_B},
		Event{Type: EventKeyDown, Key: sdl.SCANCODE_P},
	)
	assert.True(t, in.IsKeyPressed(sdl.SCANCODE_P))
	assert.False(t, in.IsKeyPressed(sdl.SCANCODE_B))
	assert.Len(t, in.Events(), 2)
}
