//go:build !sdl2
// +build !sdl2

package graphics

import "fmt"

// SDL2Backend stub for builds without the sdl2 tag (cgo/SDL2 headers not
// required in this configuration).
type SDL2Backend struct{}

// SDL2Window stub counterpart.
type SDL2Window struct{}

// NewSDL2Backend returns a stub backend that reports itself unavailable.
func NewSDL2Backend() Backend {
	return &SDL2Backend{}
}

func (b *SDL2Backend) Initialize(config Config) error {
	return fmt.Errorf("SDL2 backend not available: rebuild with -tags sdl2")
}

func (b *SDL2Backend) CreateWindow(title string, width, height int) (Window, error) {
	return nil, fmt.Errorf("SDL2 backend not available: rebuild with -tags sdl2")
}

func (b *SDL2Backend) Cleanup() error { return nil }
func (b *SDL2Backend) IsHeadless() bool { return false }
func (b *SDL2Backend) GetName() string { return "SDL2-Stub" }

func (w *SDL2Window) SetTitle(title string)            {}
func (w *SDL2Window) GetSize() (width, height int)     { return 0, 0 }
func (w *SDL2Window) ShouldClose() bool                { return true }
func (w *SDL2Window) SwapBuffers()                     {}
func (w *SDL2Window) PollEvents() []InputEvent         { return nil }
func (w *SDL2Window) RenderFrame(frameBuffer [256 * 240]uint32) error {
	return fmt.Errorf("SDL2 backend not available: rebuild with -tags sdl2")
}
func (w *SDL2Window) Cleanup() error { return nil }
