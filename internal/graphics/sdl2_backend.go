//go:build sdl2
// +build sdl2

package graphics

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
)

// SDL2Backend implements the Backend interface using SDL2's renderer/texture
// pipeline, built only when the sdl2 tag is set so the default build does
// not require cgo or the SDL2 headers.
type SDL2Backend struct {
	initialized bool
	config      Config
}

// SDL2Window implements the Window interface for SDL2.
type SDL2Window struct {
	backend  *SDL2Backend
	title    string
	width    int
	height   int
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	pixels   []byte // RGB24 scratch buffer, sized 256*240*3
	running  bool
}

// NewSDL2Backend creates a new SDL2 graphics backend.
func NewSDL2Backend() Backend {
	return &SDL2Backend{}
}

// Initialize initializes SDL2's video subsystem.
func (b *SDL2Backend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("SDL2 backend already initialized")
	}

	if config.Headless {
		return fmt.Errorf("SDL2 backend does not support headless mode")
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %w", err)
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates an SDL2 window, renderer and streaming texture sized
// to the NES's 256x240 frame buffer.
func (b *SDL2Backend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	flags := uint32(sdl.WINDOW_SHOWN)
	if b.config.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	window, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		flags,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SDL2 window: %w", err)
	}

	rendererFlags := uint32(sdl.RENDERER_ACCELERATED)
	if b.config.VSync {
		rendererFlags |= sdl.RENDERER_PRESENTVSYNC
	}
	renderer, err := sdl.CreateRenderer(window, -1, rendererFlags)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("failed to create SDL2 renderer: %w", err)
	}

	scaleMode := "nearest"
	if b.config.Filter == "linear" {
		scaleMode = "linear"
	}
	sdl.SetHint(sdl.HINT_RENDER_SCALE_QUALITY, scaleMode)

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGB24,
		sdl.TEXTUREACCESS_STREAMING,
		256, 240,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		return nil, fmt.Errorf("failed to create SDL2 texture: %w", err)
	}

	return &SDL2Window{
		backend:  b,
		title:    title,
		width:    width,
		height:   height,
		window:   window,
		renderer: renderer,
		texture:  texture,
		pixels:   make([]byte, 256*240*3),
		running:  true,
	}, nil
}

// Cleanup shuts down SDL2's video subsystem.
func (b *SDL2Backend) Cleanup() error {
	if b.initialized {
		sdl.Quit()
		b.initialized = false
	}
	return nil
}

// IsHeadless always returns false for the SDL2 backend.
func (b *SDL2Backend) IsHeadless() bool {
	return false
}

// GetName returns the backend name.
func (b *SDL2Backend) GetName() string {
	return "SDL2"
}

// SDL2Window implementation

// SetTitle sets the window title.
func (w *SDL2Window) SetTitle(title string) {
	w.title = title
	w.window.SetTitle(title)
}

// GetSize returns window dimensions.
func (w *SDL2Window) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close.
func (w *SDL2Window) ShouldClose() bool {
	return !w.running
}

// SwapBuffers presents the renderer; SDL2 handles this on Present, so this
// is a no-op kept to satisfy the Window interface.
func (w *SDL2Window) SwapBuffers() {}

// PollEvents drains SDL2's event queue and translates it to InputEvents
// using the same Key/Button mapping as the Ebitengine backend.
func (w *SDL2Window) PollEvents() []InputEvent {
	var events []InputEvent

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			w.running = false
			events = append(events, InputEvent{Type: InputEventTypeQuit, Pressed: true})

		case *sdl.KeyboardEvent:
			pressed := e.Type == sdl.KEYDOWN
			key, ok := sdlKeyMap[e.Keysym.Sym]
			if !ok {
				continue
			}
			if key == KeyEscape && pressed {
				events = append(events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
				continue
			}
			if button, ok := sdlButtonMap[key]; ok {
				events = append(events, InputEvent{Type: InputEventTypeButton, Button: button, Pressed: pressed})
			} else {
				events = append(events, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: pressed})
			}
		}
	}

	return events
}

// RenderFrame converts the NES frame buffer to RGB24 and uploads it to the
// streaming texture, then presents it scaled and letterboxed to the window.
func (w *SDL2Window) RenderFrame(frameBuffer [256 * 240]uint32) error {
	for i := 0; i < 256*240; i++ {
		pixel := frameBuffer[i]
		w.pixels[i*3+0] = uint8((pixel >> 16) & 0xFF)
		w.pixels[i*3+1] = uint8((pixel >> 8) & 0xFF)
		w.pixels[i*3+2] = uint8(pixel & 0xFF)
	}

	if err := w.texture.Update(nil, unsafe.Pointer(&w.pixels[0]), 256*3); err != nil {
		return fmt.Errorf("failed to update SDL2 texture: %w", err)
	}

	w.renderer.Clear()

	dst := w.letterboxRect()
	if err := w.renderer.Copy(w.texture, nil, dst); err != nil {
		return fmt.Errorf("failed to copy SDL2 texture: %w", err)
	}

	w.renderer.Present()
	return nil
}

// letterboxRect computes the destination rectangle that fits 256x240 into
// the current window while preserving aspect ratio.
func (w *SDL2Window) letterboxRect() *sdl.Rect {
	scaleX := float64(w.width) / 256
	scaleY := float64(w.height) / 240
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	scaledW := int32(256 * scale)
	scaledH := int32(240 * scale)
	offsetX := (int32(w.width) - scaledW) / 2
	offsetY := (int32(w.height) - scaledH) / 2

	return &sdl.Rect{X: offsetX, Y: offsetY, W: scaledW, H: scaledH}
}

// Cleanup releases window resources.
func (w *SDL2Window) Cleanup() error {
	w.running = false
	if w.texture != nil {
		w.texture.Destroy()
	}
	if w.renderer != nil {
		w.renderer.Destroy()
	}
	if w.window != nil {
		w.window.Destroy()
	}
	return nil
}

// sdlKeyMap mirrors the Ebitengine backend's keyboard mapping for SDL2 keysyms.
var sdlKeyMap = map[sdl.Keycode]Key{
	sdl.K_ESCAPE: KeyEscape,
	sdl.K_RETURN: KeyEnter,
	sdl.K_SPACE:  KeySpace,
	sdl.K_UP:     KeyUp,
	sdl.K_DOWN:   KeyDown,
	sdl.K_LEFT:   KeyLeft,
	sdl.K_RIGHT:  KeyRight,
	sdl.K_w:      KeyW,
	sdl.K_a:      KeyA,
	sdl.K_s:      KeyS,
	sdl.K_d:      KeyD,
	sdl.K_j:      KeyJ,
	sdl.K_k:      KeyK,
	sdl.K_x:      KeyX,
	sdl.K_z:      KeyZ,
}

// sdlButtonMap mirrors the Ebitengine backend's key-to-controller-button
// mapping for player 1.
var sdlButtonMap = map[Key]Button{
	KeyUp:    ButtonUp,
	KeyDown:  ButtonDown,
	KeyLeft:  ButtonLeft,
	KeyRight: ButtonRight,
	KeyW:     ButtonUp,
	KeyS:     ButtonDown,
	KeyA:     ButtonLeft,
	KeyD:     ButtonRight,
	KeyJ:     ButtonA,
	KeyK:     ButtonB,
	KeyEnter: ButtonStart,
	KeySpace: ButtonSelect,
}
