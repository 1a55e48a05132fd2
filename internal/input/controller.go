// Package input implements the NES controller shift-register protocol.
package input

// Button represents NES controller buttons
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Convenience aliases for shorter names at call sites.
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Up     = ButtonUp
	Down   = ButtonDown
	Left   = ButtonLeft
	Right  = ButtonRight
)

// Controller models one NES controller port: a latch for the live button
// state and an 8-bit parallel-in/serial-out shift register that the CPU
// clocks one bit at a time through $4016/$4017.
type Controller struct {
	buttons uint8

	shiftRegister uint8
	strobe        bool
	bitsRead      uint8
}

// New creates a new Controller instance.
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all eight button states at once, in controller-register
// order: A, B, Select, Start, Up, Down, Left, Right.
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	order := [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= uint8(order[i])
		}
	}
}

// IsPressed returns true if the button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// Write handles writes to the shared strobe line. While strobe is high the
// shift register continuously reloads from the live button state; the
// falling edge latches whatever state was present at that instant, which is
// what subsequent reads shift out.
func (c *Controller) Write(value uint8) {
	strobeHigh := value&1 != 0
	if strobeHigh || c.strobe {
		c.shiftRegister = c.buttons
		c.bitsRead = 0
	}
	c.strobe = strobeHigh
}

// Read shifts the next bit out of the register. With strobe held high the
// register keeps reloading, so every read returns the A-button bit. Once the
// 8 button bits are shifted out, further reads return 0 on bit 0 rather than
// continuing to shift. Bit 6 is always set, matching the open-bus value real
// controller ports return alongside the serial bit.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return (c.buttons & 1) | 0x40
	}

	if c.bitsRead >= 8 {
		return 0x40
	}

	bit := c.shiftRegister & 1
	c.shiftRegister >>= 1
	c.bitsRead++
	return bit | 0x40
}

// Reset clears all latched and shifted state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
	c.bitsRead = 0
}

// InputState wires the two controller ports together behind the CPU's
// $4016/$4017 registers.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates a new input state with two controllers.
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets both controllers.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// SetButtons1 sets all button states for controller 1.
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets all button states for controller 2.
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read reads from controller ports $4016/$4017.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read()
	default:
		return 0
	}
}

// Write writes to the shared strobe register at $4016. Both controllers see
// every strobe write; there is no separate $4017 write register.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
