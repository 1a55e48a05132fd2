// Package apu models the NES Audio Processing Unit's register surface.
// It does not synthesize audio: writes are latched exactly as hardware
// would accept them (so games that poll status bits or rely on register
// echo behave correctly) but GetSamples always returns silence.
package apu

// APU represents the NES APU's register file and frame-sequencer timing,
// without channel synthesis.
type APU struct {
	registers [0x18]uint8 // raw $4000-$4017 write latch, indexed by address-0x4000

	frameMode      bool // false = 4-step, true = 5-step ($4017 bit 7)
	frameIRQEnable bool // $4017 bit 6 inhibits the frame IRQ when set
	frameIRQFlag   bool
	dmcIRQFlag     bool

	channelEnable [5]bool // pulse1, pulse2, triangle, noise, dmc ($4015 writes)

	sampleRate int
	cycles     uint64
}

// New creates a new APU instance.
func New() *APU {
	return &APU{
		sampleRate: 44100,
	}
}

// Reset clears all registers and latched state.
func (a *APU) Reset() {
	for i := range a.registers {
		a.registers[i] = 0
	}
	a.frameMode = false
	a.frameIRQEnable = false
	a.frameIRQFlag = false
	a.dmcIRQFlag = false
	a.channelEnable = [5]bool{}
	a.cycles = 0
}

// Step advances the frame sequencer by one CPU cycle, firing the frame IRQ
// flag on 4-step mode's final step the same way hardware does. No channel
// timers run since there is nothing downstream to clock them for.
func (a *APU) Step() {
	a.cycles++

	const cyclesPerFrameStep = 7457 // ~60Hz/4 in CPU cycles, matches real 2A03 timing
	if !a.frameMode && !a.frameIRQEnable {
		if a.cycles%(cyclesPerFrameStep*4) == 0 {
			a.frameIRQFlag = true
		}
	}
}

// WriteRegister handles writes to $4000-$4013, $4015 and $4017.
func (a *APU) WriteRegister(address uint16, value uint8) {
	if address < 0x4000 || address > 0x4017 {
		return
	}
	a.registers[address-0x4000] = value

	switch address {
	case 0x4015:
		for i := 0; i < 5; i++ {
			a.channelEnable[i] = value&(1<<uint(i)) != 0
		}
		a.dmcIRQFlag = false
	case 0x4017:
		a.frameMode = value&0x80 != 0
		a.frameIRQEnable = value&0x40 != 0
		if a.frameIRQEnable {
			a.frameIRQFlag = false
		}
	}
}

// ReadStatus handles reads from $4015: channel length-counter-active bits
// plus the frame and DMC IRQ flags, clearing the frame IRQ flag as a read
// side effect like real hardware.
func (a *APU) ReadStatus() uint8 {
	var status uint8
	for i := 0; i < 5; i++ {
		if a.channelEnable[i] {
			status |= 1 << uint(i)
		}
	}
	if a.frameIRQFlag {
		status |= 0x40
	}
	if a.dmcIRQFlag {
		status |= 0x80
	}
	a.frameIRQFlag = false
	return status
}

// GetFrameIRQ reports whether the frame counter IRQ flag is set.
func (a *APU) GetFrameIRQ() bool {
	return a.frameIRQFlag
}

// GetDMCIRQ reports whether the DMC IRQ flag is set.
func (a *APU) GetDMCIRQ() bool {
	return a.dmcIRQFlag
}

// GetSamples returns one frame's worth of silent audio samples, sized to
// the configured sample rate, so callers that expect a steady sample
// stream (graphics backends driving an audio device) get valid buffers.
func (a *APU) GetSamples() []float32 {
	samplesPerFrame := a.sampleRate / 60
	return make([]float32, samplesPerFrame)
}

// SetSampleRate sets the nominal output sample rate used to size
// GetSamples' buffers.
func (a *APU) SetSampleRate(rate int) {
	a.sampleRate = rate
}

// GetSampleRate returns the configured sample rate.
func (a *APU) GetSampleRate() int {
	return a.sampleRate
}

// IsChannelEnabled reports whether $4015 last enabled the given channel
// index (0=pulse1, 1=pulse2, 2=triangle, 3=noise, 4=dmc).
func (a *APU) IsChannelEnabled(channel int) bool {
	if channel < 0 || channel >= len(a.channelEnable) {
		return false
	}
	return a.channelEnable[channel]
}
