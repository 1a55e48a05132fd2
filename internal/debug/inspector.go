// Package debug provides an interactive terminal inspector for stepping
// the emulator one CPU instruction at a time and examining CPU/PPU state
// and memory as it runs.
package debug

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"nesgo/internal/bus"
	"nesgo/internal/cpu"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	pcStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	flagOnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	flagOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// model is the bubbletea model backing the inspector TUI.
type model struct {
	bus    *bus.Bus
	prevPC uint16
	lastOp uint8
	err    error
	paused bool
}

// Inspect starts an interactive TUI bound to the given bus. It blocks until
// the user quits (q) or a fatal CPU condition is hit.
func Inspect(b *bus.Bus) error {
	m, err := tea.NewProgram(model{bus: b, paused: true}).Run()
	if err != nil {
		return fmt.Errorf("inspector: %w", err)
	}
	final := m.(model)
	return final.err
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ", "s":
		m.step()

	case "n":
		for i := 0; i < 1000 && !m.bus.CPU.IsHalted(); i++ {
			m.step()
		}

	case "p":
		m.paused = !m.paused
	}

	if m.bus.CPU.IsHalted() {
		m.err = fmt.Errorf("CPU halted at $%04X (opcode $%02X)", m.bus.CPU.PC, m.lastOp)
	}

	return m, nil
}

func (m *model) step() {
	m.prevPC = m.bus.CPU.PC
	m.lastOp = m.bus.Memory.Peek(m.bus.CPU.PC)
	m.bus.StepWithError()
}

func (m model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render("nesgo inspector — space/s: step, n: step 1000, p: pause, q: quit"),
		"",
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.memoryPage(),
			"   ",
			m.cpuStatus(),
		),
		"",
		m.ppuStatus(),
		"",
		m.instructionDump(),
	)
}

// memoryPage renders the 16-byte page containing the program counter, with
// the current byte bracketed.
func (m model) memoryPage() string {
	start := m.bus.CPU.PC &^ 0x000F
	line := fmt.Sprintf("%04X | ", start)
	for i := uint16(0); i < 16; i++ {
		addr := start + i
		b := m.bus.Memory.Peek(addr)
		if addr == m.bus.CPU.PC {
			line += pcStyle.Render(fmt.Sprintf("[%02X]", b)) + " "
		} else {
			line += fmt.Sprintf(" %02X  ", b)
		}
	}
	return line
}

func flagChar(set bool, name string) string {
	if set {
		return flagOnStyle.Render(name)
	}
	return flagOffStyle.Render(name)
}

func (m model) cpuStatus() string {
	c := m.bus.CPU
	flags := strings.Join([]string{
		flagChar(c.N, "N"), flagChar(c.V, "V"), flagChar(c.B, "B"),
		flagChar(c.D, "D"), flagChar(c.I, "I"), flagChar(c.Z, "Z"), flagChar(c.C, "C"),
	}, " ")

	return fmt.Sprintf(
		"PC: $%04X (prev $%04X)\n A: $%02X\n X: $%02X\n Y: $%02X\nSP: $%02X\nCycles: %d\n%s",
		c.PC, m.prevPC, c.A, c.X, c.Y, c.SP, c.Cycles(), flags,
	)
}

func (m model) ppuStatus() string {
	state := m.bus.GetPPUState()
	return fmt.Sprintf(
		"PPU scanline=%d cycle=%d frame=%d vblank=%v rendering=%v",
		state.Scanline, state.Cycle, state.FrameCount, state.VBlankFlag, state.RenderingOn,
	)
}

// instructionDump spew-dumps the opcode table entry for the instruction
// about to execute, the same way as reaching for a debugger on an
// unfamiliar mnemonic.
func (m model) instructionDump() string {
	instr := m.bus.CPU.Instruction(m.bus.Memory.Peek(m.bus.CPU.PC))
	if instr == nil {
		return fmt.Sprintf("$%02X: <unassigned opcode>", m.bus.Memory.Peek(m.bus.CPU.PC))
	}
	return spew.Sdump(*instr)
}

// cpuInstructionName resolves an opcode's mnemonic, or "???" if unassigned.
// Used by the execution-log printer in log.go.
func cpuInstructionName(c *cpu.CPU, opcode uint8) string {
	instr := c.Instruction(opcode)
	if instr == nil {
		return "???"
	}
	return instr.Name
}
