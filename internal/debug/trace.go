package debug

import (
	"fmt"
	"io"

	"nesgo/internal/bus"
)

// WriteTrace renders the bus's execution log (enabled via
// b.EnableExecutionLogging) as one line per stepped instruction, in the
// disassembler-trace style used by NES test ROMs like nestest's golden log.
func WriteTrace(w io.Writer, b *bus.Bus) error {
	for _, event := range b.GetExecutionLog() {
		name := cpuInstructionName(b.CPU, event.InstructionOp)
		_, err := fmt.Fprintf(w, "%04X  %02X  %-3s  CYC:%d PPUCYC:%d FRAME:%d DMA:%v NMI:%v\n",
			event.PCValue, event.InstructionOp, name,
			event.CPUCycles, event.PPUCycles, event.FrameCount,
			event.DMAActive, event.NMIProcessed,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
