package ir

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Disassemble writes a listing of p, one instruction per line, with call
// and jump targets into the code segment marked as labels.
func Disassemble(w io.Writer, p *Program) error {
	labels := make(map[int]bool)
	for _, in := range p.Code {
		switch in.Op {
		case OpCall, OpCallI, OpJump, OpJumpIf:
			if in.R == RegCB {
				labels[in.D] = true
			}
		}
	}

	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "; build %s, %d static words, %d instructions\n", p.BuildID, p.StaticSize, len(p.Code))
	for addr, in := range p.Code {
		label := ""
		if labels[addr] {
			label = fmt.Sprintf("L%d:", addr)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", addr, label, in)
	}
	return tw.Flush()
}
