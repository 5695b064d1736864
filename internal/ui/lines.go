package ui

import (
	"fmt"

	"jumpflood/internal/core"
)

// Lines flattens a snapshot into the text rows the HUD draws: one header per
// group followed by its parameters. Extra rows are appended unchanged.
func Lines(s core.ParameterSnapshot, extra ...string) []string {
	var out []string
	for _, g := range s.Groups {
		out = append(out, g.Name)
		for _, p := range g.Params {
			out = append(out, fmt.Sprintf("  %-7s %s", p.Label, p.Value))
		}
	}
	return append(out, extra...)
}
