package gpu

import (
	"errors"
	"fmt"
)

// CommandList is a finished, ordered sequence of passes.
type CommandList struct {
	Label  string
	Passes []Pass
}

// Len returns the number of passes.
func (c *CommandList) Len() int { return len(c.Passes) }

// Encoder records passes into a CommandList. The first invalid pass poisons
// the encoder and Finish reports it.
type Encoder struct {
	label  string
	passes []Pass
	err    error
}

// NewEncoder starts an empty command list.
func NewEncoder(label string) *Encoder {
	return &Encoder{label: label}
}

// Draw appends a pass after validating it against its program layout.
func (e *Encoder) Draw(p Pass) {
	if e.err != nil {
		return
	}
	if err := ValidatePass(p); err != nil {
		e.err = fmt.Errorf("%s: %w", e.label, err)
		return
	}
	e.passes = append(e.passes, p)
}

// Finish returns the recorded command list.
func (e *Encoder) Finish() (*CommandList, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &CommandList{Label: e.label, Passes: e.passes}, nil
}

// ValidatePass checks that p's bind groups satisfy its program's layout and
// that the pass never samples the texture it renders into.
func ValidatePass(p Pass) error {
	if p.Program == nil {
		return fmt.Errorf("pass %q: %w: no program", p.Label, ErrInvalidPass)
	}
	if p.Target == nil {
		return fmt.Errorf("pass %q: %w: no target", p.Label, ErrInvalidPass)
	}
	if p.Target.Size().Empty() {
		return fmt.Errorf("pass %q: %w: empty target", p.Label, ErrInvalidPass)
	}
	layout := p.Program.Layout()
	if len(p.Groups) != len(layout) {
		return fmt.Errorf("pass %q: %w: %d bind groups, program %q declares %d",
			p.Label, ErrInvalidPass, len(p.Groups), p.Program.Label(), len(layout))
	}
	for gi, group := range layout {
		if len(p.Groups[gi]) != len(group) {
			return fmt.Errorf("pass %q group %d: %w: %d bindings, layout declares %d",
				p.Label, gi, ErrInvalidPass, len(p.Groups[gi]), len(group))
		}
		for bi, entry := range group {
			if err := checkBinding(entry, p.Groups[gi][bi], p.Target); err != nil {
				return fmt.Errorf("pass %q group %d binding %d: %w", p.Label, gi, bi, err)
			}
		}
	}
	return nil
}

var errFeedback = errors.New("texture is both sampled and rendered")

func checkBinding(entry LayoutEntry, b Binding, target Target) error {
	switch entry.Kind {
	case BindingUniform:
		if b.Uniform == nil {
			return fmt.Errorf("%w: missing uniform %q", ErrInvalidPass, entry.Name)
		}
		if b.Uniform.Name() != entry.Name || b.Uniform.Len() != entry.Len {
			return fmt.Errorf("%w: uniform %s[%d] bound to %s[%d]",
				ErrInvalidPass, b.Uniform.Name(), b.Uniform.Len(), entry.Name, entry.Len)
		}
	case BindingTexture:
		if b.Texture == nil {
			return fmt.Errorf("%w: missing texture", ErrInvalidPass)
		}
		if t, ok := target.(Texture); ok && t == b.Texture {
			return fmt.Errorf("%w: %s %q", ErrInvalidPass, errFeedback, t.Label())
		}
	default:
		return fmt.Errorf("%w: binding kind %v", ErrInvalidPass, entry.Kind)
	}
	return nil
}
