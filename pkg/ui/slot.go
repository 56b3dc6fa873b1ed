package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/otpfield/pkg/otp"
)

// MaskChar replaces filled slot content in password fields.
const MaskChar = "•"

// SlotProps is everything a slot renderer needs to draw one position.
type SlotProps struct {
	ID          string // "otpinput-<index>"
	Label       string // "OTP input <index+1> of <length>"
	Index       int
	Length      int
	Char        string // raw content, "" when empty
	Display     string // masked or placeholder text to draw
	Placeholder string
	InputType   otp.InputType
	Focused     bool
	Selected    bool
	Disabled    bool
	ReadOnly    bool
}

// Empty reports whether the slot holds no character.
func (p SlotProps) Empty() bool {
	return p.Char == ""
}

// SeparatorProps describes the separator drawn after slot Index.
type SeparatorProps struct {
	Index  int
	Length int
	Text   string
}

// ContainerProps carries the rendered children of the field. Items
// interleaves Slots and Separators in display order.
type ContainerProps struct {
	ID         string
	Length     int
	Focus      int
	Complete   bool
	Disabled   bool
	ReadOnly   bool
	Slots      []string
	Separators []string
	Items      []string
}

// SlotRenderer draws one slot.
type SlotRenderer func(SlotProps) string

// SeparatorRenderer draws the separator between two slots.
type SeparatorRenderer func(SeparatorProps) string

// ContainerRenderer arranges the rendered slots and separators.
type ContainerRenderer func(ContainerProps) string

// slotProps computes the props of slot i from the field state.
func slotProps(f *otp.Field, i int) SlotProps {
	opts := f.Options()
	char := f.Char(i)
	display := char
	switch {
	case char == "":
		display = opts.Placeholder
	case opts.InputType == otp.InputPassword:
		display = MaskChar
	}
	focused := f.FocusIndex() == i
	return SlotProps{
		ID:          fmt.Sprintf("otpinput-%d", i),
		Label:       fmt.Sprintf("OTP input %d of %d", i+1, f.Len()),
		Index:       i,
		Length:      f.Len(),
		Char:        char,
		Display:     display,
		Placeholder: opts.Placeholder,
		InputType:   opts.InputType,
		Focused:     focused,
		Selected:    focused && f.Selected() && char != "",
		Disabled:    f.Disabled(),
		ReadOnly:    f.ReadOnly(),
	}
}

// DefaultSlotRenderer draws a rounded box around a single character.
func DefaultSlotRenderer(t Theme) SlotRenderer {
	t = t.withRenderer()
	return func(p SlotProps) string {
		content := p.Display
		contentStyle := t.Renderer.NewStyle().Foreground(t.Base.GetForeground())
		if p.Empty() {
			contentStyle = contentStyle.Foreground(t.Muted).Faint(true)
		}
		if p.Selected {
			contentStyle = contentStyle.Reverse(true)
		}
		// Wide characters get one column of air on each side like narrow ones.
		width := max(3, runewidth.StringWidth(content)+2)

		box := t.Renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Width(width).
			Align(lipgloss.Center)
		switch {
		case p.Disabled:
			box = box.Faint(true)
		case p.Focused:
			box = box.BorderForeground(t.Primary).Bold(true)
		case !p.Empty():
			box = box.BorderForeground(t.Secondary)
		}
		return box.Render(contentStyle.Render(content))
	}
}

// DefaultSeparatorRenderer draws the separator text, or nothing.
func DefaultSeparatorRenderer(t Theme) SeparatorRenderer {
	t = t.withRenderer()
	return func(p SeparatorProps) string {
		if p.Text == "" {
			return ""
		}
		return t.Renderer.NewStyle().Foreground(t.Subtext).Padding(0, 1).Render(p.Text)
	}
}

// DefaultContainerRenderer joins items horizontally, vertically centered.
func DefaultContainerRenderer(p ContainerProps) string {
	return lipgloss.JoinHorizontal(lipgloss.Center, p.Items...)
}
