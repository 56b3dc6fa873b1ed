// Package otp implements the state of a one-time-passcode entry field: a fixed
// row of single-character slots that behave as one logical string value.
//
// A Field owns the slot contents and the focus index. Every mutating
// operation notifies OnChange exactly once with the joined value and, when
// configured, OnComplete exactly once with the completion status.
package otp

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Field is the focus/value state machine behind an OTP input row.
// It is not safe for concurrent use; drive it from one event loop.
type Field struct {
	opts     Options
	cells    []string
	focus    int
	selected bool
}

// New creates a field from opts. Invalid options are logged and normalized.
func New(opts Options) *Field {
	opts = opts.normalize()
	f := &Field{
		opts:  opts,
		cells: fit(opts.Value, opts.Length),
		focus: NoFocus,
	}
	if opts.DefaultFocus && !opts.Disabled {
		f.focus = 0
		f.selected = true
	}
	return f
}

// Options returns the normalized options the field runs with.
func (f *Field) Options() Options {
	return f.opts
}

// Len returns the number of slots.
func (f *Field) Len() int {
	return len(f.cells)
}

// Value returns the joined logical value. Empty slots contribute nothing.
func (f *Field) Value() string {
	return strings.Join(f.cells, "")
}

// Cells returns a copy of the per-slot contents, "" for an empty slot.
func (f *Field) Cells() []string {
	out := make([]string, len(f.cells))
	copy(out, f.cells)
	return out
}

// Char returns the content of slot index, or "" when out of range.
func (f *Field) Char(index int) string {
	if !f.inRange(index) {
		return ""
	}
	return f.cells[index]
}

// FocusIndex returns the focused slot or NoFocus.
func (f *Field) FocusIndex() int {
	return f.focus
}

// Selected reports whether the focused slot's content is selected, so the
// next typed character replaces it.
func (f *Field) Selected() bool {
	return f.selected && f.focus != NoFocus
}

// IsComplete reports whether every slot holds a character.
func (f *Field) IsComplete() bool {
	for _, c := range f.cells {
		if c == "" {
			return false
		}
	}
	return true
}

// Disabled reports whether the field rejects input and focus.
func (f *Field) Disabled() bool {
	return f.opts.Disabled
}

// ReadOnly reports whether the field rejects input.
func (f *Field) ReadOnly() bool {
	return f.opts.ReadOnly
}

// SetDisabled toggles the disabled state. Disabling drops focus.
func (f *Field) SetDisabled(disabled bool) {
	f.opts.Disabled = disabled
	if disabled {
		f.Blur()
	}
}

// SetReadOnly toggles the read-only state.
func (f *Field) SetReadOnly(readOnly bool) {
	f.opts.ReadOnly = readOnly
}

// SetChar stores the first character of char in slot index and advances
// focus to the next slot, staying on the last one. Setting the character a
// slot already holds moves focus but does not notify. An empty char clears
// the slot in place. It reports whether the value changed.
func (f *Field) SetChar(index int, char string) bool {
	if !f.editable() || !f.inRange(index) {
		return false
	}
	char = firstGrapheme(char)
	if char == "" {
		if f.cells[index] == "" {
			return false
		}
		f.cells[index] = ""
		f.notify()
		return true
	}

	f.moveFocus(min(index+1, f.Len()-1))
	if f.cells[index] == char {
		return false
	}
	f.cells[index] = char
	f.notify()
	return true
}

// ClearChar empties slot index and moves focus one slot back. Focus moves
// even when the slot was already empty; it never goes below the first slot.
// It reports whether the value changed.
func (f *Field) ClearChar(index int) bool {
	if !f.editable() || !f.inRange(index) {
		return false
	}
	if index > 0 {
		f.moveFocus(index - 1)
	} else {
		f.moveFocus(0)
	}
	if f.cells[index] == "" {
		return false
	}
	f.cells[index] = ""
	f.notify()
	return true
}

// PasteFill splits text into characters and writes them into consecutive
// slots starting at start. Characters beyond the last slot are dropped.
// Focus lands after the last written slot, clamped to the last slot.
// It returns the number of slots written.
func (f *Field) PasteFill(start int, text string) int {
	if !f.editable() || !f.inRange(start) {
		return 0
	}
	chars := splitGraphemes(strings.TrimSpace(text))
	if len(chars) == 0 {
		return 0
	}
	written := min(len(chars), f.Len()-start)

	changed := false
	for i := 0; i < written; i++ {
		if f.cells[start+i] != chars[i] {
			f.cells[start+i] = chars[i]
			changed = true
		}
	}
	f.moveFocus(min(start+written, f.Len()-1))
	if changed {
		f.notify()
	}
	return written
}

// Focus moves focus to index and selects its content. Out-of-range indices
// and disabled fields are ignored. It reports whether focus was accepted.
func (f *Field) Focus(index int) bool {
	if f.opts.Disabled || !f.inRange(index) {
		return false
	}
	f.moveFocus(index)
	return true
}

// Blur drops focus from every slot.
func (f *Field) Blur() {
	f.focus = NoFocus
	f.selected = false
}

// SetValue resynchronizes the field with an externally supplied value,
// truncating or padding it to the slot count. It does not notify. A value
// equal to the current joined value is ignored so that empty slots between
// filled ones survive a controlled round trip.
func (f *Field) SetValue(value string) {
	f.opts.Value = value
	if value == f.Value() {
		return
	}
	f.cells = fit(value, f.Len())
}

// SetLength changes the slot count, truncating or padding the value and
// clamping focus. A non-positive length is treated as 1.
func (f *Field) SetLength(length int) {
	if length <= 0 {
		f.opts.Logger.Warn().Int("length", length).Msg("otp field length adjusted to 1")
		length = 1
	}
	if length == f.Len() {
		return
	}
	next := make([]string, length)
	copy(next, f.cells)
	f.cells = next
	f.opts.Length = length
	if f.focus >= length {
		f.focus = length - 1
	}
}

// Reconfigure applies a new set of options as if the field were re-rendered
// with them. Length is resynchronized always; the value only when the
// external value differs from the previous one, so typed input survives a
// change of display options. Callbacks and logger are kept. It does not
// notify.
func (f *Field) Reconfigure(opts Options) {
	opts.OnChange = f.opts.OnChange
	opts.OnComplete = f.opts.OnComplete
	opts.Logger = f.opts.Logger
	opts = opts.normalize()

	f.SetLength(opts.Length)
	if opts.Value != f.opts.Value {
		f.SetValue(opts.Value)
	}
	f.opts = opts
	if opts.Disabled {
		f.Blur()
	}
}

// Clear empties every slot. A focused field moves focus to the first slot.
// It reports whether the value changed.
func (f *Field) Clear() bool {
	if !f.editable() {
		return false
	}
	if f.focus != NoFocus {
		f.moveFocus(0)
	}
	if f.Value() == "" {
		return false
	}
	for i := range f.cells {
		f.cells[i] = ""
	}
	f.notify()
	return true
}

func (f *Field) editable() bool {
	return !f.opts.Disabled && !f.opts.ReadOnly
}

func (f *Field) inRange(index int) bool {
	return index >= 0 && index < len(f.cells)
}

func (f *Field) moveFocus(index int) {
	f.focus = index
	f.selected = true
}

func (f *Field) notify() {
	if f.opts.OnChange != nil {
		f.opts.OnChange(f.Value())
	}
	if f.opts.OnComplete != nil {
		f.opts.OnComplete(f.IsComplete())
	}
}

// fit splits value into at most length characters and pads with empties.
func fit(value string, length int) []string {
	cells := make([]string, length)
	copy(cells, splitGraphemes(value))
	return cells
}

// splitGraphemes splits s into user-perceived characters.
func splitGraphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

func firstGrapheme(s string) string {
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
	return cluster
}
