package ui

import (
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"
	"github.com/rs/zerolog"

	"github.com/Dicklesworthstone/otpfield/pkg/otp"
)

// ChangedMsg is emitted after every mutation of a field's value.
type ChangedMsg struct {
	ID    string
	Value string
}

// CompletedMsg is emitted after every mutation with the completion status.
type CompletedMsg struct {
	ID       string
	Complete bool
}

// ClipboardMsg carries system clipboard contents read for a paste.
type ClipboardMsg struct {
	ID   string
	Text string
	Err  error
}

// FieldOptions configures an OtpFieldModel.
type FieldOptions struct {
	otp.Options

	// ID tags the messages of this field; defaults to "otp".
	ID    string
	Theme Theme

	// Render overrides. Nil uses the built-in renderer.
	RenderSlot      SlotRenderer
	RenderSeparator SeparatorRenderer
	RenderContainer ContainerRenderer
}

// outbox collects notifications raised by the field during one Update.
type outbox struct {
	msgs []tea.Msg
}

// OtpFieldModel renders an otp.Field as a row of boxes and maps terminal
// input onto its operations.
type OtpFieldModel struct {
	id    string
	field *otp.Field
	out   *outbox
	keys  KeyMap
	theme Theme

	renderSlot      SlotRenderer
	renderSeparator SeparatorRenderer
	renderContainer ContainerRenderer

	// Screen position of the top-left corner, for mouse hit testing.
	x, y int

	logger zerolog.Logger
}

// NewOtpFieldModel creates an OTP field model.
func NewOtpFieldModel(opts FieldOptions) OtpFieldModel {
	out := &outbox{}
	id := opts.ID
	if id == "" {
		id = "otp"
	}

	core := opts.Options
	onChange, onComplete := core.OnChange, core.OnComplete
	core.OnChange = func(v string) {
		out.msgs = append(out.msgs, ChangedMsg{ID: id, Value: v})
		if onChange != nil {
			onChange(v)
		}
	}
	core.OnComplete = func(c bool) {
		out.msgs = append(out.msgs, CompletedMsg{ID: id, Complete: c})
		if onComplete != nil {
			onComplete(c)
		}
	}

	theme := opts.Theme
	if theme.Renderer == nil {
		theme = DefaultTheme(nil)
	}

	m := OtpFieldModel{
		id:              id,
		field:           otp.New(core),
		out:             out,
		keys:            DefaultKeyMap(),
		theme:           theme,
		renderSlot:      opts.RenderSlot,
		renderSeparator: opts.RenderSeparator,
		renderContainer: opts.RenderContainer,
		logger:          core.Logger,
	}
	if m.renderSlot == nil {
		m.renderSlot = DefaultSlotRenderer(theme)
	}
	if m.renderSeparator == nil {
		m.renderSeparator = DefaultSeparatorRenderer(theme)
	}
	if m.renderContainer == nil {
		m.renderContainer = DefaultContainerRenderer
	}
	return m
}

// Init implements tea.Model
func (m OtpFieldModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m OtpFieldModel) Update(msg tea.Msg) (OtpFieldModel, tea.Cmd) {
	if m.field.Disabled() {
		return m, nil
	}

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.field.FocusIndex() == otp.NoFocus {
			return m, nil
		}
		cmd = m.handleKey(msg)

	case ClipboardMsg:
		if msg.ID != m.id {
			return m, nil
		}
		if msg.Err != nil {
			m.logger.Warn().Err(msg.Err).Msg("clipboard read failed")
			return m, nil
		}
		m.field.PasteFill(max(m.field.FocusIndex(), 0), msg.Text)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if i, ok := m.SlotAt(msg.X, msg.Y); ok {
				m.field.Focus(i)
			}
		}
	}

	return m, tea.Batch(cmd, m.flush())
}

func (m OtpFieldModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	i := m.field.FocusIndex()

	// Bracketed paste arrives as one runes message; split it across slots
	// instead of typing it into the focused slot.
	if msg.Paste {
		m.field.PasteFill(i, string(msg.Runes))
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Paste):
		return readClipboard(m.id)
	case key.Matches(msg, m.keys.Delete):
		m.field.ClearChar(i)
	case key.Matches(msg, m.keys.Clear):
		m.field.Clear()
	case key.Matches(msg, m.keys.Prev):
		m.field.Focus(i - 1)
	case key.Matches(msg, m.keys.Next):
		m.field.Focus(i + 1)
	case key.Matches(msg, m.keys.First):
		m.field.Focus(0)
	case key.Matches(msg, m.keys.Last):
		m.field.Focus(m.field.Len() - 1)
	case msg.Type == tea.KeyRunes && !msg.Alt && IsPrintableRunes(msg.Runes):
		// Fast typing or an unbracketed paste can deliver several
		// characters in one message; they fill consecutive slots.
		if text := string(msg.Runes); uniseg.GraphemeClusterCount(text) > 1 {
			m.field.PasteFill(i, text)
		} else {
			m.field.SetChar(i, text)
		}
	}
	return nil
}

// flush turns queued notifications into a command that delivers them in order.
func (m OtpFieldModel) flush() tea.Cmd {
	if len(m.out.msgs) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(m.out.msgs))
	for _, msg := range m.out.msgs {
		msg := msg // per-iteration copy; go.mod targets go1.21 loop semantics
		cmds = append(cmds, func() tea.Msg { return msg })
	}
	m.out.msgs = nil
	return tea.Sequence(cmds...)
}

func readClipboard(id string) tea.Cmd {
	return func() tea.Msg {
		text, err := clipboard.ReadAll()
		return ClipboardMsg{ID: id, Text: text, Err: err}
	}
}

// View implements tea.Model
func (m OtpFieldModel) View() string {
	return m.renderContainer(m.containerProps())
}

func (m OtpFieldModel) containerProps() ContainerProps {
	n := m.field.Len()
	opts := m.field.Options()
	p := ContainerProps{
		ID:         m.id,
		Length:     n,
		Focus:      m.field.FocusIndex(),
		Complete:   m.field.IsComplete(),
		Disabled:   m.field.Disabled(),
		ReadOnly:   m.field.ReadOnly(),
		Slots:      make([]string, 0, n),
		Separators: make([]string, 0, n-1),
		Items:      make([]string, 0, 2*n-1),
	}
	for i := 0; i < n; i++ {
		slot := m.renderSlot(slotProps(m.field, i))
		p.Slots = append(p.Slots, slot)
		p.Items = append(p.Items, slot)
		if i < n-1 {
			sep := m.renderSeparator(SeparatorProps{Index: i, Length: n, Text: opts.Separator})
			p.Separators = append(p.Separators, sep)
			p.Items = append(p.Items, sep)
		}
	}
	return p
}

// SlotAt maps a screen position onto a slot. It assumes the container lays
// items out left to right starting at the model position.
func (m OtpFieldModel) SlotAt(x, y int) (int, bool) {
	p := m.containerProps()
	height := lipgloss.Height(m.renderContainer(p))
	if y < m.y || y >= m.y+height {
		return 0, false
	}
	col := m.x
	for i, item := range p.Items {
		w := lipgloss.Width(item)
		if x >= col && x < col+w && i%2 == 0 {
			return i / 2, true
		}
		col += w
	}
	return 0, false
}

// SetPosition records where the host draws the field.
func (m *OtpFieldModel) SetPosition(x, y int) {
	m.x, m.y = x, y
}

// Focus gives the field keyboard focus, keeping the focused slot if any.
func (m *OtpFieldModel) Focus() {
	if i := m.field.FocusIndex(); i != otp.NoFocus {
		m.field.Focus(i)
		return
	}
	m.field.Focus(0)
}

// Blur removes keyboard focus.
func (m *OtpFieldModel) Blur() {
	m.field.Blur()
}

// Focused reports whether a slot holds focus.
func (m OtpFieldModel) Focused() bool {
	return m.field.FocusIndex() != otp.NoFocus
}

// SetValue resynchronizes the field with an external value.
func (m *OtpFieldModel) SetValue(v string) {
	m.field.SetValue(v)
}

// SetLength changes the slot count.
func (m *OtpFieldModel) SetLength(n int) {
	m.field.SetLength(n)
}

// Reset clears every slot. Notifications are returned as a command.
func (m *OtpFieldModel) Reset() tea.Cmd {
	m.field.Clear()
	return m.flush()
}

// Value returns the joined value.
func (m OtpFieldModel) Value() string {
	return m.field.Value()
}

// Field exposes the underlying state machine.
func (m OtpFieldModel) Field() *otp.Field {
	return m.field
}

// ID returns the message tag of the field.
func (m OtpFieldModel) ID() string {
	return m.id
}

// KeyMap returns the active key bindings.
func (m OtpFieldModel) KeyMap() KeyMap {
	return m.keys
}

// SetKeyMap replaces the key bindings.
func (m *OtpFieldModel) SetKeyMap(k KeyMap) {
	m.keys = k
}
