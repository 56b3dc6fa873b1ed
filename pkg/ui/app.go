package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	reflowtrunc "github.com/muesli/reflow/truncate"
	"github.com/rs/zerolog"

	"github.com/Dicklesworthstone/otpfield/pkg/attempts"
	"github.com/Dicklesworthstone/otpfield/pkg/config"
	"github.com/Dicklesworthstone/otpfield/pkg/verify"
)

// ConfigMsg delivers a reloaded configuration to a running app.
type ConfigMsg struct {
	Config config.Config
}

// ConfigErrMsg reports a configuration reload failure.
type ConfigErrMsg struct {
	Err error
}

// AttemptRecorder persists verification outcomes.
type AttemptRecorder interface {
	Record(a *attempts.Attempt) error
}

type statusKind int

const (
	statusNone statusKind = iota
	statusInfo
	statusSuccess
	statusWarning
	statusError
)

// Field position inside the app view: one line of padding, the title and a
// blank line above it; two columns of padding to its left.
const (
	appPadX   = 2
	appFieldY = 3
)

// AppModel hosts one OTP field with verification, help and a status line.
type AppModel struct {
	field    OtpFieldModel
	overlay  HelpOverlayModel
	help     help.Model
	theme    Theme
	verifier verify.Verifier
	recorder AttemptRecorder
	logger   zerolog.Logger
	now      func() time.Time

	title      string
	status     string
	statusKind statusKind
	accepted   bool
	width      int
	height     int
}

// AppOptions configures an AppModel. Verifier and Recorder are optional.
type AppOptions struct {
	Config   config.Config
	Verifier verify.Verifier
	Recorder AttemptRecorder
	Theme    Theme
	Logger   zerolog.Logger
	Title    string

	// Now overrides the clock used for verification.
	Now func() time.Time
}

// NewAppModel creates the demo host model.
func NewAppModel(opts AppOptions) AppModel {
	theme := opts.Theme
	if theme.Renderer == nil {
		theme = DefaultTheme(nil)
	}
	fieldOpts := opts.Config.FieldOptions()
	fieldOpts.Logger = opts.Logger

	field := NewOtpFieldModel(FieldOptions{
		Options: fieldOpts,
		ID:      "code",
		Theme:   theme,
	})
	field.SetPosition(appPadX, appFieldY)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	title := opts.Title
	if title == "" {
		title = "Enter your one-time code"
	}

	m := AppModel{
		field:    field,
		overlay:  NewHelpOverlayModel(field.KeyMap(), theme),
		help:     help.New(),
		theme:    theme,
		verifier: opts.Verifier,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		now:      now,
		title:    title,
	}
	if opts.Verifier == nil {
		m.setStatus(statusInfo, "No TOTP secret configured; codes are not checked")
	}
	return m
}

// Init implements tea.Model
func (m AppModel) Init() tea.Cmd {
	return m.field.Init()
}

// Update implements tea.Model
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.overlay.SetSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.overlay.IsVisible() {
			m.overlay, cmd = m.overlay.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "?":
			// Once a code is under way "?" is an ordinary character.
			if m.field.Value() == "" || !m.field.Focused() {
				m.overlay.Show()
				return m, nil
			}
		case "enter":
			if m.field.Field().IsComplete() {
				cmd = m.verify()
				return m, cmd
			}
			m.setStatus(statusInfo, "Fill every slot first")
			return m, nil
		}

	case CompletedMsg:
		if msg.ID == m.field.ID() && msg.Complete {
			cmd = m.verify()
			return m, cmd
		}
		return m, nil

	case ChangedMsg:
		// Typing after a verdict clears it; the reset after a rejection
		// (empty value) keeps it visible.
		if msg.ID == m.field.ID() && msg.Value != "" && m.statusKind != statusInfo {
			m.setStatus(statusNone, "")
		}
		return m, nil

	case ConfigMsg:
		m.applyConfig(msg.Config)
		m.setStatus(statusInfo, "Configuration reloaded")
		return m, nil

	case ConfigErrMsg:
		m.logger.Warn().Err(msg.Err).Msg("config reload failed")
		m.setStatus(statusWarning, "Config reload failed: "+msg.Err.Error())
		return m, nil
	}

	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

// verify checks the complete code, records the outcome and clears the
// field after a rejection so the user can retry.
func (m *AppModel) verify() tea.Cmd {
	if m.verifier == nil {
		m.setStatus(statusInfo, "Code complete")
		return nil
	}

	code := m.field.Value()
	ok := m.verifier.Verify(code, m.now())
	m.record(ok)

	if ok {
		m.accepted = true
		m.setStatus(statusSuccess, "✓ Code accepted")
		return nil
	}
	m.setStatus(statusError, "✗ Code rejected, try again")
	return m.field.Reset()
}

func (m *AppModel) record(ok bool) {
	if m.recorder == nil {
		return
	}
	outcome := attempts.OutcomeRejected
	if ok {
		outcome = attempts.OutcomeAccepted
	}
	a := &attempts.Attempt{
		Length:    m.field.Field().Len(),
		Outcome:   outcome,
		Source:    "tui",
		CreatedAt: m.now(),
	}
	if err := m.recorder.Record(a); err != nil {
		m.logger.Warn().Err(err).Msg("could not record attempt")
	}
}

func (m *AppModel) applyConfig(cfg config.Config) {
	opts := cfg.FieldOptions()
	m.field.Field().Reconfigure(opts)
	if opts.DefaultFocus && !m.field.Focused() {
		m.field.Focus()
	}
}

func (m *AppModel) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

// Accepted reports whether a code passed verification.
func (m AppModel) Accepted() bool {
	return m.accepted
}

// Field returns the hosted field.
func (m AppModel) Field() OtpFieldModel {
	return m.field
}

// Status returns the current status line text.
func (m AppModel) Status() string {
	return m.status
}

// View implements tea.Model
func (m AppModel) View() string {
	if m.overlay.IsVisible() {
		if m.width > 0 && m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.overlay.View())
		}
		return m.overlay.View()
	}

	var b strings.Builder

	titleStyle := m.theme.Renderer.NewStyle().Bold(true).Foreground(m.theme.Primary)
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	b.WriteString(m.field.View())
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.field.KeyMap().ShortHelp()))
	hintStyle := m.theme.Renderer.NewStyle().Faint(true)
	b.WriteString(hintStyle.Render("  ? help • esc quit"))

	return m.theme.Renderer.NewStyle().Padding(1, appPadX).Render(b.String())
}

func (m AppModel) renderStatus() string {
	style := m.theme.Renderer.NewStyle().Foreground(m.theme.Subtext)
	switch m.statusKind {
	case statusSuccess:
		style = style.Foreground(m.theme.Success).Bold(true)
	case statusWarning:
		style = style.Foreground(m.theme.Warning)
	case statusError:
		style = style.Foreground(m.theme.Danger)
	}
	text := m.status
	if limit := m.width - 2*appPadX; limit > 0 {
		text = reflowtrunc.StringWithTail(text, uint(limit), "…")
	}
	return style.Render(text)
}
