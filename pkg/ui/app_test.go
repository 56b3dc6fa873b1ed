package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/otpfield/pkg/attempts"
	"github.com/Dicklesworthstone/otpfield/pkg/config"
)

type fakeVerifier struct {
	code  string
	calls int
}

func (v *fakeVerifier) Verify(code string, _ time.Time) bool {
	v.calls++
	return code == v.code
}

type fakeRecorder struct {
	attempts []attempts.Attempt
	err      error
}

func (r *fakeRecorder) Record(a *attempts.Attempt) error {
	r.attempts = append(r.attempts, *a)
	return r.err
}

func testConfig(length int) config.Config {
	cfg := config.Default()
	cfg.Length = length
	return cfg
}

// feed delivers msg and then every message its commands produce.
func feed(m AppModel, msg tea.Msg) AppModel {
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		model, cmd := m.Update(next)
		m = model.(AppModel)
		for _, out := range collectMsgs(cmd) {
			switch out.(type) {
			case ChangedMsg, CompletedMsg:
				queue = append(queue, out)
			}
		}
	}
	return m
}

func TestAppModel_AcceptsCorrectCode(t *testing.T) {
	v := &fakeVerifier{code: "1234"}
	rec := &fakeRecorder{}
	m := NewAppModel(AppOptions{Config: testConfig(4), Verifier: v, Recorder: rec, Theme: testTheme()})

	m = feed(m, pasteMsg("1234"))

	if !m.Accepted() {
		t.Fatalf("Expected code to be accepted, status %q", m.Status())
	}
	if v.calls != 1 {
		t.Errorf("Expected one verification, got %d", v.calls)
	}
	if len(rec.attempts) != 1 || rec.attempts[0].Outcome != attempts.OutcomeAccepted {
		t.Errorf("Expected one accepted attempt, got %+v", rec.attempts)
	}
	if rec.attempts[0].Length != 4 || rec.attempts[0].Source != "tui" {
		t.Errorf("Unexpected attempt %+v", rec.attempts[0])
	}
}

func TestAppModel_RejectsAndClears(t *testing.T) {
	v := &fakeVerifier{code: "1234"}
	rec := &fakeRecorder{}
	m := NewAppModel(AppOptions{Config: testConfig(4), Verifier: v, Recorder: rec, Theme: testTheme()})

	for _, k := range []string{"9", "9", "9", "9"} {
		m = feed(m, keyMsg(k))
	}

	if m.Accepted() {
		t.Fatal("Expected code to be rejected")
	}
	if m.Field().Value() != "" {
		t.Errorf("Expected field cleared after rejection, got %q", m.Field().Value())
	}
	if m.Field().Field().FocusIndex() != 0 {
		t.Errorf("Expected focus back on 0, got %d", m.Field().Field().FocusIndex())
	}
	if !strings.Contains(m.Status(), "rejected") {
		t.Errorf("Expected rejection status, got %q", m.Status())
	}
	if len(rec.attempts) != 1 || rec.attempts[0].Outcome != attempts.OutcomeRejected {
		t.Errorf("Expected one rejected attempt, got %+v", rec.attempts)
	}

	m = feed(m, keyMsg("1"))
	if m.Status() != "" {
		t.Errorf("Expected typing to clear the verdict, got %q", m.Status())
	}
}

func TestAppModel_RecorderErrorIsNotFatal(t *testing.T) {
	v := &fakeVerifier{code: "12"}
	rec := &fakeRecorder{err: errors.New("disk full")}
	m := NewAppModel(AppOptions{Config: testConfig(2), Verifier: v, Recorder: rec, Theme: testTheme()})

	m = feed(m, pasteMsg("12"))
	if !m.Accepted() {
		t.Error("Expected verification to succeed despite recorder failure")
	}
}

func TestAppModel_WithoutVerifier(t *testing.T) {
	m := NewAppModel(AppOptions{Config: testConfig(4), Theme: testTheme()})
	if !strings.Contains(m.Status(), "No TOTP secret") {
		t.Errorf("Expected hint about missing secret, got %q", m.Status())
	}

	m = feed(m, pasteMsg("1234"))
	if m.Accepted() {
		t.Error("Expected nothing to be accepted without a verifier")
	}
	if m.Status() != "Code complete" {
		t.Errorf("Expected completion status, got %q", m.Status())
	}
}

func TestAppModel_EnterOnIncompleteCode(t *testing.T) {
	v := &fakeVerifier{code: "1234"}
	m := NewAppModel(AppOptions{Config: testConfig(4), Verifier: v, Theme: testTheme()})

	m = feed(m, keyMsg("1"))
	m = feed(m, tea.KeyMsg{Type: tea.KeyEnter})
	if v.calls != 0 {
		t.Errorf("Expected no verification of an incomplete code, got %d", v.calls)
	}
	if m.Status() != "Fill every slot first" {
		t.Errorf("Unexpected status %q", m.Status())
	}
}

func TestAppModel_ConfigReload(t *testing.T) {
	m := NewAppModel(AppOptions{Config: testConfig(4), Theme: testTheme()})
	m = feed(m, pasteMsg("1234"))

	cfg := testConfig(4)
	cfg.Value = "5678"
	m = feed(m, ConfigMsg{Config: cfg})
	if got := m.Field().Field().Cells(); strings.Join(got, ",") != "5,6,7,8" {
		t.Errorf("Expected 5,6,7,8 after reload, got %v", got)
	}

	cfg = testConfig(6)
	cfg.Value = "5678"
	cfg.Separator = "-"
	m = feed(m, ConfigMsg{Config: cfg})
	if m.Field().Field().Len() != 6 {
		t.Errorf("Expected 6 slots after reload, got %d", m.Field().Field().Len())
	}
	if m.Field().Field().Options().Separator != "-" {
		t.Error("Expected separator to be reloaded")
	}
	if m.Status() != "Configuration reloaded" {
		t.Errorf("Unexpected status %q", m.Status())
	}

	m = feed(m, ConfigErrMsg{Err: errors.New("bad yaml")})
	if !strings.Contains(m.Status(), "bad yaml") {
		t.Errorf("Expected reload error in status, got %q", m.Status())
	}
}

func TestAppModel_ConfigReloadKeepsTypedCode(t *testing.T) {
	m := NewAppModel(AppOptions{Config: testConfig(4), Theme: testTheme()})
	m = feed(m, keyMsg("1"))
	m = feed(m, keyMsg("2"))

	cfg := testConfig(4)
	cfg.Separator = "-"
	cfg.Placeholder = "_"
	m = feed(m, ConfigMsg{Config: cfg})

	if got := m.Field().Value(); got != "12" {
		t.Errorf("Expected typed \"12\" to survive a display-only reload, got %q", got)
	}
	if m.Field().Field().FocusIndex() != 2 {
		t.Errorf("Expected focus to stay on slot 2, got %d", m.Field().Field().FocusIndex())
	}
	if m.Field().Field().Options().Placeholder != "_" {
		t.Error("Expected placeholder to be reloaded")
	}
}

func TestAppModel_HelpOverlay(t *testing.T) {
	m := NewAppModel(AppOptions{Config: testConfig(4), Theme: testTheme()})

	m = feed(m, keyMsg("?"))
	if !strings.Contains(m.View(), "OTP Field Help") {
		t.Error("Expected help overlay after ?")
	}
	if m.Field().Value() != "" {
		t.Errorf("Expected ? not to be typed, got %q", m.Field().Value())
	}

	m = feed(m, keyMsg("x"))
	if strings.Contains(m.View(), "OTP Field Help") {
		t.Error("Expected any key to close help")
	}
	if m.Field().Value() != "" {
		t.Errorf("Expected the closing key not to be typed, got %q", m.Field().Value())
	}
}

func TestAppModel_QuestionMarkTypedOnceCodeStarted(t *testing.T) {
	m := NewAppModel(AppOptions{Config: testConfig(4), Theme: testTheme()})
	m = feed(m, keyMsg("1"))
	m = feed(m, keyMsg("?"))

	if strings.Contains(m.View(), "OTP Field Help") {
		t.Error("Expected no help overlay while a code is being typed")
	}
	if got := m.Field().Value(); got != "1?" {
		t.Errorf("Expected \"1?\", got %q", got)
	}

	m.field.Blur()
	m = feed(m, keyMsg("?"))
	if !strings.Contains(m.View(), "OTP Field Help") {
		t.Error("Expected help overlay when the field has no focus")
	}
}

func TestAppModel_Quit(t *testing.T) {
	m := NewAppModel(AppOptions{Config: testConfig(4), Theme: testTheme()})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestAppModel_View(t *testing.T) {
	m := NewAppModel(AppOptions{Config: testConfig(4), Theme: testTheme(), Title: "Sign in"})
	model, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	view := model.View()
	if !strings.Contains(view, "Sign in") {
		t.Error("Expected title in view")
	}
	if !strings.Contains(view, "paste") {
		t.Error("Expected key help in view")
	}
}
