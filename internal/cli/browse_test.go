package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/shopspring/decimal"

	"ETFScope/internal/model"
	"ETFScope/internal/widget"
)

// scripted answers survey prompts from a fixed list.
type scripted struct {
	answers  []string
	messages []string
	err      error
}

func (s *scripted) ask(p survey.Prompt, response interface{}) error {
	if sel, ok := p.(*survey.Select); ok {
		s.messages = append(s.messages, sel.Message)
	}
	if len(s.answers) == 0 {
		if s.err != nil {
			return s.err
		}
		return fmt.Errorf("no answer left")
	}
	*(response.(*string)) = s.answers[0]
	s.answers = s.answers[1:]
	return nil
}

func browseController() *widget.Controller {
	pt := func(m time.Month, d int, price string) model.Point {
		return model.Point{Date: model.NewDate(2024, m, d), Price: decimal.RequireFromString(price)}
	}
	ds := model.Dataset{
		"SPY": {pt(1, 2, "472.65"), pt(1, 3, "468.79"), pt(3, 1, "512.85")},
		"QQQ": {pt(1, 2, "402.34")},
	}
	return widget.New(ds, widget.Options{
		Now:    func() time.Time { return model.NewDate(2024, 3, 1) },
		Width:  20,
		Height: 5,
	})
}

func TestBrowse(t *testing.T) {
	ctrl := browseController()
	s := &scripted{answers: []string{
		actionTicker, "SPY",
		actionRange, "1m",
		actionTheme,
		actionQuit,
	}}

	var out bytes.Buffer
	if err := browse(&out, ctrl, s.ask, true); err != nil {
		t.Fatalf("browse: %v", err)
	}

	for _, want := range []string{"QQQ Price (max)", "SPY Price (max)", "SPY Price (1m)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, out.String())
		}
	}
	st := ctrl.State()
	if st.Ticker != "SPY" || st.Range != model.OneMonth || st.Theme.Name != "dark" {
		t.Errorf("unexpected final state %+v", st)
	}
	if got := ctrl.Chart().Series; len(got) != 1 {
		t.Errorf("expected 1 point in the last month, got %d", len(got))
	}
	if len(s.messages) != 6 {
		t.Errorf("expected 6 prompts, got %d (%v)", len(s.messages), s.messages)
	}
}

func TestBrowse_Interrupt(t *testing.T) {
	s := &scripted{err: terminal.InterruptErr}
	var out bytes.Buffer
	if err := browse(&out, browseController(), s.ask, true); err != nil {
		t.Errorf("expected Ctrl-C to exit cleanly, got %v", err)
	}
}

func TestBrowse_PromptError(t *testing.T) {
	boom := errors.New("no tty")
	s := &scripted{err: boom}
	var out bytes.Buffer
	if err := browse(&out, browseController(), s.ask, true); !errors.Is(err, boom) {
		t.Errorf("expected prompt error, got %v", err)
	}
}
