package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/bizlens/internal/cli"
	"github.com/theirongolddev/bizlens/internal/config"
	"github.com/theirongolddev/bizlens/internal/insight"
	"github.com/theirongolddev/bizlens/internal/table"
	"github.com/theirongolddev/bizlens/internal/tui/components"
	"github.com/theirongolddev/bizlens/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// insightOverhead is the height taken by the header, status bar and the cards
// above the answer viewport.
const insightOverhead = 14

// insightState tracks the Insights tab.
type insightState struct {
	running  bool
	seq      int
	cancel   context.CancelFunc
	asking   bool
	input    textinput.Model
	view     viewport.Model
	answer   *insight.Answer
	question string
	elapsed  time.Duration

	promptLen int
	promptErr error
}

func newInsightState() insightState {
	ti := textinput.New()
	ti.Placeholder = "Which region grew fastest?"
	ti.CharLimit = 500
	ti.Width = 60
	ti.Prompt = "? "
	return insightState{
		input: ti,
		view:  viewport.New(80, 10),
	}
}

func (s *insightState) resize(width, height int) {
	s.view.Width = max(components.CardInnerWidth(width), 20)
	s.view.Height = max(height-insightOverhead, 3)
	s.input.Width = max(s.view.Width-4, 20)
	if s.answer != nil {
		s.setContent(s.answer.Text)
	}
}

// refreshPrompt measures the prompt the generator would send for t.
func (s *insightState) refreshPrompt(gen *insight.Generator, t *table.Table) {
	if gen == nil || t == nil {
		return
	}
	p, err := gen.Prompt(t, "")
	s.promptLen = len([]rune(p))
	s.promptErr = err
}

func (s *insightState) begin(cancel context.CancelFunc, question string) {
	s.seq++
	s.running = true
	s.cancel = cancel
	s.question = question
}

func (s *insightState) finish(msg InsightDoneMsg, width int) {
	s.stop()
	ans := msg.Answer
	s.answer = &ans
	s.question = msg.Question
	s.elapsed = msg.Elapsed
	s.view.Width = max(components.CardInnerWidth(width), 20)
	s.setContent(ans.Text)
	s.view.GotoTop()
}

func (s *insightState) setContent(text string) {
	wrapped := lipgloss.NewStyle().Width(s.view.Width).Render(strings.TrimSpace(text))
	s.view.SetContent(wrapped)
}

func (s *insightState) cancelRun() {
	s.stop()
	s.seq++
}

func (s *insightState) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
}

func (a App) updateQuestionInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		q := strings.TrimSpace(a.ins.input.Value())
		a.ins.asking = false
		a.ins.input.Blur()
		if q == "" {
			return a, nil
		}
		return a.startInsight(q)
	case "esc":
		a.ins.asking = false
		a.ins.input.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.ins.input, cmd = a.ins.input.Update(msg)
	return a, cmd
}

func (a App) renderInsightsTab(cw int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	gen := a.asker.Gen
	if !gen.HasCredential() {
		body := warnStyle.Render("Missing API key.") + "\n\n" +
			mutedStyle.Render("Set "+config.APIKeyEnv+" in the environment or a .env file,\n") +
			mutedStyle.Render("or enter it in the Settings tab [x].")
		return components.ContentCard("AI Insights", body, cw)
	}

	opts := gen.Options()
	var head strings.Builder
	fmt.Fprintf(&head, "%s %s   %s %s\n",
		mutedStyle.Render("Model:"), accentStyle.Render(opts.Model),
		mutedStyle.Render("Mode:"), accentStyle.Render(string(opts.Mode)))
	if a.ins.promptErr != nil {
		head.WriteString(errStyle.Render("Prompt: " + a.ins.promptErr.Error()))
	} else {
		head.WriteString(components.BudgetBar("Prompt", a.ins.promptLen, opts.PromptBudget, 7, 30))
	}
	head.WriteString("\n")

	switch {
	case a.ins.asking:
		head.WriteString(a.ins.input.View())
	case a.ins.running:
		what := "Generating insights"
		if a.ins.question != "" {
			what = "Answering " + cli.Truncate(a.ins.question, 50)
		}
		head.WriteString(a.spinner.View())
		head.WriteString(mutedStyle.Render(" " + what + "… [esc] to cancel"))
	default:
		head.WriteString(mutedStyle.Render("[g] generate insights   [/] ask a question"))
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("AI Insights", head.String(), cw))
	b.WriteString("\n")

	if a.ins.answer == nil {
		return b.String()
	}

	title := "Insights"
	if a.ins.question != "" {
		title = "Q: " + cli.Truncate(a.ins.question, components.CardInnerWidth(cw)-4)
	}
	body := a.ins.view.View()
	if !a.ins.answer.OK() {
		body = errStyle.Render(a.ins.answer.Text)
	}
	footer := mutedStyle.Render(fmt.Sprintf("%s · %s · %.0f%%",
		a.ins.answer.Model, cli.FormatDuration(a.ins.elapsed), a.ins.view.ScrollPercent()*100))
	b.WriteString(components.ContentCard(title, body+"\n"+footer, cw))
	return b.String()
}
