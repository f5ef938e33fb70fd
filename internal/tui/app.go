// Package tui provides the interactive Bubble Tea dashboard for bizlens.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/bizlens/internal/cli"
	"github.com/theirongolddev/bizlens/internal/config"
	"github.com/theirongolddev/bizlens/internal/forecast"
	"github.com/theirongolddev/bizlens/internal/insight"
	"github.com/theirongolddev/bizlens/internal/pipeline"
	"github.com/theirongolddev/bizlens/internal/table"
	"github.com/theirongolddev/bizlens/internal/tui/components"
	"github.com/theirongolddev/bizlens/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// TableLoadedMsg is sent when the input file has been read.
type TableLoadedMsg struct {
	Table    *table.Table
	Err      error
	LoadTime time.Duration
}

// ForecastDoneMsg carries a finished forecast. Seq ties it to the run that
// started it so results of cancelled runs are dropped.
type ForecastDoneMsg struct {
	Seq     int
	Result  *forecast.Result
	Err     error
	Elapsed time.Duration
}

// InsightDoneMsg carries a generated answer.
type InsightDoneMsg struct {
	Seq      int
	Question string
	Answer   insight.Answer
	Elapsed  time.Duration
}

// GeneratorReadyMsg replaces the insight generator after settings change.
type GeneratorReadyMsg struct {
	Gen *insight.Generator
	Err error
}

const (
	tabOverview = iota
	tabCharts
	tabForecast
	tabInsights
	tabSettings
)

// Options configures a new App.
type Options struct {
	Path      string
	Column    string // forecast column override
	Config    config.Config
	Asker     pipeline.Asker
	Logger    *zap.Logger
	NeedSetup bool
}

// App is the root Bubble Tea model.
type App struct {
	path   string
	column string
	cfg    config.Config
	log    *zap.Logger
	asker  pipeline.Asker

	// Data
	table    *table.Table
	analysis *pipeline.Analysis
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	fc       forecastState
	ins      insightState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Asker.Gen == nil {
		opts.Asker.Gen = insight.New(insight.Config{Logger: log}, insight.DefaultOptions())
	}

	return App{
		path:      opts.Path,
		column:    opts.Column,
		cfg:       opts.Config,
		log:       log,
		asker:     opts.Asker,
		needSetup: opts.NeedSetup,
		spinner:   sp,
		ins:       newInsightState(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadTableCmd(a.path),
		a.spinner.Tick,
	)
}

func (a App) busy() bool {
	return !a.loaded || a.fc.running || a.ins.running
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ins.resize(a.contentWidth(), a.height)
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || (a.needSetup && a.setupForm != nil) {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
			if a.activeTab == tabInsights {
				var cmd tea.Cmd
				a.ins.view, cmd = a.ins.view.Update(msg)
				return a, cmd
			}
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case TableLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		a.table = msg.Table
		a.analysis = pipeline.Analyze(msg.Table, a.cfg.General.PreviewRows)
		a.fc.column, _ = pipeline.ForecastColumn(msg.Table, a.column)
		a.ins.refreshPrompt(a.asker.Gen, a.table)

		if a.needSetup {
			a.setupForm = newSetupForm(a.cfg, &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ForecastDoneMsg:
		if msg.Seq != a.fc.seq {
			return a, nil
		}
		a.fc.finish(msg)
		return a, nil

	case InsightDoneMsg:
		if msg.Seq != a.ins.seq {
			return a, nil
		}
		a.ins.finish(msg, a.contentWidth())
		return a, nil

	case GeneratorReadyMsg:
		if msg.Err != nil {
			a.log.Warn("rebuilding insight generator", zap.Error(msg.Err))
			return a, nil
		}
		a.asker.Gen = msg.Gen
		a.ins.refreshPrompt(a.asker.Gen, a.table)
		return a, nil

	case spinner.TickMsg:
		if a.busy() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.ins.asking {
		var cmd tea.Cmd
		a.ins.input, cmd = a.ins.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		a.fc.stop()
		a.ins.stop()
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}
	if a.loadErr != nil {
		if key == "q" || key == "esc" {
			return a, tea.Quit
		}
		return a, nil
	}

	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.ins.asking {
		return a.updateQuestionInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if key == "esc" {
		switch {
		case a.fc.running:
			a.fc.cancelRun()
		case a.ins.running:
			a.ins.cancelRun()
		}
		return a, nil
	}

	switch a.activeTab {
	case tabForecast:
		if key == "f" || key == "enter" {
			return a.startForecast()
		}
	case tabInsights:
		switch key {
		case "g":
			return a.startInsight("")
		case "/":
			if !a.asker.Gen.HasCredential() || a.ins.running {
				return a, nil
			}
			a.ins.asking = true
			a.ins.input.SetValue("")
			a.ins.input.Focus()
			return a, a.ins.input.Cursor.BlinkCmd()
		case "j", "k", "up", "down", "pgup", "pgdown", "ctrl+d", "ctrl+u", "home", "end":
			var cmd tea.Cmd
			a.ins.view, cmd = a.ins.view.Update(msg)
			return a, cmd
		}
	case tabSettings:
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	if key == "q" {
		a.fc.stop()
		a.ins.stop()
		return a, tea.Quit
	}

	switch key {
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if r := []rune(key); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) startForecast() (tea.Model, tea.Cmd) {
	if a.fc.running || a.fc.column == "" {
		return a, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.fc.begin(cancel)
	return a, tea.Batch(
		forecastCmd(ctx, a.log, a.table, a.fc.column, a.fc.seq),
		a.spinner.Tick,
	)
}

func (a App) startInsight(question string) (tea.Model, tea.Cmd) {
	if a.ins.running || !a.asker.Gen.HasCredential() {
		return a, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.ins.begin(cancel, question)
	return a, tea.Batch(
		insightCmd(ctx, a.asker, a.table, question, a.ins.seq),
		a.spinner.Tick,
	)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.cfg = a.setupVals.apply(a.cfg)
		if err := config.Save(a.cfg); err != nil {
			a.log.Warn("saving config", zap.Error(err))
		}
		theme.SetActive(a.cfg.Appearance.Theme)
		a.needSetup = false
		a.setupForm = nil
		return a, rebuildGeneratorCmd(a.cfg, a.log)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.loadErr != nil {
		return a.viewLoadError()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  bizlens needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) centeredCard(body string) string {
	t := theme.Active
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) logo() string {
	t := theme.Active
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	return logoStyle.Render("◈ bizlens") + subtitleStyle.Render(" · Business Data Analyzer")
}

func (a App) viewLoading() string {
	t := theme.Active
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(a.logo())
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Loading " + cli.Truncate(a.path, 50)))
	return a.centeredCard(b.String())
}

func (a App) viewLoadError() string {
	t := theme.Active
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(a.logo())
	b.WriteString("\n\n")
	b.WriteString(errStyle.Render(a.loadErr.Error()))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Press q to quit"))
	return a.centeredCard(b.String())
}

func (a App) viewHelp() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		name     string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o c f i x", "Jump to tab"},
			{"← → tab", "Previous / Next tab"},
			{"j k", "Scroll answer / move in settings"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"f", "Run forecast (Forecast tab)"},
			{"g", "Generate insights (Insights tab)"},
			{"/", "Ask a question (Insights tab)"},
			{"Esc", "Cancel running work / input"},
			{"Enter", "Edit setting / confirm"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.name))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return a.centeredCard(b.String())
}

func (a App) statusHints() string {
	switch {
	case a.fc.running || a.ins.running:
		return "[esc]cancel  [?]help  [q]uit"
	case a.ins.asking:
		return "[enter]ask  [esc]cancel"
	}
	switch a.activeTab {
	case tabForecast:
		return "[f]orecast  [?]help  [q]uit"
	case tabInsights:
		return "[g]enerate  [/]ask  [j/k]scroll  [?]help  [q]uit"
	case tabSettings:
		return "[j/k]move  [enter]edit  [?]help  [q]uit"
	}
	return "[?]help  [q]uit"
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	infoStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Background(t.Surface).Width(w)

	info := nameStyle.Render(" "+a.table.Name) +
		infoStyle.Render(fmt.Sprintf(" │ %s rows × %d columns │ loaded in %s",
			cli.FormatNumber(int64(a.table.Nrow())), a.table.Ncol(), cli.FormatDuration(a.loadTime)))
	header := components.RenderTabBar(a.activeTab, w) + "\n" + rowStyle.Render(info)

	statusBar := components.RenderStatusBar(w, a.statusHints(), a.asker.Gen.Options().Model, a.busy())

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabCharts:
		content = a.renderChartsTab(cw)
	case tabForecast:
		content = a.renderForecastTab(cw)
	case tabInsights:
		content = a.renderInsightsTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

func loadTableCmd(path string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		t, err := table.LoadFile(path)
		return TableLoadedMsg{Table: t, Err: err, LoadTime: time.Since(start)}
	}
}

func forecastCmd(ctx context.Context, log *zap.Logger, t *table.Table, column string, seq int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		res, err := pipeline.RunForecast(ctx, log, t, column)
		return ForecastDoneMsg{Seq: seq, Result: res, Err: err, Elapsed: time.Since(start)}
	}
}

func insightCmd(ctx context.Context, asker pipeline.Asker, t *table.Table, question string, seq int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ans := asker.Ask(ctx, t, question)
		return InsightDoneMsg{Seq: seq, Question: question, Answer: ans, Elapsed: time.Since(start)}
	}
}

func rebuildGeneratorCmd(cfg config.Config, log *zap.Logger) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		gen, err := pipeline.NewGenerator(ctx, cfg, "", log)
		return GeneratorReadyMsg{Gen: gen, Err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
