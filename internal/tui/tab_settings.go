package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/bizlens/internal/config"
	"github.com/theirongolddev/bizlens/internal/insight"
	"github.com/theirongolddev/bizlens/internal/tui/components"
	"github.com/theirongolddev/bizlens/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldAPIKey = iota
	settingsFieldModel
	settingsFieldMode
	settingsFieldTheme
	settingsFieldPreviewRows
	settingsFieldHistory
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	cfg := a.cfg
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()

	switch a.settings.cursor {
	case settingsFieldAPIKey:
		ti.Placeholder = "gsk_..."
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		ti.SetValue(config.GetAPIKey(cfg))
	case settingsFieldModel:
		ti.Placeholder = insight.DefaultModel
		ti.SetValue(cfg.LLM.Model)
	case settingsFieldMode:
		ti.Placeholder = "summary or sample"
		ti.SetValue(cfg.Insights.Mode)
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(cfg.Appearance.Theme)
	case settingsFieldPreviewRows:
		ti.Placeholder = "5"
		ti.SetValue(strconv.Itoa(cfg.General.PreviewRows))
	case settingsFieldHistory:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(cfg.History.Enabled))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		rebuild := a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		if rebuild {
			return a, rebuildGeneratorCmd(a.cfg, a.log)
		}
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited field and persists the config. It reports
// whether the insight generator must be rebuilt.
func (a *App) settingsSave() bool {
	cfg := a.cfg
	val := strings.TrimSpace(a.settings.input.Value())
	rebuild := false

	switch a.settings.cursor {
	case settingsFieldAPIKey:
		cfg.LLM.APIKey = val
		rebuild = true
	case settingsFieldModel:
		if val == "" {
			val = insight.DefaultModel
		}
		cfg.LLM.Model = val
		rebuild = true
	case settingsFieldMode:
		if _, err := insight.ParseMode(val); err != nil {
			a.settings.saveErr = err
			return false
		}
		cfg.Insights.Mode = val
		rebuild = true
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return false
		}
		cfg.Appearance.Theme = theme.ByName(val).Name
		theme.SetActive(val)
	case settingsFieldPreviewRows:
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			a.settings.saveErr = fmt.Errorf("preview rows must be a positive integer")
			return false
		}
		cfg.General.PreviewRows = n
	case settingsFieldHistory:
		b, err := strconv.ParseBool(val)
		if err != nil {
			a.settings.saveErr = fmt.Errorf("history must be true or false")
			return false
		}
		cfg.History.Enabled = b
	}

	a.cfg = cfg
	a.settings.saveErr = config.Save(cfg)
	return rebuild
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	keyDisplay := "(not set)"
	if key := config.GetAPIKey(cfg); key != "" {
		keyDisplay = config.MaskKey(key)
	}

	fields := []struct{ label, value string }{
		{"API Key", keyDisplay},
		{"Model", cfg.LLM.Model},
		{"Insight Mode", cfg.Insights.Mode},
		{"Theme", cfg.Appearance.Theme},
		{"Preview Rows", strconv.Itoa(cfg.General.PreviewRows)},
		{"History", strconv.FormatBool(cfg.History.Enabled)},
	}

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if padLen := components.CardInnerWidth(cw) - usedWidth; padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Not saved: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Dataset:      ") + valueStyle.Render(a.path) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:  ") + valueStyle.Render(config.ConfigPath()) + "\n")
	infoBody.WriteString(labelStyle.Render("History db:   ") + valueStyle.Render(config.HistoryPath()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Paths", infoBody.String(), cw))
	return b.String()
}
