package tui

import (
	"strings"

	"github.com/theirongolddev/bizlens/internal/config"
	"github.com/theirongolddev/bizlens/internal/insight"
	"github.com/theirongolddev/bizlens/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues holds the answers of the first-run wizard.
type setupValues struct {
	apiKey string
	model  string
	mode   string
	theme  string
}

func (v setupValues) apply(cfg config.Config) config.Config {
	if key := strings.TrimSpace(v.apiKey); key != "" {
		cfg.LLM.APIKey = key
	}
	if v.model != "" {
		cfg.LLM.Model = v.model
	}
	if v.mode != "" {
		cfg.Insights.Mode = v.mode
	}
	if v.theme != "" {
		cfg.Appearance.Theme = v.theme
	}
	return cfg
}

// NewSetupForm builds the setup wizard shared by the dashboard and `bizlens setup`.
func NewSetupForm(cfg config.Config, vals *SetupValues) *huh.Form {
	return newSetupForm(cfg, (*setupValues)(vals))
}

// SetupValues is the exported view of the wizard answers.
type SetupValues setupValues

// Apply merges the answers into cfg.
func (v SetupValues) Apply(cfg config.Config) config.Config {
	return setupValues(v).apply(cfg)
}

func newSetupForm(cfg config.Config, vals *setupValues) *huh.Form {
	vals.model = cfg.LLM.Model
	vals.mode = cfg.Insights.Mode
	vals.theme = cfg.Appearance.Theme

	keyDesc := "Used for AI insights. Leave blank to skip."
	if existing := config.GetAPIKey(cfg); existing != "" {
		keyDesc = "Current: " + config.MaskKey(existing) + ". Leave blank to keep it."
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	models := []string{insight.DefaultModel, "llama-3.1-8b-instant", "mixtral-8x7b-32768"}
	if cfg.LLM.Model != "" && cfg.LLM.Model != insight.DefaultModel {
		models = append([]string{cfg.LLM.Model}, models...)
	}
	modelOpts := make([]huh.Option[string], 0, len(models))
	for _, m := range models {
		modelOpts = append(modelOpts, huh.NewOption(m, m))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to bizlens").
				Description("Let's set up AI insights and the dashboard look."),
			huh.NewInput().
				Title("Groq API key").
				Description(keyDesc).
				EchoMode(huh.EchoModePassword).
				Value(&vals.apiKey),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model").
				Options(modelOpts...).
				Value(&vals.model),
			huh.NewSelect[string]().
				Title("Insight prompt").
				Options(
					huh.NewOption("Summary statistics + first rows", string(insight.ModeSummary)),
					huh.NewOption("Random sample of rows", string(insight.ModeSample)),
				).
				Value(&vals.mode),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithTheme(huh.ThemeCharm())
}
