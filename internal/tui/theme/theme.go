// Package theme defines the color themes shared by the dashboard and the
// command output.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme maps color roles to concrete colors.
type Theme struct {
	Name string

	Background    lipgloss.Color
	Surface       lipgloss.Color // cards and panels
	SurfaceHover  lipgloss.Color // active tab, selected row
	SurfaceBright lipgloss.Color // focused form field

	Border       lipgloss.Color
	BorderBright lipgloss.Color
	BorderAccent lipgloss.Color

	TextDim     lipgloss.Color // hints, disabled
	TextMuted   lipgloss.Color // labels
	TextPrimary lipgloss.Color

	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	Green       lipgloss.Color
	GreenBright lipgloss.Color
	Orange      lipgloss.Color
	Red         lipgloss.Color
	Blue        lipgloss.Color
	Yellow      lipgloss.Color
	Magenta     lipgloss.Color
	Cyan        lipgloss.Color
}

// palette is the compact form themes are declared in. Each group runs from
// darkest or weakest to brightest.
type palette struct {
	surfaces [4]string // background, surface, hover, bright
	borders  [3]string // border, bright, accent
	text     [3]string // dim, muted, primary
	accent   [2]string
	green    [2]string
	hues     [6]string // orange, red, blue, yellow, magenta, cyan
}

func build(name string, p palette) Theme {
	c := func(s string) lipgloss.Color { return lipgloss.Color(s) }
	return Theme{
		Name:          name,
		Background:    c(p.surfaces[0]),
		Surface:       c(p.surfaces[1]),
		SurfaceHover:  c(p.surfaces[2]),
		SurfaceBright: c(p.surfaces[3]),
		Border:        c(p.borders[0]),
		BorderBright:  c(p.borders[1]),
		BorderAccent:  c(p.borders[2]),
		TextDim:       c(p.text[0]),
		TextMuted:     c(p.text[1]),
		TextPrimary:   c(p.text[2]),
		Accent:        c(p.accent[0]),
		AccentBright:  c(p.accent[1]),
		Green:         c(p.green[0]),
		GreenBright:   c(p.green[1]),
		Orange:        c(p.hues[0]),
		Red:           c(p.hues[1]),
		Blue:          c(p.hues[2]),
		Yellow:        c(p.hues[3]),
		Magenta:       c(p.hues[4]),
		Cyan:          c(p.hues[5]),
	}
}

var (
	// FlexokiDark is the default.
	FlexokiDark = build("flexoki-dark", palette{
		surfaces: [4]string{"#100F0F", "#1C1B1A", "#282726", "#343331"},
		borders:  [3]string{"#403E3C", "#575653", "#3AA99F"},
		text:     [3]string{"#575653", "#878580", "#FFFCF0"},
		accent:   [2]string{"#3AA99F", "#5BC8BE"},
		green:    [2]string{"#879A39", "#A3B859"},
		hues:     [6]string{"#DA702C", "#D14D41", "#4385BE", "#D0A215", "#CE5D97", "#24837B"},
	})

	// FlexokiLight suits projectors and printed screenshots of reports.
	FlexokiLight = build("flexoki-light", palette{
		surfaces: [4]string{"#FFFCF0", "#F2F0E5", "#E6E4D9", "#DAD8CE"},
		borders:  [3]string{"#CECDC3", "#B7B5AC", "#24837B"},
		text:     [3]string{"#B7B5AC", "#6F6E69", "#100F0F"},
		accent:   [2]string{"#24837B", "#1C6C66"},
		green:    [2]string{"#66800B", "#536907"},
		hues:     [6]string{"#BC5215", "#AF3029", "#205EA6", "#AD8301", "#A02F6F", "#24837B"},
	})

	CatppuccinMocha = build("catppuccin-mocha", palette{
		surfaces: [4]string{"#1E1E2E", "#313244", "#45475A", "#585B70"},
		borders:  [3]string{"#585B70", "#7F849C", "#89B4FA"},
		text:     [3]string{"#6C7086", "#A6ADC8", "#CDD6F4"},
		accent:   [2]string{"#89B4FA", "#B4D0FB"},
		green:    [2]string{"#A6E3A1", "#C6F6C1"},
		hues:     [6]string{"#FAB387", "#F38BA8", "#89B4FA", "#F9E2AF", "#F5C2E7", "#94E2D5"},
	})

	TokyoNight = build("tokyo-night", palette{
		surfaces: [4]string{"#1A1B26", "#24283B", "#343A52", "#414868"},
		borders:  [3]string{"#565F89", "#7982A9", "#7AA2F7"},
		text:     [3]string{"#565F89", "#A9B1D6", "#C0CAF5"},
		accent:   [2]string{"#7AA2F7", "#A9C1FF"},
		green:    [2]string{"#9ECE6A", "#B9E87A"},
		hues:     [6]string{"#FF9E64", "#F7768E", "#7AA2F7", "#E0AF68", "#BB9AF7", "#7DCFFF"},
	})

	// Terminal sticks to the 16 ANSI colors.
	Terminal = build("terminal", palette{
		surfaces: [4]string{"0", "0", "8", "8"},
		borders:  [3]string{"8", "7", "6"},
		text:     [3]string{"8", "7", "15"},
		accent:   [2]string{"6", "14"},
		green:    [2]string{"2", "10"},
		hues:     [6]string{"3", "1", "4", "3", "5", "6"},
	})
)

// Active is the theme used for rendering.
var Active = FlexokiDark

// All lists the themes in display order.
var All = []Theme{FlexokiDark, FlexokiLight, CatppuccinMocha, TokyoNight, Terminal}

// Names lists the available theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	_, ok := lookup(name)
	return ok
}

// ByName returns the named theme, or FlexokiDark when name is unknown.
func ByName(name string) Theme {
	if t, ok := lookup(name); ok {
		return t
	}
	return FlexokiDark
}

func lookup(name string) (Theme, bool) {
	for _, t := range All {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Theme{}, false
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Series returns the colors used for successive chart series.
func (t Theme) Series() []lipgloss.Color {
	return []lipgloss.Color{t.Blue, t.Accent, t.Orange, t.Magenta, t.Yellow, t.Green}
}

// Trend returns the color for a signed change: green for growth, red for decline.
func (t Theme) Trend(v float64) lipgloss.Color {
	if v < 0 {
		return t.Red
	}
	return t.Green
}
