package theme

import (
	"reflect"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestThemesDefineEveryColor(t *testing.T) {
	for _, th := range All {
		v := reflect.ValueOf(th)
		for i := 0; i < v.NumField(); i++ {
			f := v.Type().Field(i)
			if f.Type != reflect.TypeOf(lipgloss.Color("")) {
				continue
			}
			if v.Field(i).String() == "" {
				t.Errorf("%s: %s is empty", th.Name, f.Name)
			}
		}
	}
}

func TestByName(t *testing.T) {
	if got := ByName("Tokyo-Night"); got.Name != "tokyo-night" {
		t.Errorf("ByName(Tokyo-Night) = %q", got.Name)
	}
	if got := ByName("solarized"); got.Name != FlexokiDark.Name {
		t.Errorf("unknown theme = %q, want %q", got.Name, FlexokiDark.Name)
	}
	if !Valid("flexoki-light") || Valid("solarized") {
		t.Error("Valid disagrees with All")
	}
	if n := len(Names()); n != len(All) {
		t.Errorf("Names() len = %d, want %d", n, len(All))
	}
}

func TestSetActive(t *testing.T) {
	defer SetActive(FlexokiDark.Name)
	SetActive("terminal")
	if Active.Name != "terminal" || Active.Accent != lipgloss.Color("6") {
		t.Errorf("Active = %q accent %q", Active.Name, Active.Accent)
	}
}

func TestTrend(t *testing.T) {
	th := FlexokiDark
	if th.Trend(4.2) != th.Green || th.Trend(0) != th.Green {
		t.Error("growth should use green")
	}
	if th.Trend(-0.1) != th.Red {
		t.Error("decline should use red")
	}
}
