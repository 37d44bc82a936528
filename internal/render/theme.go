package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the color set a chart is drawn with.
type Theme struct {
	Name       string
	Text       lipgloss.Color
	Background lipgloss.Color
	Line       lipgloss.Color
}

var (
	Light = Theme{Name: "light", Text: "#333333", Background: "#ffffff", Line: "#007bff"}
	Dark  = Theme{Name: "dark", Text: "#f0f0f0", Background: "#1e1e1e", Line: "#4da3ff"}
)

// DefaultTheme is used when nothing else is configured.
var DefaultTheme = Light

// ThemeByName returns the theme called name, case-insensitively.
func ThemeByName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "light":
		return Light, nil
	case "dark":
		return Dark, nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q (want light or dark)", name)
	}
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t.Name == Dark.Name {
		return Light
	}
	return Dark
}

func (t Theme) textStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Text).Background(t.Background)
}

func (t Theme) lineStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Line).Background(t.Background)
}

func (t Theme) titleStyle() lipgloss.Style {
	return t.textStyle().Bold(true)
}
