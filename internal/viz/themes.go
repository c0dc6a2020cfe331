package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Theme defines color scheme for the TUI
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Warning   lipgloss.Color
	// Trace and Reference color the asciigraph series.
	Trace     asciigraph.AnsiColor
	Reference asciigraph.AnsiColor
}

var (
	ThemeCyberpunk = Theme{
		Name:      "cyberpunk",
		Primary:   lipgloss.Color("#ff00ff"),
		Secondary: lipgloss.Color("#00ffff"),
		Muted:     lipgloss.Color("#666666"),
		Warning:   lipgloss.Color("#ff8800"),
		Trace:     asciigraph.Cyan,
		Reference: asciigraph.Magenta,
	}

	ThemeRetroGreen = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"),
		Secondary: lipgloss.Color("#00cc00"),
		Muted:     lipgloss.Color("#005500"),
		Warning:   lipgloss.Color("#ffff00"),
		Trace:     asciigraph.Green,
		Reference: asciigraph.Yellow,
	}

	// ThemeScope mimics a matplotlib figure: blue trace, red reference.
	ThemeScope = Theme{
		Name:      "scope",
		Primary:   lipgloss.Color("#1f77b4"),
		Secondary: lipgloss.Color("#aec7e8"),
		Muted:     lipgloss.Color("#888888"),
		Warning:   lipgloss.Color("#d62728"),
		Trace:     asciigraph.Blue,
		Reference: asciigraph.Red,
	}

	CurrentTheme = ThemeScope

	Themes = []Theme{
		ThemeScope,
		ThemeCyberpunk,
		ThemeRetroGreen,
	}
)

// GetTheme looks a theme up by name.
func GetTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// SetTheme makes the named theme current. An unknown name leaves the
// current theme in place.
func SetTheme(name string) error {
	t, ok := GetTheme(name)
	if !ok {
		return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(ThemeNames(), ", "))
	}
	CurrentTheme = t
	return nil
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme returns the theme after current in Themes, wrapping around.
func NextTheme(current string) Theme {
	for i, t := range Themes {
		if t.Name == current {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func warning(text string) string {
	return StatusWarning.Foreground(CurrentTheme.Warning).Render(text)
}

func hint(text string) string {
	return KeyHint.Foreground(CurrentTheme.Muted).Render(text)
}
