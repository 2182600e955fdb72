// Package style holds the display attributes of the feed's UI elements and
// derives terminal styles from them.
package style

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Element names.
const (
	Group    = "group"
	Button   = "btn"
	TextArea = "textarea"
)

// Border is a solid border of Width pixels.
type Border struct {
	Width int
	Color string
}

// Attributes are display attributes in CSS pixels. Zero means unset.
type Attributes struct {
	Border       Border
	PaddingLeft  int
	PaddingRight int
	Height       int
	Width        int
	FontSize     int
	BorderRadius int
	Margin       int
	MarginRight  int
}

var registry = map[string]Attributes{
	Group: {
		Border:       Border{Width: 1, Color: "#fff"},
		PaddingLeft:  15,
		PaddingRight: 15,
	},
	Button: {
		Height:       40,
		Border:       Border{Width: 1, Color: "#ddd"},
		FontSize:     16,
		BorderRadius: 5,
		Margin:       25,
	},
	TextArea: {
		Height:      80,
		Width:       400,
		MarginRight: 40,
		FontSize:    20,
		Border:      Border{Width: 1, Color: "#fff"},
	},
}

// Lookup returns the attributes registered for name.
func Lookup(name string) (Attributes, bool) {
	a, ok := registry[name]
	return a, ok
}

// Names lists the registered element names in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Terminal cell size in pixels.
const (
	cellWidth  = 8
	cellHeight = 16
)

func cols(px int) int { return (px + cellWidth/2) / cellWidth }
func rows(px int) int { return (px + cellHeight/2) / cellHeight }

// Terminal converts a to a lipgloss style. Pixel lengths are rounded to
// whole cells; font size has no terminal equivalent.
func (a Attributes) Terminal() lipgloss.Style {
	s := lipgloss.NewStyle()
	if a.Border.Width > 0 {
		b := lipgloss.NormalBorder()
		if a.BorderRadius > 0 {
			b = lipgloss.RoundedBorder()
		}
		s = s.Border(b)
		if a.Border.Color != "" {
			s = s.BorderForeground(lipgloss.Color(a.Border.Color))
		}
	}
	s = s.PaddingLeft(cols(a.PaddingLeft)).PaddingRight(cols(a.PaddingRight))
	if a.Width > 0 {
		s = s.Width(cols(a.Width))
	}
	if a.Height > 0 {
		s = s.Height(rows(a.Height))
	}
	if a.Margin > 0 {
		s = s.Margin(rows(a.Margin), cols(a.Margin))
	}
	if a.MarginRight > 0 {
		s = s.MarginRight(cols(a.MarginRight))
	}
	return s
}

// Terminal returns the terminal style of name, or an unstyled style when
// name is not registered.
func Terminal(name string) lipgloss.Style {
	a, ok := registry[name]
	if !ok {
		return lipgloss.NewStyle()
	}
	return a.Terminal()
}
