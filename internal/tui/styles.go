package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title       lipgloss.Style
	activeTab   lipgloss.Style
	inactiveTab lipgloss.Style
	header      lipgloss.Style
	cursor      lipgloss.Style
	dim         lipgloss.Style
	ok          lipgloss.Style
	warn        lipgloss.Style
	err         lipgloss.Style
	card        lipgloss.Style
	cardTitle   lipgloss.Style
	cardValue   lipgloss.Style
	badge       lipgloss.Style
	modal       lipgloss.Style
}

type palette struct {
	fg, muted, accent, accentFg, surface, border, ok, warn, err string
}

var (
	lightPalette = palette{
		fg: "#1f2937", muted: "#6b7280", accent: "#4f46e5", accentFg: "#ffffff",
		surface: "#e5e7eb", border: "#d1d5db", ok: "#15803d", warn: "#b45309", err: "#b91c1c",
	}
	darkPalette = palette{
		fg: "#f3f4f6", muted: "#9ca3af", accent: "#818cf8", accentFg: "#111827",
		surface: "#374151", border: "#4b5563", ok: "#4ade80", warn: "#fbbf24", err: "#f87171",
	}
)

func newStyles(dark bool) styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}
	c := func(s string) lipgloss.Color { return lipgloss.Color(s) }
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(c(p.accent)),
		activeTab:   lipgloss.NewStyle().Bold(true).Padding(0, 2).Foreground(c(p.accentFg)).Background(c(p.accent)),
		inactiveTab: lipgloss.NewStyle().Padding(0, 2).Foreground(c(p.muted)),
		header:      lipgloss.NewStyle().Bold(true).Foreground(c(p.fg)).Background(c(p.surface)),
		cursor:      lipgloss.NewStyle().Foreground(c(p.accentFg)).Background(c(p.accent)),
		dim:         lipgloss.NewStyle().Foreground(c(p.muted)),
		ok:          lipgloss.NewStyle().Foreground(c(p.ok)),
		warn:        lipgloss.NewStyle().Foreground(c(p.warn)),
		err:         lipgloss.NewStyle().Foreground(c(p.err)),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(p.border)).
			Padding(0, 2).
			MarginRight(1),
		cardTitle: lipgloss.NewStyle().Foreground(c(p.muted)),
		cardValue: lipgloss.NewStyle().Foreground(c(p.fg)).Bold(true),
		badge:     lipgloss.NewStyle().Foreground(c(p.ok)).Bold(true),
		modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(p.accent)).
			Padding(0, 1),
	}
}
