package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerRingStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	bannerSweepStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	bannerBlipStyle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	bannerTitleStyle   = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	bannerTaglineStyle = lipgloss.NewStyle().Foreground(colorPrimaryDark).Italic(true)
	bannerVersionStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// renderBanner draws a small radar screen with the product name.
func renderBanner() string {
	ring := func(s string) string { return bannerRingStyle.Render(s) }
	sweep := bannerSweepStyle.Render("╲")
	blip := bannerBlipStyle.Render("●")
	title := bannerTitleStyle.Render("RECEPTRADAR")

	lines := []string{
		"      " + ring("╭───────╮"),
		"      " + ring("│") + " " + blip + "  " + sweep + "   " + ring("│"),
		"      " + ring("│") + "    " + blip + "  " + ring("│") + "   " + title,
		"      " + ring("╰───────╯"),
	}
	return strings.Join(lines, "\n")
}

func renderBannerWithTagline() string {
	tagline := bannerTaglineStyle.Render("      what's for dinner, from what you have")
	ver := bannerVersionStyle.Render("      " + version)
	return strings.Join([]string{renderBanner(), tagline, ver}, "\n")
}
