package ui

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}
	warningColor = lipgloss.AdaptiveColor{Light: "#FFC107", Dark: "#FFD54F"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#A0A8B0"}
	pathColor    = lipgloss.AdaptiveColor{Light: "#007ACC", Dark: "#3D9EFF"}
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	PathStyle    = lipgloss.NewStyle().Foreground(pathColor).Italic(true)
)
